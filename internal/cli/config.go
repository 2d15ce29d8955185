package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mirrorctl/mirrorctl/internal/config"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  "Commands for managing mirrorctl configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Use 'config show' to see available keys",
	Args:  exactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Long:  "Print the path of the configuration file mirrorctl reads",
	RunE:  runConfigPath,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration to defaults",
	Long:  "Reset all configuration settings to their default values",
	RunE:  runConfigReset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configResetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := config.Load()
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}

	return out.WriteSuccess("config.show", cfg)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	key := args[0]
	value := args[1]

	cfg, err := config.Load()
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}

	switch strings.ToLower(key) {
	case "defaultprofile":
		cfg.DefaultProfile = value
	case "defaultoutputformat":
		switch types.OutputFormat(value) {
		case types.OutputFormatText, types.OutputFormatJSON, types.OutputFormatTable:
		default:
			return invalidConfigValue("Output format must be 'text', 'json', or 'table'")
		}
		cfg.DefaultOutputFormat = types.OutputFormat(value)
	case "registryurl":
		parsed, err := url.Parse(value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return invalidConfigValue("Registry URL must be a valid http(s) URL")
		}
		cfg.RegistryURL = value
	case "maxpollattempts":
		attempts, err := strconv.Atoi(value)
		if err != nil || attempts < 1 || attempts > 1000 {
			return invalidConfigValue("Max poll attempts must be between 1 and 1000")
		}
		cfg.MaxPollAttempts = attempts
	case "pollintervalms":
		interval, err := strconv.Atoi(value)
		if err != nil || interval < 100 || interval > 600000 {
			return invalidConfigValue("Poll interval must be between 100 and 600000 ms")
		}
		cfg.PollIntervalMs = interval
	case "maxretries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 || retries > 10 {
			return invalidConfigValue("Max retries must be between 0 and 10")
		}
		cfg.MaxRetries = retries
	case "retrybasedelay":
		delay, err := strconv.Atoi(value)
		if err != nil || delay < 100 || delay > 60000 {
			return invalidConfigValue("Retry base delay must be between 100 and 60000 ms")
		}
		cfg.RetryBaseDelay = delay
	case "requesttimeout":
		timeout, err := strconv.Atoi(value)
		if err != nil || timeout < 1 || timeout > 3600 {
			return invalidConfigValue("Request timeout must be between 1 and 3600 seconds")
		}
		cfg.RequestTimeout = timeout
	case "loglevel":
		validLevels := []string{"quiet", "normal", "verbose", "debug"}
		valid := false
		for _, level := range validLevels {
			if value == level {
				valid = true
				break
			}
		}
		if !valid {
			return invalidConfigValue(fmt.Sprintf("Log level must be one of: %s", strings.Join(validLevels, ", ")))
		}
		cfg.LogLevel = value
	case "coloroutput":
		cfg.ColorOutput = parseBool(value)
	default:
		return invalidConfigValue(fmt.Sprintf("Unknown configuration key: %s", key))
	}

	if err := cfg.Save(); err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("Failed to save configuration: %v", err)).Build())
	}

	out.Log("Configuration updated: %s = %s", key, value)
	return out.WriteSuccess("config.set", map[string]interface{}{
		"key":   key,
		"value": value,
	})
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	path, err := config.GetConfigPath()
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build())
	}

	if flags.OutputFormat == types.OutputFormatJSON {
		return out.WriteSuccess("config.path", map[string]interface{}{"path": path})
	}
	return out.WriteRaw(path + "\n")
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg := config.DefaultConfig()
	if err := cfg.Save(); err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("Failed to reset configuration: %v", err)).Build())
	}

	out.Log("Configuration reset to defaults")
	return out.WriteSuccess("config.reset", cfg)
}

func invalidConfigValue(message string) error {
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument, message).Build())
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
