package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mirrorctl/mirrorctl/internal/config"
	"github.com/mirrorctl/mirrorctl/internal/logging"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
	"github.com/mirrorctl/mirrorctl/pkg/version"
)

var (
	globalFlags types.GlobalFlags
	logger      logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mirrorctl",
	Short: "npm mirror sync CLI - trigger and follow mirror sync jobs",
	Long: `mirrorctl is a command-line client for npm mirror services that expose
asynchronous sync jobs over HTTP. It triggers a sync for a package, polls
the job until it finishes, and prints the sync log.

Progress goes to stderr; stdout carries command output only.`,
	Version:       version.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	// Assigned here rather than in the composite literal to avoid an
	// initialization cycle: the closure references applyConfigDefaults,
	// which references rootCmd.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			// A broken config file must not lock out `config reset`
			cfg = config.DefaultConfig()
		}
		applyConfigDefaults(cfg)

		if err := validateGlobalFlags(); err != nil {
			return err
		}

		logConfig := logging.LogConfig{
			Level:           logLevelFor(cfg.LogLevel),
			OutputFile:      globalFlags.LogFile,
			EnableConsole:   !globalFlags.Quiet && cfg.LogLevel != "quiet",
			EnableDebug:     globalFlags.Debug || cfg.LogLevel == "debug",
			RedactSensitive: true,
			EnableColor:     cfg.ColorOutput,
			EnableTimestamp: true,
		}
		if globalFlags.Verbose {
			logConfig.Level = logging.DEBUG
		}
		if globalFlags.OutputFormat == types.OutputFormatJSON && !globalFlags.Verbose && !globalFlags.Debug {
			logConfig.EnableConsole = false
		}

		logger, err = logging.NewLogger(logConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "Print the version number of mirrorctl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%s", err.Error())
	})

	rootCmd.PersistentFlags().StringVar(&globalFlags.Profile, "profile", "default", "Authentication profile to use")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Registry, "registry", "", "Mirror registry base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar((*string)(&globalFlags.OutputFormat), "output", "text", "Output format (text, json, table)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Config, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "Output in JSON format (alias for --output json)")

	rootCmd.AddCommand(versionCmd)
}

// usageError marks argument and flag parse failures so Execute can print
// the command's usage text and exit with the usage exit code.
type usageError struct {
	err error
}

func (u *usageError) Error() string { return u.err.Error() }
func (u *usageError) Unwrap() error { return u.err }

func usageErrorf(format string, a ...interface{}) error {
	return &usageError{err: utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
		fmt.Sprintf(format, a...)).Build())}
}

// exactArgs mirrors cobra.ExactArgs but fails with a usage error
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("accepts %d arg(s), received %d", n, len(args))
		}
		return nil
	}
}

// maximumArgs mirrors cobra.MaximumNArgs but fails with a usage error
func maximumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return usageErrorf("accepts at most %d arg(s), received %d", n, len(args))
		}
		return nil
	}
}

// applyConfigDefaults fills global flags the user did not set from the
// persisted configuration
func applyConfigDefaults(cfg *config.Config) {
	flags := rootCmd.PersistentFlags()
	if !flags.Changed("profile") && cfg.DefaultProfile != "" {
		globalFlags.Profile = cfg.DefaultProfile
	}
	if !flags.Changed("output") && !globalFlags.JSON && cfg.DefaultOutputFormat != "" {
		globalFlags.OutputFormat = cfg.DefaultOutputFormat
	}
}

// logLevelFor maps a configured log level name onto a console log level
func logLevelFor(name string) logging.LogLevel {
	switch name {
	case "verbose", "debug":
		return logging.DEBUG
	}
	return logging.INFO
}

func validateGlobalFlags() error {
	// Handle --json flag as alias for --output json
	if globalFlags.JSON {
		globalFlags.OutputFormat = types.OutputFormatJSON
	}

	switch globalFlags.OutputFormat {
	case types.OutputFormatText, types.OutputFormatJSON, types.OutputFormatTable:
		return nil
	}
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
		fmt.Sprintf("Invalid output format: %s", globalFlags.OutputFormat)).Build())
}

// Execute runs the root command and maps failures to stable exit codes
func Execute(ctx context.Context) {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if logger != nil {
		_ = logger.Close()
	}
	if err == nil {
		return
	}

	cliErr := toCLIError(err)
	if globalFlags.OutputFormat == types.OutputFormatJSON {
		out := NewOutputWriter(globalFlags.OutputFormat, globalFlags.Quiet, globalFlags.Verbose)
		_ = out.WriteError("error", cliErr)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cliErr.Message)
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) && cmd != nil {
		fmt.Fprint(os.Stderr, cmd.UsageString())
	}

	os.Exit(utils.GetExitCode(cliErr.Code))
}

// toCLIError converts any command error into a stable CLIError record
func toCLIError(err error) types.CLIError {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.CLIError
	}
	return utils.NewCLIError(utils.ErrCodeUnknown, err.Error()).Build()
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() types.GlobalFlags {
	return globalFlags
}

// GetLogger returns the global logger
func GetLogger() logging.Logger {
	if logger == nil {
		return logging.NewNoOpLogger()
	}
	return logger
}

// loadConfig loads configuration and applies flag-level overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("Failed to load configuration: %v", err)).Build())
	}
	if globalFlags.Registry != "" {
		cfg.RegistryURL = globalFlags.Registry
	}
	return cfg, nil
}

func getConfigDir() string {
	dir, err := config.GetConfigDir()
	if err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mirrorctl")
}
