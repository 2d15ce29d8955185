package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirrorctl/mirrorctl/internal/auth"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Registry token management",
	Long:  "Manage access tokens for mirror registries that require authentication",
}

var authSetTokenCmd = &cobra.Command{
	Use:   "set-token [token]",
	Short: "Store a registry token",
	Long: `Store an access token for the current profile. The token is kept in
the system keyring when available, otherwise in an encrypted file.

If no token argument is given, the token is read from stdin.`,
	Args: maximumArgs(1),
	RunE: runAuthSetToken,
}

var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored token info",
	Long:  "Display masked token information for the current profile",
	RunE:  runAuthShow,
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the stored token",
	Long:  "Delete the stored token for the current profile",
	RunE:  runAuthRemove,
}

var authProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List token profiles",
	Long:  "Display all profiles with a stored token",
	RunE:  runAuthProfiles,
}

func init() {
	authCmd.AddCommand(authSetTokenCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(authRemoveCmd)
	authCmd.AddCommand(authProfilesCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthSetToken(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		out.Log("Reading token from stdin")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
				"Failed to read token from stdin.").Build())
		}
		token = strings.TrimSpace(line)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mgr := auth.NewManager(getConfigDir())
	if warning := mgr.GetStorageWarning(); warning != "" {
		out.Log("%s", warning)
	}

	err = mgr.SetToken(flags.Profile, &types.TokenCredential{
		Token:     token,
		Registry:  cfg.RegistryURL,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	out.Log("Token stored for profile: %s", flags.Profile)
	return out.WriteSuccess("auth.set-token", map[string]interface{}{
		"profile":        flags.Profile,
		"registry":       cfg.RegistryURL,
		"storageBackend": mgr.GetStorageBackend(),
	})
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	mgr := auth.NewManager(getConfigDir())

	cred, err := mgr.GetToken(flags.Profile)
	if err != nil {
		return out.WriteSuccess("auth.show", map[string]interface{}{
			"profile":        flags.Profile,
			"hasToken":       false,
			"storageBackend": mgr.GetStorageBackend(),
		})
	}

	return out.WriteSuccess("auth.show", map[string]interface{}{
		"profile":        flags.Profile,
		"hasToken":       true,
		"token":          auth.MaskToken(cred.Token),
		"registry":       cred.Registry,
		"createdAt":      cred.CreatedAt.Format(time.RFC3339),
		"storageBackend": mgr.GetStorageBackend(),
	})
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	mgr := auth.NewManager(getConfigDir())

	if err := mgr.DeleteToken(flags.Profile); err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired,
			fmt.Sprintf("No token found for profile '%s'", flags.Profile)).Build())
	}

	out.Log("Token removed for profile: %s", flags.Profile)
	return out.WriteSuccess("auth.remove", map[string]interface{}{
		"profile": flags.Profile,
		"status":  "removed",
	})
}

func runAuthProfiles(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	mgr := auth.NewManager(getConfigDir())

	profiles, err := mgr.ListProfiles()
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("Failed to list profiles: %v", err)).Build())
	}

	var profileDetails []map[string]interface{}
	for _, profile := range profiles {
		detail := map[string]interface{}{
			"profile": profile,
		}

		cred, err := mgr.GetToken(profile)
		if err == nil {
			detail["hasToken"] = true
			detail["registry"] = cred.Registry
			detail["createdAt"] = cred.CreatedAt.Format(time.RFC3339)
		} else {
			detail["hasToken"] = false
		}

		profileDetails = append(profileDetails, detail)
	}

	return out.WriteSuccess("auth.profiles", map[string]interface{}{
		"profiles":       profileDetails,
		"count":          len(profiles),
		"storageBackend": mgr.GetStorageBackend(),
	})
}
