package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mirrorctl/mirrorctl/internal/api"
	"github.com/mirrorctl/mirrorctl/internal/auth"
	"github.com/mirrorctl/mirrorctl/internal/config"
	"github.com/mirrorctl/mirrorctl/internal/history"
	"github.com/mirrorctl/mirrorctl/internal/registry"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

var syncCmd = &cobra.Command{
	Use:   "sync <package>",
	Short: "Sync a package on the mirror and print its log",
	Long: `Trigger a sync job for a package on the mirror service, poll the job
until it finishes, and print the sync log to stdout.

The package name may be scoped (e.g. @babel/core). Polling is bounded:
after the configured number of attempts the command fails with a poll
timeout instead of waiting forever.`,
	Args: exactArgs(1),
	RunE: runSync,
}

var (
	syncMaxAttempts int
	syncIntervalMs  int
)

func init() {
	syncCmd.Flags().IntVar(&syncMaxAttempts, "max-attempts", 0, "Maximum status poll attempts (default from config)")
	syncCmd.Flags().IntVar(&syncIntervalMs, "interval", 0, "Delay between status polls in milliseconds (default from config)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := registry.Options{
		MaxAttempts: cfg.MaxPollAttempts,
		Interval:    cfg.GetPollInterval(),
	}
	if syncMaxAttempts > 0 {
		opts.MaxAttempts = syncMaxAttempts
	}
	if syncIntervalMs > 0 {
		opts.Interval = time.Duration(syncIntervalMs) * time.Millisecond
	}

	poller := newPoller(cfg, opts)

	result, err := poller.Run(cmd.Context(), types.SyncRequest{PackageName: args[0]})
	if err != nil {
		if utils.ErrorCode(err) == utils.ErrCodeInvalidArgument {
			// Usage errors never reach the service; nothing to record
			return err
		}
		recordRun(history.Run{
			PackageName: args[0],
			Registry:    cfg.RegistryURL,
			Profile:     flags.Profile,
			Outcome:     outcomeForError(err),
			ErrorCode:   utils.ErrorCode(err),
		})
		return err
	}

	recordRun(history.Run{
		PackageName: result.PackageName,
		LogID:       result.LogID,
		Registry:    cfg.RegistryURL,
		Profile:     flags.Profile,
		Outcome:     history.OutcomeDone,
		Attempts:    result.Attempts,
		ElapsedMs:   result.ElapsedMs,
	})

	if flags.OutputFormat == types.OutputFormatText {
		return out.WriteRaw(result.Log)
	}
	return out.WriteSuccess("sync", result)
}

// outcomeForError maps a failed run to its history outcome
func outcomeForError(err error) string {
	switch utils.ErrorCode(err) {
	case utils.ErrCodePollTimeout:
		return history.OutcomeTimedOut
	case utils.ErrCodeSyncRejected:
		return history.OutcomeRejected
	}
	return history.OutcomeFailed
}

// newPoller wires config, stored credentials, and the HTTP client into a poller
func newPoller(cfg *config.Config, opts registry.Options) *registry.Poller {
	flags := GetGlobalFlags()

	mgr := auth.NewManager(getConfigDir())
	client := api.NewClient(api.ClientConfig{
		BaseURL:        cfg.RegistryURL,
		Token:          mgr.OptionalToken(flags.Profile),
		MaxRetries:     cfg.MaxRetries,
		RetryDelayMs:   cfg.RetryBaseDelay,
		RequestTimeout: cfg.GetRequestTimeout(),
		Logger:         GetLogger(),
	})

	poller := registry.NewPoller(registry.NewHTTPTransport(client), GetLogger(), opts)
	poller.SetIdentity(flags.Profile, cfg.RegistryURL)
	return poller
}
