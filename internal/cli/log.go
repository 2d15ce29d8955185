package cli

import (
	"github.com/spf13/cobra"

	"github.com/mirrorctl/mirrorctl/internal/registry"
	"github.com/mirrorctl/mirrorctl/internal/types"
)

var logCmd = &cobra.Command{
	Use:   "log <logId>",
	Short: "Print the log of a finished sync job",
	Long: `Fetch and print the log text of a finished sync job without
triggering a new sync. Fails if the job has not finished yet.`,
	Args: exactArgs(1),
	RunE: runLog,
}

var logPackage string

func init() {
	logCmd.Flags().StringVar(&logPackage, "package", "", "Package name the job belongs to (required)")
	_ = logCmd.MarkFlagRequired("package")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	poller := newPoller(cfg, registry.Options{})
	handle := &types.SyncHandle{PackageName: logPackage, LogID: args[0]}

	logText, err := poller.FetchJobLog(cmd.Context(), handle)
	if err != nil {
		return err
	}

	if flags.OutputFormat == types.OutputFormatJSON {
		return out.WriteSuccess("sync.log", map[string]interface{}{
			"packageName": handle.PackageName,
			"logId":       handle.LogID,
			"log":         logText,
		})
	}
	return out.WriteRaw(logText)
}
