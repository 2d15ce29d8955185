package cli

import (
	"github.com/spf13/cobra"

	"github.com/mirrorctl/mirrorctl/internal/registry"
	"github.com/mirrorctl/mirrorctl/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <logId>",
	Short: "Show the status of a sync job",
	Long:  "Fetch one status snapshot for an in-flight or finished sync job",
	Args:  exactArgs(1),
	RunE:  runStatus,
}

var statusPackage string

func init() {
	statusCmd.Flags().StringVar(&statusPackage, "package", "", "Package name the job belongs to (required)")
	_ = statusCmd.MarkFlagRequired("package")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	poller := newPoller(cfg, registry.Options{})
	handle := &types.SyncHandle{PackageName: statusPackage, LogID: args[0]}

	status, err := poller.StatusOnce(cmd.Context(), handle)
	if err != nil {
		return err
	}

	view := &types.SyncStatusView{
		PackageName: handle.PackageName,
		LogID:       handle.LogID,
		OK:          status.OK,
		SyncDone:    status.SyncDone,
		LogURL:      status.LogURL,
	}
	return out.WriteSuccess("sync.status", view)
}
