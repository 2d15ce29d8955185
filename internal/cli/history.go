package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mirrorctl/mirrorctl/internal/history"
	"github.com/mirrorctl/mirrorctl/internal/logging"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded sync runs",
	Long:  "List sync runs recorded locally by previous invocations, newest first",
	RunE:  runHistory,
}

var (
	historyPackage string
	historyLimit   int
)

func init() {
	historyCmd.Flags().StringVar(&historyPackage, "package", "", "Only show runs for this package")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	db, err := history.Open(historyDBPath())
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("Failed to open history database: %v", err)).Build())
	}
	defer db.Close()

	var runs []history.Run
	if historyPackage != "" {
		runs, err = db.ListRunsForPackage(cmd.Context(), historyPackage, historyLimit)
	} else {
		runs, err = db.ListRuns(cmd.Context(), historyLimit)
	}
	if err != nil {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeUnknown,
			fmt.Sprintf("Failed to read history: %v", err)).Build())
	}

	return out.WriteSuccess("history", history.RunList(runs))
}

func historyDBPath() string {
	return filepath.Join(getConfigDir(), "history.db")
}

// recordRun persists one sync outcome. History is best effort; a
// failure here never fails the sync itself.
func recordRun(run history.Run) {
	db, err := history.Open(historyDBPath())
	if err != nil {
		GetLogger().Debug("history unavailable", logging.F("error", err.Error()))
		return
	}
	defer db.Close()

	if err := db.RecordRun(context.Background(), run); err != nil {
		GetLogger().Debug("failed to record sync run", logging.F("error", err.Error()))
	}
}
