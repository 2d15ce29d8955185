package history

import (
	"strconv"
	"time"
)

// RunList renders a slice of runs as a table
type RunList []Run

func (l RunList) Headers() []string {
	return []string{"When", "Package", "Outcome", "Attempts", "Elapsed", "Log ID"}
}

func (l RunList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, run := range l {
		logID := run.LogID
		if logID == "" {
			logID = "-"
		}
		rows = append(rows, []string{
			time.Unix(run.CreatedAt, 0).Format("2006-01-02 15:04:05"),
			run.PackageName,
			run.Outcome,
			strconv.Itoa(run.Attempts),
			(time.Duration(run.ElapsedMs) * time.Millisecond).String(),
			logID,
		})
	}
	return rows
}

func (l RunList) EmptyMessage() string {
	return "No sync runs recorded"
}
