package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome values recorded for a sync run
const (
	OutcomeDone     = "done"
	OutcomeTimedOut = "timed-out"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Run is one recorded sync invocation
type Run struct {
	ID          string `json:"id"`
	PackageName string `json:"packageName"`
	LogID       string `json:"logId,omitempty"`
	Registry    string `json:"registry"`
	Profile     string `json:"profile"`
	Outcome     string `json:"outcome"`
	ErrorCode   string `json:"errorCode,omitempty"`
	Attempts    int    `json:"attempts"`
	ElapsedMs   int64  `json:"elapsedMs"`
	CreatedAt   int64  `json:"createdAt"`
}

// RecordRun inserts a run record. The ID is assigned here when empty.
func (d *DB) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().Unix()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			id, package_name, log_id, registry, profile, outcome, error_code, attempts, elapsed_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.PackageName, run.LogID, run.Registry, run.Profile, run.Outcome, run.ErrorCode, run.Attempts, run.ElapsedMs, run.CreatedAt)
	return err
}

// ListRuns returns the most recent runs, newest first
func (d *DB) ListRuns(ctx context.Context, limit int) (runs []Run, err error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, package_name, log_id, registry, profile, outcome, error_code, attempts, elapsed_ms, created_at
		FROM sync_runs ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListRunsForPackage returns the most recent runs for one package, newest first
func (d *DB) ListRunsForPackage(ctx context.Context, packageName string, limit int) (runs []Run, err error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, package_name, log_id, registry, profile, outcome, error_code, attempts, elapsed_ms, created_at
		FROM sync_runs WHERE package_name = ? ORDER BY created_at DESC, id LIMIT ?
	`, packageName, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// PruneOlderThan removes run records created before the cutoff
func (d *DB) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM sync_runs WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanRun(scanner interface {
	Scan(dest ...interface{}) error
}) (Run, error) {
	var run Run
	err := scanner.Scan(&run.ID, &run.PackageName, &run.LogID, &run.Registry, &run.Profile,
		&run.Outcome, &run.ErrorCode, &run.Attempts, &run.ElapsedMs, &run.CreatedAt)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}
