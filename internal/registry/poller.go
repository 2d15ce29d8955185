package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mirrorctl/mirrorctl/internal/api"
	"github.com/mirrorctl/mirrorctl/internal/logging"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

// State tracks where a sync run is in its lifecycle
type State int

const (
	StateIdle State = iota
	StateTriggered
	StatePolling
	StateDone
	StateTimedOut
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTriggered:
		return "triggered"
	case StatePolling:
		return "polling"
	case StateDone:
		return "done"
	case StateTimedOut:
		return "timed-out"
	}
	return "unknown"
}

// Options configures a sync run. Zero values fall back to the defaults
// so the poll bounds are always explicit, never implicit module state.
type Options struct {
	// MaxAttempts bounds the status poll loop
	MaxAttempts int
	// Interval is the fixed delay between polls; no backoff is applied
	Interval time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = utils.DefaultMaxPollAttempts
	}
	if o.Interval <= 0 {
		o.Interval = time.Duration(utils.DefaultPollIntervalMs) * time.Millisecond
	}
	return o
}

// SleepFunc suspends between polls. Injected so tests run without
// real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Poller drives one sync job from trigger to completion:
// Idle -> Triggered -> Polling -> Done or TimedOut.
type Poller struct {
	transport Transport
	logger    logging.Logger
	opts      Options
	profile   string
	registry  string
	sleep     SleepFunc
	state     State
}

// NewPoller creates a poller over the given transport
func NewPoller(transport Transport, logger logging.Logger, opts Options) *Poller {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Poller{
		transport: transport,
		logger:    logger,
		opts:      opts.withDefaults(),
		sleep:     defaultSleep,
		state:     StateIdle,
	}
}

// SetIdentity sets the profile and registry recorded on request contexts
func (p *Poller) SetIdentity(profile, registry string) {
	p.profile = profile
	p.registry = registry
}

// SetSleep replaces the inter-poll sleep. Tests use this to avoid
// real delays.
func (p *Poller) SetSleep(sleep SleepFunc) {
	if sleep != nil {
		p.sleep = sleep
	}
}

// State returns the poller's current lifecycle state
func (p *Poller) State() State {
	return p.state
}

// Run performs a full sync: trigger, bounded poll, log fetch.
// The returned result carries the verbatim log text.
func (p *Poller) Run(ctx context.Context, req types.SyncRequest) (*types.SyncResult, error) {
	start := time.Now()

	handle, err := p.Trigger(ctx, req)
	if err != nil {
		return nil, err
	}

	status, attempts, err := p.AwaitDone(ctx, handle)
	if err != nil {
		return nil, err
	}

	logCtx := p.newRequestContext(types.RequestTypeLogFetch, req.PackageName)
	logText, err := p.transport.FetchLog(ctx, logCtx, status.LogURL)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	p.logger.Info("Sync finished",
		logging.F("package", req.PackageName),
		logging.F("logId", handle.LogID),
		logging.F("attempts", attempts),
		logging.F("elapsed_ms", elapsed.Milliseconds()),
	)

	return &types.SyncResult{
		PackageName: req.PackageName,
		LogID:       handle.LogID,
		Attempts:    attempts,
		Elapsed:     elapsed,
		ElapsedMs:   elapsed.Milliseconds(),
		LogURL:      status.LogURL,
		Log:         logText,
	}, nil
}

// Trigger starts the sync job. A handle is obtained at most once per
// run; trigger rejection is terminal and issues no status requests.
func (p *Poller) Trigger(ctx context.Context, req types.SyncRequest) (*types.SyncHandle, error) {
	name := strings.TrimSpace(req.PackageName)
	if name == "" {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
			"package name is required").Build())
	}

	reqCtx := p.newRequestContext(types.RequestTypeSyncTrigger, name)
	p.logger.Info("Triggering sync", logging.F("package", name), logging.F("registry", p.registry))

	resp, err := p.transport.Trigger(ctx, reqCtx, name)
	if err != nil {
		return nil, err
	}

	if !resp.OK {
		builder := utils.NewCLIError(utils.ErrCodeSyncRejected,
			fmt.Sprintf("mirror service rejected sync for %q", name)).
			WithContext("package", name).
			WithContext("traceId", reqCtx.TraceID)
		if resp.Reason != "" {
			builder.WithMirrorReason(resp.Reason)
		}
		if resp.LogID != "" {
			builder.WithContext("logId", resp.LogID)
		}
		return nil, utils.NewAppError(builder.Build())
	}

	p.state = StateTriggered
	p.logger.Info("Sync job created", logging.F("package", name), logging.F("logId", resp.LogID))

	return &types.SyncHandle{PackageName: name, LogID: resp.LogID}, nil
}

// AwaitDone polls job status until it reports done, at most
// MaxAttempts times with a fixed interval between polls. Returns the
// terminal status and the number of status requests made.
func (p *Poller) AwaitDone(ctx context.Context, handle *types.SyncHandle) (*types.SyncStatus, int, error) {
	p.state = StatePolling

	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		reqCtx := p.newRequestContext(types.RequestTypeSyncStatus, handle.PackageName)
		status, err := p.transport.Status(ctx, reqCtx, handle.PackageName, handle.LogID)
		if err != nil {
			return nil, attempt, err
		}

		if status.OK && status.SyncDone {
			p.state = StateDone
			p.logger.Info("Sync done",
				logging.F("package", handle.PackageName),
				logging.F("logId", handle.LogID),
				logging.F("attempt", attempt),
			)
			return status, attempt, nil
		}

		p.logger.Info("Sync in progress",
			logging.F("package", handle.PackageName),
			logging.F("logId", handle.LogID),
			logging.F("attempt", attempt),
			logging.F("maxAttempts", p.opts.MaxAttempts),
		)

		if attempt < p.opts.MaxAttempts {
			if err := p.sleep(ctx, p.opts.Interval); err != nil {
				return nil, attempt, utils.NewAppError(utils.NewCLIError(utils.ErrCodeCancelled,
					"sync wait cancelled").
					WithContext("package", handle.PackageName).
					WithContext("logId", handle.LogID).
					Build())
			}
		}
	}

	p.state = StateTimedOut
	return nil, p.opts.MaxAttempts, utils.NewAppError(utils.NewCLIError(utils.ErrCodePollTimeout,
		fmt.Sprintf("sync did not finish within %d status checks", p.opts.MaxAttempts)).
		WithContext("package", handle.PackageName).
		WithContext("logId", handle.LogID).
		WithContext("attempts", p.opts.MaxAttempts).
		WithContext("pollInterval", p.opts.Interval.String()).
		Build())
}

// StatusOnce fetches a single status snapshot without entering the
// poll loop. Used by the one-shot status command.
func (p *Poller) StatusOnce(ctx context.Context, handle *types.SyncHandle) (*types.SyncStatus, error) {
	reqCtx := p.newRequestContext(types.RequestTypeSyncStatus, handle.PackageName)
	return p.transport.Status(ctx, reqCtx, handle.PackageName, handle.LogID)
}

// FetchJobLog retrieves the log text of a finished job without
// re-triggering a sync. The job must already report done.
func (p *Poller) FetchJobLog(ctx context.Context, handle *types.SyncHandle) (string, error) {
	status, err := p.StatusOnce(ctx, handle)
	if err != nil {
		return "", err
	}

	if !status.OK || !status.SyncDone || status.LogURL == "" {
		return "", utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
			fmt.Sprintf("sync job %q for %q has no log yet", handle.LogID, handle.PackageName)).
			WithContext("package", handle.PackageName).
			WithContext("logId", handle.LogID).
			WithContext("syncDone", status.SyncDone).
			Build())
	}

	reqCtx := p.newRequestContext(types.RequestTypeLogFetch, handle.PackageName)
	return p.transport.FetchLog(ctx, reqCtx, status.LogURL)
}

func (p *Poller) newRequestContext(requestType types.RequestType, packageName string) *types.RequestContext {
	reqCtx := api.NewRequestContext(p.profile, p.registry, requestType)
	reqCtx.PackageName = packageName
	return reqCtx
}
