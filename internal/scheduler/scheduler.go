// Package scheduler runs periodic store refreshes and reminder checks on
// cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/datetime"
	logpkg "github.com/tempus-app/tempus/internal/logger"
)

// DefaultRefreshSpec refreshes every five minutes
const DefaultRefreshSpec = "@every 5m"

// Refresher reloads a window and everything shown alongside it
type Refresher interface {
	Refresh(ctx context.Context, w datetime.Window) error
}

// RefreshScheduler refreshes the window currently on display
type RefreshScheduler struct {
	cron    *cron.Cron
	target  Refresher
	window  func() datetime.Window
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	runs    int
	lastErr error
}

// NewRefreshScheduler creates a stopped scheduler. window is asked for the
// month to refresh on every run.
func NewRefreshScheduler(target Refresher, window func() datetime.Window, logger *zap.Logger, loc *time.Location) *RefreshScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger: logger}
	return &RefreshScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		target:  target,
		window:  window,
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// Schedule registers a refresh on a cron spec, with seconds, or a descriptor
// such as "@every 5m"
func (r *RefreshScheduler) Schedule(spec string) (cron.EntryID, error) {
	id, err := r.cron.AddFunc(spec, r.run)
	if err != nil {
		return 0, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return id, nil
}

// ScheduleInterval registers a refresh every interval
func (r *RefreshScheduler) ScheduleInterval(interval time.Duration) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	return r.cron.Schedule(cron.Every(interval), cron.FuncJob(r.run)), nil
}

// AddJob registers an arbitrary job on the same cron
func (r *RefreshScheduler) AddJob(spec string, job func()) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, job)
}

// RunNow refreshes immediately on the caller's goroutine
func (r *RefreshScheduler) RunNow(ctx context.Context) error {
	w := r.window()
	err := r.target.Refresh(ctx, w)

	r.mu.Lock()
	r.runs++
	r.lastErr = err
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("scheduled_refresh_failed",
			zap.String("window", w.Key()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return err
	}
	r.logger.Debug("scheduled_refresh_completed", zap.String("window", w.Key()))
	return nil
}

func (r *RefreshScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_ = r.RunNow(ctx)
}

// Runs returns how many refreshes have completed and the last error
func (r *RefreshScheduler) Runs() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, r.lastErr
}

// Start runs the scheduler in the background
func (r *RefreshScheduler) Start() {
	r.cron.Start()
}

// Stop stops scheduling and waits for a running refresh, or for ctx
func (r *RefreshScheduler) Stop(ctx context.Context) error {
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's logging to zap
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw("cron_"+msg, append(keysAndValues, "error", logpkg.SanitizeError(err))...)
}
