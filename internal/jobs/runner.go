package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/graphcrm/graphcrm/internal/clock"
	"github.com/graphcrm/graphcrm/internal/gqlclient"
	"github.com/graphcrm/graphcrm/internal/metrics"
)

// DefaultLockTTL bounds how long a crashed run can hold a job's lock.
const DefaultLockTTL = 10 * time.Minute

var (
	// ErrUnknownJob is returned when running a name that is not registered.
	ErrUnknownJob = errors.New("unknown job")
	// ErrJobLocked is returned when another process holds the job's lock.
	ErrJobLocked = errors.New("job is locked by another run")
	// ErrDuplicateJob is returned when registering a name twice.
	ErrDuplicateJob = errors.New("job already registered")
)

// Lock is a held job lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker takes a cross-process lock for a job. ok is false when the lock
// is held elsewhere.
type Locker interface {
	TryLock(ctx context.Context, job string, ttl time.Duration) (lock Lock, ok bool, err error)
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	Clock   clock.Clock
	// Locker is optional; without it only in-process overlap is prevented.
	Locker  Locker
	LockTTL time.Duration
}

// Runner executes registered jobs by name.
type Runner struct {
	logger  *slog.Logger
	metrics metrics.Recorder
	clock   clock.Clock
	locker  Locker
	lockTTL time.Duration

	mu   sync.RWMutex
	jobs map[string]Job
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	r := &Runner{
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		clock:   cfg.Clock,
		locker:  cfg.Locker,
		lockTTL: cfg.LockTTL,
		jobs:    make(map[string]Job),
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "jobs.runner")
	if r.metrics == nil {
		r.metrics = metrics.NewNoop()
	}
	if r.clock == nil {
		r.clock = clock.NewRealClock()
	}
	if r.lockTTL <= 0 {
		r.lockTTL = DefaultLockTTL
	}
	return r
}

// Register adds jobs to the runner.
func (r *Runner) Register(jobs ...Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range jobs {
		name := job.Name()
		if _, exists := r.jobs[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
		}
		r.jobs[name] = job
	}
	return nil
}

// Has reports whether name is registered.
func (r *Runner) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.jobs[name]
	return ok
}

// Names returns the registered job names, sorted.
func (r *Runner) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named job once.
func (r *Runner) Run(ctx context.Context, name string) (err error) {
	r.mu.RLock()
	job, ok := r.jobs[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	now := r.clock.Now()
	runID := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	logger := r.logger.With("job", name, "run_id", runID)

	if r.locker != nil {
		lock, acquired, lockErr := r.locker.TryLock(ctx, name, r.lockTTL)
		if lockErr != nil {
			r.metrics.IncJobRun(name, metrics.StatusFailed)
			logger.Error("job failed", "error", lockErr)
			return fmt.Errorf("lock job %s: %w", name, lockErr)
		}
		if !acquired {
			r.metrics.IncJobRun(name, metrics.StatusSkipped)
			logger.Info("job skipped, lock held elsewhere")
			return ErrJobLocked
		}
		defer func() {
			if relErr := lock.Release(context.WithoutCancel(ctx)); relErr != nil {
				logger.Warn("release job lock", "error", relErr)
			}
		}()
	}

	logger.Info("job started")
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", name, rec)
		}

		elapsed := time.Since(start)
		r.metrics.ObserveJobDuration(name, elapsed)
		durationMs := float64(elapsed.Microseconds()) / 1000

		if err != nil {
			r.metrics.IncJobRun(name, metrics.StatusFailed)
			logger.Error("job failed", "duration_ms", durationMs, "error", err)
			return
		}
		r.metrics.IncJobRun(name, metrics.StatusSuccess)
		logger.Info("job finished", "duration_ms", durationMs)
	}()

	return job.Run(gqlclient.WithRequestID(ctx, runID), now)
}
