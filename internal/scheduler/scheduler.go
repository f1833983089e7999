// Package scheduler fires registered jobs on cron expressions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/graphcrm/graphcrm/internal/jobs"
)

var (
	// ErrUnknownJob is returned for a schedule naming no registered job.
	ErrUnknownJob = errors.New("schedule for unknown job")
	// ErrInvalidSchedule is returned for an expression that does not parse.
	ErrInvalidSchedule = errors.New("invalid cron expression")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// cronParser supports standard 5-field cron and descriptors like "@every 5m".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSchedule, expr, err)
	}
	return sched, nil
}

// JobRunner runs jobs by name.
type JobRunner interface {
	Has(name string) bool
	Run(ctx context.Context, name string) error
}

// Entry describes one scheduled job.
type Entry struct {
	Job      string
	Schedule string
	Next     time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation sets the time zone expressions are evaluated in (UTC by
// default).
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

// Scheduler fires jobs through a JobRunner. A job still running when its
// next tick arrives skips that tick.
type Scheduler struct {
	runner   JobRunner
	logger   *slog.Logger
	location *time.Location

	cron      *cronlib.Cron
	schedules map[string]string
	entries   map[string]cronlib.EntryID

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New validates every schedule against runner and builds a Scheduler.
// schedules maps job name to cron expression.
func New(runner JobRunner, schedules map[string]string, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		runner:    runner,
		logger:    logger.With("component", "scheduler"),
		location:  time.UTC,
		schedules: make(map[string]string, len(schedules)),
		entries:   make(map[string]cronlib.EntryID, len(schedules)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	cl := cronLogger{s.logger}
	s.cron = cronlib.New(
		cronlib.WithParser(cronParser),
		cronlib.WithLocation(s.location),
		cronlib.WithLogger(cl),
		cronlib.WithChain(cronlib.Recover(cl), cronlib.SkipIfStillRunning(cl)),
	)

	names := make([]string, 0, len(schedules))
	for name := range schedules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		expr := schedules[name]
		if !runner.Has(name) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
		}
		sched, err := ParseSchedule(expr)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", name, err)
		}
		s.entries[name] = s.cron.Schedule(sched, s.jobFunc(name))
		s.schedules[name] = expr
	}

	return s, nil
}

func (s *Scheduler) jobFunc(name string) cronlib.FuncJob {
	return func() {
		err := s.runner.Run(s.ctx, name)
		switch {
		case err == nil:
		case errors.Is(err, jobs.ErrJobLocked):
			s.logger.Info("scheduled run skipped", "job", name, "reason", "locked")
		default:
			// The runner already logged the failure with its run id.
			s.logger.Debug("scheduled run failed", "job", name, "error", err)
		}
	}
}

// Entries returns the scheduled jobs with their next fire time, sorted by
// job name. Next is zero before Start.
func (s *Scheduler) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for name, id := range s.entries {
		out = append(out, Entry{
			Job:      name,
			Schedule: s.schedules[name],
			Next:     s.cron.Entry(id).Next,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.cron.Start()

	attrs := make([]any, 0, 2*len(s.schedules))
	for _, e := range s.Entries() {
		attrs = append(attrs, slog.String(e.Job, e.Schedule))
	}
	s.logger.Info("scheduler started", slog.Group("schedules", attrs...))
	return nil
}

// Stop stops firing new runs, cancels running ones and waits for them to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		s.cancel()
		return nil
	}

	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// cronLogger adapts slog to the cron library's logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
