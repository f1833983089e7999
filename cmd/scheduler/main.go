// Package main runs the CRM maintenance jobs, either on their cron
// schedules or once via -run for an external cron.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/graphcrm/graphcrm/internal/app"
	"github.com/graphcrm/graphcrm/internal/clock"
	"github.com/graphcrm/graphcrm/internal/config"
	"github.com/graphcrm/graphcrm/internal/jobs"
	"github.com/graphcrm/graphcrm/internal/scheduler"
	"github.com/graphcrm/graphcrm/internal/service"
)

func main() {
	var (
		runOnce = flag.String("run", "", "Run one job now and exit (cleanup, order_reminders, low_stock, weekly_report, heartbeat)")
		list    = flag.Bool("list", false, "Print the configured schedules and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, os.Stdout)

	if *list {
		if err := printSchedules(os.Stdout, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *runOnce); err != nil {
		logger.Error("scheduler error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, once string) error {
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	cacheClient, err := app.OpenCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if cacheClient != nil {
		defer cacheClient.Close()
	}

	runner, err := app.NewJobRunner(cfg, app.JobDeps{
		CRM:    service.NewCRMService(store, clock.NewRealClock(), nil),
		Cache:  cacheClient,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if once != "" {
		return runJob(ctx, runner, once, logger)
	}

	sched, err := scheduler.New(runner, cfg.Schedules(), logger)
	if err != nil {
		return err
	}
	if len(sched.Entries()) == 0 {
		return errors.New("no jobs scheduled; every CRON_* is off")
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return sched.Stop(stopCtx)
}

// runJob runs one job. A run skipped because another process holds the
// lock is not an error.
func runJob(ctx context.Context, runner *jobs.Runner, name string, logger *slog.Logger) error {
	if !runner.Has(name) {
		return fmt.Errorf("%w: %s (known: %v)", jobs.ErrUnknownJob, name, runner.Names())
	}

	err := runner.Run(ctx, name)
	if errors.Is(err, jobs.ErrJobLocked) {
		logger.Info("job skipped", "job", name, "reason", "locked")
		return nil
	}
	return err
}

func printSchedules(w io.Writer, cfg *config.Config) error {
	schedules := cfg.Schedules()
	for _, name := range []string{
		config.JobCleanup,
		config.JobOrderReminders,
		config.JobLowStock,
		config.JobWeeklyReport,
		config.JobHeartbeat,
	} {
		expr, ok := schedules[name]
		if !ok {
			expr = config.ScheduleOff
		} else {
			sched, err := scheduler.ParseSchedule(expr)
			if err != nil {
				return fmt.Errorf("job %s: %w", name, err)
			}
			expr = fmt.Sprintf("%s (next %s)", expr, sched.Next(time.Now().UTC()).Format(time.RFC3339))
		}
		if _, err := fmt.Fprintf(w, "%-16s %s\n", name, expr); err != nil {
			return err
		}
	}
	return nil
}
