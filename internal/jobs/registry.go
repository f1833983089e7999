package jobs

import (
	"log/slog"
	"time"

	"github.com/graphcrm/graphcrm/internal/joblog"
)

// Deps holds what the standard job set needs.
type Deps struct {
	CRM            Maintenance
	Client         GraphQL
	LogDir         string
	InactiveAfter  time.Duration
	ReminderWindow time.Duration
	Logger         *slog.Logger
}

// Standard returns the five maintenance jobs wired to their log files.
func Standard(d Deps) []Job {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return []Job{
		&Cleanup{
			CRM:           d.CRM,
			InactiveAfter: d.InactiveAfter,
			Log:           joblog.New(d.LogDir, joblog.CleanupFile, joblog.DefaultLayout),
		},
		&OrderReminders{
			Client: d.Client,
			Window: d.ReminderWindow,
			Log:    joblog.New(d.LogDir, joblog.RemindersFile, joblog.DefaultLayout),
			Logger: logger.With("component", "jobs.order_reminders"),
		},
		&LowStockRestock{
			Client: d.Client,
			Log:    joblog.New(d.LogDir, joblog.LowStockFile, joblog.DefaultLayout),
		},
		&WeeklyReport{
			CRM: d.CRM,
			Log: joblog.New(d.LogDir, joblog.ReportFile, joblog.DefaultLayout),
		},
		&Heartbeat{
			Client: d.Client,
			Log:    joblog.New(d.LogDir, joblog.HeartbeatFile, joblog.HeartbeatLayout),
			Logger: logger.With("component", "jobs.heartbeat"),
		},
	}
}
