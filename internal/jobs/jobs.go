// Package jobs implements the CRM maintenance jobs and the runner that
// wraps every invocation with locking, logging and metrics.
package jobs

import (
	"context"
	"time"

	"github.com/graphcrm/graphcrm/internal/model"
)

// Job is one maintenance task. Run receives the trigger time and returns a
// non-nil error only when the run must be reported as failed.
type Job interface {
	Name() string
	Run(ctx context.Context, now time.Time) error
}

// GraphQL executes a query against the CRM endpoint.
type GraphQL interface {
	Do(ctx context.Context, query string, variables map[string]any, out any) error
}

// LogWriter appends summary lines to a job's log file.
type LogWriter interface {
	Append(ts time.Time, summaries ...string) error
}

// Maintenance is the subset of the CRM service used by jobs that work on
// the data store directly.
type Maintenance interface {
	CleanupInactiveCustomers(ctx context.Context, inactiveAfter time.Duration) (int64, error)
	Report(ctx context.Context) (*model.Report, error)
}
