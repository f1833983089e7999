package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/graphcrm/graphcrm/internal/config"
)

// Cleanup deletes customers that never ordered and are older than
// InactiveAfter.
type Cleanup struct {
	CRM           Maintenance
	InactiveAfter time.Duration
	Log           LogWriter
}

func (j *Cleanup) Name() string { return config.JobCleanup }

func (j *Cleanup) Run(ctx context.Context, now time.Time) error {
	deleted, err := j.CRM.CleanupInactiveCustomers(ctx, j.InactiveAfter)
	if err != nil {
		return err
	}
	return j.Log.Append(now, fmt.Sprintf("Deleted %d inactive customers", deleted))
}
