package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/graphcrm/graphcrm/internal/config"
)

// WeeklyReport logs customer, order and revenue totals.
type WeeklyReport struct {
	CRM Maintenance
	Log LogWriter
}

func (j *WeeklyReport) Name() string { return config.JobWeeklyReport }

func (j *WeeklyReport) Run(ctx context.Context, now time.Time) error {
	report, err := j.CRM.Report(ctx)
	if err != nil {
		return err
	}
	return j.Log.Append(now, fmt.Sprintf("Report: %d customers, %d orders, %s revenue",
		report.Customers, report.Orders, report.Revenue.StringFixed(2)))
}
