package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/graphcrm/graphcrm/internal/config"
)

// Heartbeat statuses.
const (
	StatusAlive       = "CRM is alive"
	StatusUnreachable = "CRM unreachable"
)

// Heartbeat records whether the GraphQL endpoint answers { hello }. An
// unreachable endpoint is logged, not reported as a failed run.
type Heartbeat struct {
	Client GraphQL
	Log    LogWriter
	Logger *slog.Logger
}

func (j *Heartbeat) Name() string { return config.JobHeartbeat }

func (j *Heartbeat) Run(ctx context.Context, now time.Time) error {
	var res struct {
		Hello string `json:"hello"`
	}

	status := StatusAlive
	if err := j.Client.Do(ctx, "{ hello }", nil, &res); err != nil || res.Hello == "" {
		status = StatusUnreachable
		if j.Logger != nil {
			j.Logger.Warn("heartbeat failed", "error", err)
		}
	}

	return j.Log.Append(now, status)
}
