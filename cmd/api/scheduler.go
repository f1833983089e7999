package main

import (
	"log/slog"

	"github.com/graphcrm/graphcrm/internal/app"
	"github.com/graphcrm/graphcrm/internal/cache"
	"github.com/graphcrm/graphcrm/internal/config"
	"github.com/graphcrm/graphcrm/internal/metrics"
	"github.com/graphcrm/graphcrm/internal/scheduler"
	"github.com/graphcrm/graphcrm/internal/service"
)

// newScheduler builds the in-process scheduler. Its GraphQL jobs call
// GRAPHQL_URL, which normally points back at this server.
func newScheduler(
	cfg *config.Config,
	crm *service.CRMService,
	cacheClient *cache.Cache,
	recorder metrics.Recorder,
	logger *slog.Logger,
) (*scheduler.Scheduler, error) {
	runner, err := app.NewJobRunner(cfg, app.JobDeps{
		CRM:     crm,
		Cache:   cacheClient,
		Metrics: recorder,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return scheduler.New(runner, cfg.Schedules(), logger)
}
