package app

import (
	"log/slog"

	"github.com/graphcrm/graphcrm/internal/cache"
	"github.com/graphcrm/graphcrm/internal/clock"
	"github.com/graphcrm/graphcrm/internal/config"
	"github.com/graphcrm/graphcrm/internal/gqlclient"
	"github.com/graphcrm/graphcrm/internal/jobs"
	"github.com/graphcrm/graphcrm/internal/metrics"
)

// JobDeps holds what NewJobRunner needs besides configuration.
type JobDeps struct {
	// CRM serves the jobs that read the store directly.
	CRM     jobs.Maintenance
	Cache   *cache.Cache
	Metrics metrics.Recorder
	Clock   clock.Clock
	Logger  *slog.Logger
	// GraphQL overrides the client built from GRAPHQL_URL.
	GraphQL jobs.GraphQL
}

// NewGraphQLClient builds the jobs' client from GRAPHQL_URL, API_KEY,
// GRAPHQL_TIMEOUT and GRAPHQL_RETRIES.
func NewGraphQLClient(cfg *config.Config) *gqlclient.Client {
	retries := cfg.GraphQLRetries
	if retries == 0 {
		retries = -1
	}
	return gqlclient.New(cfg.GraphQLURL, gqlclient.Options{
		APIKey:     cfg.APIKey,
		Retries:    retries,
		HTTPClient: gqlclient.NewHTTPClient(cfg.GraphQLTimeout),
	})
}

// NewJobRunner registers the standard job set on a runner. Runs take a
// Redis lock when a cache is configured.
func NewJobRunner(cfg *config.Config, d JobDeps) (*jobs.Runner, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := d.GraphQL
	if client == nil {
		client = NewGraphQLClient(cfg)
	}

	rc := jobs.RunnerConfig{
		Logger:  logger,
		Metrics: d.Metrics,
		Clock:   d.Clock,
		LockTTL: cfg.JobLockTTL,
	}
	if d.Cache != nil {
		rc.Locker = jobs.RedisLocker{Cache: d.Cache}
	}

	runner := jobs.NewRunner(rc)
	err := runner.Register(jobs.Standard(jobs.Deps{
		CRM:            d.CRM,
		Client:         client,
		LogDir:         cfg.JobLogDir,
		InactiveAfter:  cfg.CleanupInactiveAfter,
		ReminderWindow: cfg.ReminderWindow,
		Logger:         logger,
	})...)
	if err != nil {
		return nil, err
	}
	return runner, nil
}
