package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/graphql-go/graphql"

	"github.com/graphcrm/graphcrm/internal/config"
	"github.com/graphcrm/graphcrm/internal/handler"
	"github.com/graphcrm/graphcrm/internal/metrics"
	"github.com/graphcrm/graphcrm/internal/middleware"
)

// GraphQLPath is where the schema is served.
const GraphQLPath = "/graphql"

// RouterDeps holds what NewRouter mounts.
type RouterDeps struct {
	Config  *config.Config
	Logger  *slog.Logger
	Version string
	Schema  graphql.Schema
	Health  *handler.HealthHandler
	Metrics *metrics.InMemoryRecorder
	// Limiter is nil when Redis is not configured.
	Limiter middleware.IPLimiter
	// Verifier is nil when API_KEY_HASH is not set.
	Verifier middleware.KeyVerifier
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(d RouterDeps) *chi.Mux {
	cfg := d.Config
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var recorder metrics.Recorder = metrics.NewNoop()
	var snapshotter metrics.Snapshotter
	if d.Metrics != nil {
		recorder = d.Metrics
		snapshotter = d.Metrics
	}

	h := handler.New(d.Version, GraphQLPath)
	gql := handler.NewGraphQLHandler(d.Schema, logger, recorder)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.GetCORSAllowedOrigins())))

	// Probes and metrics (no auth required)
	r.Get("/", h.Hello)
	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	r.Get("/metrics", handler.NewMetricsHandler(snapshotter).Metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		r.Use(middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: d.Limiter,
			Metrics: recorder,
			Enabled: cfg.RateLimitEnabled,
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		}))
		r.Use(middleware.APIKey(middleware.APIKeyConfig{
			Logger:   logger,
			Verifier: d.Verifier,
		}))
		// The handler answers unsupported methods itself.
		r.Handle(GraphQLPath, gql)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
