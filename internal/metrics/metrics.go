// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Job run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// GraphQL endpoint metrics
	IncGraphQLRequest(status string) // status: "success" or "failed"
	ObserveGraphQLDuration(duration time.Duration)

	// CRM write metrics
	IncCustomersCreated(n int)
	IncProductCreated()
	IncOrderCreated()
	IncValidationError()

	// Maintenance job metrics
	IncJobRun(job, status string) // status: "success", "failed", "skipped"
	ObserveJobDuration(job string, duration time.Duration)

	// Rate limiting
	IncRateLimited()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
