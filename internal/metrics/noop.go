package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncGraphQLRequest is a no-op.
func (n *NoopRecorder) IncGraphQLRequest(status string) {}

// ObserveGraphQLDuration is a no-op.
func (n *NoopRecorder) ObserveGraphQLDuration(duration time.Duration) {}

// IncCustomersCreated is a no-op.
func (n *NoopRecorder) IncCustomersCreated(count int) {}

// IncProductCreated is a no-op.
func (n *NoopRecorder) IncProductCreated() {}

// IncOrderCreated is a no-op.
func (n *NoopRecorder) IncOrderCreated() {}

// IncValidationError is a no-op.
func (n *NoopRecorder) IncValidationError() {}

// IncJobRun is a no-op.
func (n *NoopRecorder) IncJobRun(job, status string) {}

// ObserveJobDuration is a no-op.
func (n *NoopRecorder) ObserveJobDuration(job string, duration time.Duration) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}
