package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// JobKey identifies a job/status counter.
type JobKey struct {
	Job    string
	Status string
}

// JobDuration accumulates run durations for one job.
type JobDuration struct {
	Count   uint64
	TotalNs int64
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	GraphQLRequests        uint64
	GraphQLFailures        uint64
	GraphQLDurationCount   uint64
	GraphQLDurationTotalNs int64
	CustomersCreated       uint64
	ProductsCreated        uint64
	OrdersCreated          uint64
	ValidationErrors       uint64
	RateLimited            uint64
	JobRuns                map[JobKey]uint64
	JobDurations           map[string]JobDuration
}

// JobNames returns the job names present in the snapshot, sorted.
func (s Snapshot) JobNames() []string {
	seen := make(map[string]struct{})
	for key := range s.JobRuns {
		seen[key.Job] = struct{}{}
	}
	for job := range s.JobDurations {
		seen[job] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint
// and is used directly in tests.
type InMemoryRecorder struct {
	graphqlRequests        uint64
	graphqlFailures        uint64
	graphqlDurationCount   uint64
	graphqlDurationTotalNs int64
	customersCreated       uint64
	productsCreated        uint64
	ordersCreated          uint64
	validationErrors       uint64
	rateLimited            uint64

	mu           sync.Mutex
	jobRuns      map[JobKey]uint64
	jobDurations map[string]JobDuration
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		jobRuns:      make(map[JobKey]uint64),
		jobDurations: make(map[string]JobDuration),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	snap := Snapshot{
		GraphQLRequests:        atomic.LoadUint64(&m.graphqlRequests),
		GraphQLFailures:        atomic.LoadUint64(&m.graphqlFailures),
		GraphQLDurationCount:   atomic.LoadUint64(&m.graphqlDurationCount),
		GraphQLDurationTotalNs: atomic.LoadInt64(&m.graphqlDurationTotalNs),
		CustomersCreated:       atomic.LoadUint64(&m.customersCreated),
		ProductsCreated:        atomic.LoadUint64(&m.productsCreated),
		OrdersCreated:          atomic.LoadUint64(&m.ordersCreated),
		ValidationErrors:       atomic.LoadUint64(&m.validationErrors),
		RateLimited:            atomic.LoadUint64(&m.rateLimited),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	snap.JobRuns = make(map[JobKey]uint64, len(m.jobRuns))
	for k, v := range m.jobRuns {
		snap.JobRuns[k] = v
	}
	snap.JobDurations = make(map[string]JobDuration, len(m.jobDurations))
	for k, v := range m.jobDurations {
		snap.JobDurations[k] = v
	}

	return snap
}

// IncGraphQLRequest counts a GraphQL request by outcome.
func (m *InMemoryRecorder) IncGraphQLRequest(status string) {
	atomic.AddUint64(&m.graphqlRequests, 1)
	if status == StatusFailed {
		atomic.AddUint64(&m.graphqlFailures, 1)
	}
}

// ObserveGraphQLDuration records GraphQL execution duration.
func (m *InMemoryRecorder) ObserveGraphQLDuration(duration time.Duration) {
	atomic.AddUint64(&m.graphqlDurationCount, 1)
	atomic.AddInt64(&m.graphqlDurationTotalNs, duration.Nanoseconds())
}

// IncCustomersCreated adds n to the customer created counter.
func (m *InMemoryRecorder) IncCustomersCreated(n int) {
	if n > 0 {
		atomic.AddUint64(&m.customersCreated, uint64(n))
	}
}

// IncProductCreated increments product created counter.
func (m *InMemoryRecorder) IncProductCreated() {
	atomic.AddUint64(&m.productsCreated, 1)
}

// IncOrderCreated increments order created counter.
func (m *InMemoryRecorder) IncOrderCreated() {
	atomic.AddUint64(&m.ordersCreated, 1)
}

// IncValidationError increments rejected mutation input counter.
func (m *InMemoryRecorder) IncValidationError() {
	atomic.AddUint64(&m.validationErrors, 1)
}

// IncJobRun counts one job run by status.
func (m *InMemoryRecorder) IncJobRun(job, status string) {
	m.mu.Lock()
	m.jobRuns[JobKey{Job: job, Status: status}]++
	m.mu.Unlock()
}

// ObserveJobDuration records a job run duration.
func (m *InMemoryRecorder) ObserveJobDuration(job string, duration time.Duration) {
	m.mu.Lock()
	d := m.jobDurations[job]
	d.Count++
	d.TotalNs += duration.Nanoseconds()
	m.jobDurations[job] = d
	m.mu.Unlock()
}

// IncRateLimited increments the rejected-by-rate-limit counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}
