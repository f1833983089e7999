package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/graphcrm/graphcrm/internal/metrics"
)

// jobStatuses are emitted for every job so series never disappear.
var jobStatuses = []string{metrics.StatusSuccess, metrics.StatusFailed, metrics.StatusSkipped}

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// expo builds a Prometheus text exposition.
type expo struct {
	bytes.Buffer
}

// family writes the HELP and TYPE header of a metric.
func (e *expo) family(name, kind, help string) {
	fmt.Fprintf(e, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func (e *expo) sample(format string, args ...any) {
	fmt.Fprintf(e, format+"\n", args...)
}

// Metrics returns metrics in Prometheus exposition format.
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	snap := h.snapshotter.Snapshot()

	var e expo
	e.family("graphcrm_graphql_requests_total", "counter", "GraphQL requests by outcome.")
	e.sample(`graphcrm_graphql_requests_total{status="success"} %d`, snap.GraphQLRequests-snap.GraphQLFailures)
	e.sample(`graphcrm_graphql_requests_total{status="failed"} %d`, snap.GraphQLFailures)

	e.family("graphcrm_graphql_duration_seconds", "summary", "GraphQL request latency.")
	e.sample("graphcrm_graphql_duration_seconds_count %d", snap.GraphQLDurationCount)
	e.sample("graphcrm_graphql_duration_seconds_sum %.6f", seconds(snap.GraphQLDurationTotalNs))

	for _, c := range []struct {
		name, help string
		value      uint64
	}{
		{"graphcrm_customers_created_total", "Customers created.", snap.CustomersCreated},
		{"graphcrm_products_created_total", "Products created.", snap.ProductsCreated},
		{"graphcrm_orders_created_total", "Orders created.", snap.OrdersCreated},
		{"graphcrm_validation_errors_total", "Mutations rejected by validation.", snap.ValidationErrors},
		{"graphcrm_rate_limited_total", "Requests refused by the rate limiter.", snap.RateLimited},
	} {
		e.family(c.name, "counter", c.help)
		e.sample("%s %d", c.name, c.value)
	}

	jobs := snap.JobNames()
	if len(jobs) > 0 {
		e.family("graphcrm_job_runs_total", "counter", "Maintenance job runs by outcome.")
		for _, job := range jobs {
			for _, status := range jobStatuses {
				e.sample("graphcrm_job_runs_total{job=%q,status=%q} %d",
					job, status, snap.JobRuns[metrics.JobKey{Job: job, Status: status}])
			}
		}
		e.family("graphcrm_job_duration_seconds", "summary", "Maintenance job run time.")
		for _, job := range jobs {
			d := snap.JobDurations[job]
			e.sample("graphcrm_job_duration_seconds_count{job=%q} %d", job, d.Count)
			e.sample("graphcrm_job_duration_seconds_sum{job=%q} %.6f", job, seconds(d.TotalNs))
		}
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = e.WriteTo(w)
}

func seconds(ns int64) float64 {
	return float64(ns) / 1e9
}
