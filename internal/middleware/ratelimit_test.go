package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/graphcrm/graphcrm/internal/cache"
	"github.com/graphcrm/graphcrm/internal/metrics"
)

// countingLimiter allows the first n requests per IP.
type countingLimiter struct {
	mu    sync.Mutex
	n     int
	seen  map[string]int
	err   error
	calls int
}

func (l *countingLimiter) CheckIPRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	if l.seen == nil {
		l.seen = map[string]int{}
	}
	l.seen[ip]++
	used := l.seen[ip]

	return &cache.RateLimitResult{
		Allowed:    used <= l.n,
		Remaining:  int64(max(l.n-used, 0)),
		ResetAt:    time.Unix(1_700_000_000, 0),
		RetryAfter: 2 * time.Second,
	}, nil
}

func newRateLimited(limiter IPLimiter, rec metrics.Recorder, enabled bool) http.Handler {
	return RateLimitIP(RateLimitConfig{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Limiter: limiter,
		Metrics: rec,
		Enabled: enabled,
		RPS:     1,
		Burst:   2,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimitIP(t *testing.T) {
	t.Parallel()

	limiter := &countingLimiter{n: 2}
	rec := metrics.NewInMemory()
	h := newRateLimited(limiter, rec, true)

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.RemoteAddr = "192.0.2.10:4567"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}

	if got := last.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
	if got := last.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want 2", got)
	}
	if !strings.Contains(last.Body.String(), `"code":"RATE_LIMITED"`) {
		t.Errorf("body = %s", last.Body.String())
	}
	if limiter.seen["192.0.2.10"] != 3 {
		t.Errorf("limiter keyed on %v, want host without port", limiter.seen)
	}
	if got := rec.Snapshot().RateLimited; got != 1 {
		t.Errorf("RateLimited = %d, want 1", got)
	}
}

func TestRateLimitIP_FailOpen(t *testing.T) {
	t.Parallel()

	h := newRateLimited(&countingLimiter{err: errors.New("redis down")}, nil, true)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimitIP_Disabled(t *testing.T) {
	t.Parallel()

	limiter := &countingLimiter{n: 0}
	h := newRateLimited(limiter, nil, false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", nil))
	if rec.Code != http.StatusOK || limiter.calls != 0 {
		t.Errorf("status = %d, calls = %d", rec.Code, limiter.calls)
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "10.1.2.3:5555", nil, "10.1.2.3"},
		{"remote addr without port", "10.1.2.3", nil, "10.1.2.3"},
		{"forwarded chain", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"ipv6", "[::1]:8080", nil, "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
