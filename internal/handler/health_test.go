package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// pinger is a HealthChecker that records the deadline it was given.
type pinger struct {
	err      error
	deadline time.Time
}

func (p *pinger) Ping(ctx context.Context) error {
	p.deadline, _ = ctx.Deadline()
	return p.err
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHealthHandler_Healthz(t *testing.T) {
	// Liveness never touches dependencies.
	h := NewHealthHandler(&pinger{err: errors.New("down")}, nil)

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decodeHealth(t, rec); resp.Status != "ok" || resp.Checks != nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	tests := []struct {
		name       string
		db         HealthChecker
		cache      HealthChecker
		wantCode   int
		wantStatus string
		wantDB     string
		wantRedis  string
	}{
		{
			name:       "sqlite store without redis",
			db:         &pinger{},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantDB:     "ok",
			wantRedis:  "not configured",
		},
		{
			name:       "postgres and redis healthy",
			db:         &pinger{},
			cache:      &pinger{},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantDB:     "ok",
			wantRedis:  "ok",
		},
		{
			name:       "database down",
			db:         &pinger{err: errors.New("connection refused")},
			cache:      &pinger{},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantDB:     "error: connection refused",
			wantRedis:  "ok",
		},
		{
			name:       "redis configured but down",
			db:         &pinger{},
			cache:      &pinger{err: errors.New("i/o timeout")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantDB:     "ok",
			wantRedis:  "error: i/o timeout",
		},
		{
			name:       "no store",
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantDB:     "not configured",
			wantRedis:  "not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.db, tt.cache).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			resp := decodeHealth(t, rec)
			if resp.Status != tt.wantStatus {
				t.Errorf("status field = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Checks["database"] != tt.wantDB {
				t.Errorf("database = %q, want %q", resp.Checks["database"], tt.wantDB)
			}
			if resp.Checks["redis"] != tt.wantRedis {
				t.Errorf("redis = %q, want %q", resp.Checks["redis"], tt.wantRedis)
			}
		})
	}
}

func TestHealthHandler_ReadyzBoundsPings(t *testing.T) {
	db := &pinger{}
	before := time.Now()

	NewHealthHandler(db, nil).Readyz(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if db.deadline.IsZero() {
		t.Fatal("ping context has no deadline")
	}
	if d := db.deadline.Sub(before); d <= 0 || d > readyTimeout+time.Second {
		t.Errorf("ping deadline %v out of range", d)
	}
}
