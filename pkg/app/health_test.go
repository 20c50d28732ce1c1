package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"

	"jdpanel/pkg/contracts"
	"jdpanel/pkg/logger"
)

type staticStats struct{}

func (staticStats) Name() string { return "kafka" }
func (staticStats) Stats() any   { return map[string]int{"published": 3} }

func serve(t *testing.T, h *HealthHandler, path string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	router := httprouter.New()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rec, body
}

func TestReady(t *testing.T) {
	ok := CheckFunc("postgres", func(context.Context) error { return nil })
	down := CheckFunc("mongo", func(context.Context) error { return errors.New("no primary") })

	tests := []struct {
		name       string
		checks     []contracts.HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no dependencies", nil, http.StatusOK, "ready"},
		{"all healthy", []contracts.HealthChecker{ok}, http.StatusOK, "ready"},
		{"one down", []contracts.HealthChecker{ok, down}, http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks, nil, logger.Discard())
			rec, body := serve(t, h, "/ready")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body.Status != tt.wantBody {
				t.Errorf("body status = %q, want %q", body.Status, tt.wantBody)
			}
			for _, c := range tt.checks {
				if _, ok := body.Dependencies[c.Name()]; !ok {
					t.Errorf("dependency %q missing from response", c.Name())
				}
			}
		})
	}
}

func TestHealth_IncludesStats(t *testing.T) {
	h := NewHealthHandler(nil, []contracts.StatsProvider{staticStats{}}, logger.Discard())
	rec, body := serve(t, h, "/health")

	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("unexpected response %d %+v", rec.Code, body)
	}
	if _, ok := body.Stats["kafka"]; !ok {
		t.Errorf("stats missing kafka entry: %v", body.Stats)
	}
}
