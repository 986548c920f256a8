package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler(nil).Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		deps       map[string]Pinger
		wantCode   int
		wantStatus string
	}{
		{
			name:       "no dependencies",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "all healthy",
			deps: map[string]Pinger{
				"postgres": PingFunc(func(context.Context) error { return nil }),
				"redis":    PingFunc(func(context.Context) error { return nil }),
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "one unhealthy",
			deps: map[string]Pinger{
				"postgres": PingFunc(func(context.Context) error { return nil }),
				"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			if err := NewHealthHandler(tt.deps).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Fatalf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
			if len(resp.Dependencies) != len(tt.deps) {
				t.Fatalf("expected %d dependencies, got %d", len(tt.deps), len(resp.Dependencies))
			}
			if tt.wantStatus == "unhealthy" && resp.Dependencies["redis"].Error != "connection refused" {
				t.Fatalf("unexpected redis status: %+v", resp.Dependencies["redis"])
			}
		})
	}
}
