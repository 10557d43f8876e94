package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/nutrisense/internal/infra/logging"
)

type healthCheckerStub struct{ err error }

func (s healthCheckerStub) HealthCheck(context.Context) error { return s.err }

func TestHealthHandler_Live(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewHealthHandler(nil, nil, logging.Discard()).Live(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != `{"status":"ok"}` {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewHealthHandler(healthCheckerStub{}, nil, logging.Discard()).Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h := NewHealthHandler(healthCheckerStub{err: errors.New("model unreachable")}, nil, logging.Discard())
		h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"degraded"`) {
			t.Fatalf("unexpected body %q", rr.Body.String())
		}
	})
}

func TestHealthHandler_Version(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewHealthHandler(nil, map[string]string{"version": "1.2.3", "built": "2026-01-01"}, logging.Discard()).Version(rr, httptest.NewRequest(http.MethodGet, "/version", nil))
	body := rr.Body.String()
	if !strings.Contains(body, `"version":"1.2.3"`) || !strings.Contains(body, `"built":"2026-01-01"`) {
		t.Fatalf("unexpected body %q", body)
	}
}
