package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/pkg/errors"
)

func TestLiveness(t *testing.T) {
	h := NewHealthHandler(nil, logging.NewNopLogger())

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestReadinessAllUp(t *testing.T) {
	h := NewHealthHandler(map[string]ComponentChecker{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return nil },
	}, logging.NewNopLogger())

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Components["postgres"] != "up" || resp.Components["redis"] != "up" {
		t.Errorf("components = %v", resp.Components)
	}
}

func TestReadinessComponentDown(t *testing.T) {
	h := NewHealthHandler(map[string]ComponentChecker{
		"postgres": func(context.Context) error { return nil },
		"kafka": func(context.Context) error {
			return errors.New(errors.ErrCodeMessageQueueError, "broker unreachable")
		},
	}, logging.NewNopLogger())

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Components["kafka"] != "down" {
		t.Errorf("components = %v", resp.Components)
	}
	if resp.Components["postgres"] != "up" {
		t.Errorf("components = %v", resp.Components)
	}
}

func TestReadinessNoCheckers(t *testing.T) {
	h := NewHealthHandler(nil, logging.NewNopLogger())

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
