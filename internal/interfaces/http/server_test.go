package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
)

func TestNewServerDefaults(t *testing.T) {
	mux := http.NewServeMux()
	server := NewServer(config.ServerConfig{Port: 8080}, mux, logging.NewNopLogger())

	if server == nil {
		t.Fatal("server should not be nil")
	}
	if server.srv.Addr != ":8080" {
		t.Errorf("addr = %s, want :8080", server.srv.Addr)
	}
	if server.srv.ReadTimeout != 15*time.Second {
		t.Errorf("read timeout = %s", server.srv.ReadTimeout)
	}
	if server.srv.WriteTimeout != 60*time.Second {
		t.Errorf("write timeout = %s", server.srv.WriteTimeout)
	}
}

func TestServerHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	server := NewServer(config.ServerConfig{Port: 0}, mux, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestServerStop(t *testing.T) {
	server := NewServer(config.ServerConfig{Port: 0, ShutdownTimeout: time.Second}, http.NewServeMux(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		t.Errorf("stop failed: %v", err)
	}
}
