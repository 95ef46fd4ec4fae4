package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relayctl/relayctl/internal/config"
	"github.com/relayctl/relayctl/internal/pidstore"
	"github.com/relayctl/relayctl/internal/registry"
	"github.com/relayctl/relayctl/internal/supervisor"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Home:   t.TempDir(),
		Router: config.RouterConfig{Command: "sleep 30"},
		Providers: []config.ProviderConfig{
			{Name: "openai", Enabled: false, Command: "relay-provider-openai"},
		},
	}
	reg := registry.New(cfg)
	sup := supervisor.New(reg, pidstore.New(cfg.PidDir()), supervisor.Options{
		HealthTimeout: 200 * time.Millisecond,
	})
	return NewRouter(sup).Handler()
}

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestHandler(t), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status: %d", rec.Code)
	}
}

func TestStatusListsAllServices(t *testing.T) {
	rec := do(t, newTestHandler(t), "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: %d, body: %s", rec.Code, rec.Body.String())
	}
	var reports []supervisor.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %+v", reports)
	}
	if reports[0].Service != registry.RouterName || !reports[0].Enabled {
		t.Fatalf("router report: %+v", reports[0])
	}
	// nothing was started, so every service reports stopped
	for _, r := range reports {
		if r.State.String() != "stopped" {
			t.Fatalf("expected stopped, got %+v", r)
		}
	}
}

func TestStatusSingleService(t *testing.T) {
	h := newTestHandler(t)
	rec := do(t, h, "/status/openai")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: %d", rec.Code)
	}
	var report supervisor.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Service != "openai" || report.Enabled {
		t.Fatalf("report: %+v", report)
	}
}

func TestStatusUnknownService(t *testing.T) {
	rec := do(t, newTestHandler(t), "/status/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestHandler(t), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
}

func TestNoMutatingRoutes(t *testing.T) {
	h := newTestHandler(t)
	for _, path := range []string{"/start", "/stop", "/restart"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("POST %s should not exist, got %d", path, rec.Code)
		}
	}
}
