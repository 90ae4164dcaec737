package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ratelim"
	"ratelim/internal/config"
	"ratelim/internal/events"
	"ratelim/internal/model"
	"ratelim/internal/pacer"
)

func testServer(t *testing.T, cooldown time.Duration) (*Server, *ratelim.FakeClock) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratelimd.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	clock := ratelim.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ev := events.NewStore(100)
	p := pacer.NewWithClock(
		config.PacerConfig{Cooldown: cooldown, CommandTimeout: time.Second, SummaryInterval: time.Minute},
		func(context.Context) error { return nil },
		nil, nil, ev, nil, nil, clock,
	)
	return NewServer(mgr, pacer.NewHandle(p), ev, nil, nil, "test"), clock
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, req)
	return rr
}

func TestTriggerFiresThenRejects(t *testing.T) {
	s, _ := testServer(t, 30*time.Second)

	rr := doRequest(t, s, http.MethodPost, "/trigger?source=test")
	if rr.Code != http.StatusOK {
		t.Fatalf("first trigger status = %d", rr.Code)
	}
	var res model.TriggerResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Outcome != model.OutcomeFired || res.Firing == nil || res.Firing.Source != "test" {
		t.Fatalf("result = %+v", res)
	}

	rr = doRequest(t, s, http.MethodPost, "/trigger")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second trigger status = %d", rr.Code)
	}
	if ra := rr.Header().Get("Retry-After"); ra != "30" {
		t.Fatalf("Retry-After = %q", ra)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Outcome != model.OutcomeSuppressed || res.Remaining != 30*time.Second {
		t.Fatalf("result = %+v", res)
	}
}

func TestTriggerAfterCooldown(t *testing.T) {
	s, clock := testServer(t, time.Second)
	doRequest(t, s, http.MethodPost, "/trigger")
	clock.Advance(time.Second)
	rr := doRequest(t, s, http.MethodPost, "/trigger")
	if rr.Code != http.StatusOK {
		t.Fatalf("trigger after cooldown status = %d", rr.Code)
	}
}

func TestTriggerMethodNotAllowed(t *testing.T) {
	s, _ := testServer(t, time.Second)
	if rr := doRequest(t, s, http.MethodGet, "/trigger"); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /trigger status = %d", rr.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, clock := testServer(t, time.Second)
	doRequest(t, s, http.MethodPost, "/trigger")
	clock.Advance(250 * time.Millisecond)

	rr := doRequest(t, s, http.MethodGet, "/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Fatalf("response = %+v", resp)
	}
	if !resp.Pacer.Armed || resp.Pacer.Firings != 1 {
		t.Fatalf("pacer status = %+v", resp.Pacer)
	}
	if resp.Pacer.Remaining != 750*time.Millisecond {
		t.Fatalf("remaining = %s", resp.Pacer.Remaining)
	}
}

func TestEventsEndpoint(t *testing.T) {
	s, clock := testServer(t, time.Second)
	doRequest(t, s, http.MethodPost, "/trigger")
	clock.Advance(time.Second)
	doRequest(t, s, http.MethodPost, "/trigger")

	rr := doRequest(t, s, http.MethodGet, "/events?limit=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("events status = %d", rr.Code)
	}
	var firings []model.Firing
	if err := json.Unmarshal(rr.Body.Bytes(), &firings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(firings) != 1 || firings[0].Seq != 2 {
		t.Fatalf("firings = %+v", firings)
	}

	if rr := doRequest(t, s, http.MethodGet, "/events?limit=bogus"); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t, time.Second)
	if rr := doRequest(t, s, http.MethodGet, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}
}
