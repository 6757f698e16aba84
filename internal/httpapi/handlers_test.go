package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/HerbHall/faultline/internal/monitor"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng := monitor.New(monitor.Config{}, monitor.WithLogger(zaptest.NewLogger(t)))
	return New(":0", eng, zaptest.NewLogger(t))
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestTrackAndStats(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/events",
		`{"category":"system","component":"database","message":"connection refused"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/events = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var ev monitor.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Severity != monitor.SeverityHigh {
		t.Errorf("severity = %q, want high", ev.Severity)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/stats = %d", rec.Code)
	}
	var stats monitor.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalEvents != 1 {
		t.Errorf("TotalEvents = %d, want 1", stats.TotalEvents)
	}
}

func TestTrackUnknownCategory(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/events",
		`{"category":"backend","message":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category = %d, want 400", rec.Code)
	}
}

func TestListEventsByCategory(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/events",
		`{"category":"api","endpoint":"/api/lessons","status_code":500,"message":"boom"}`)
	doRequest(t, s, http.MethodPost, "/api/events",
		`{"category":"javascript","message":"undefined is not a function"}`)

	rec := doRequest(t, s, http.MethodGet, "/api/events?category=api", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET events = %d", rec.Code)
	}
	var events []monitor.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 || events[0].Endpoint != "/api/lessons" {
		t.Errorf("filtered events = %v", events)
	}
}

func TestExportFormats(t *testing.T) {
	s := newTestServer(t)
	doRequest(t, s, http.MethodPost, "/api/events",
		`{"category":"javascript","message":"boom"}`)

	rec := doRequest(t, s, http.MethodGet, "/api/export?format=csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("csv export = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "timestamp,type,message") {
		t.Errorf("csv header missing: %q", rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/export?format=xml", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("xml export = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "xml") {
		t.Errorf("error should name the format: %q", rec.Body.String())
	}
}

func TestResolveIncidentRoundTrip(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 10; i++ {
		doRequest(t, s, http.MethodPost, "/api/events",
			`{"category":"system","component":"storage","message":"write failed"}`)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/incidents", "")
	var incidents []monitor.Incident
	if err := json.Unmarshal(rec.Body.Bytes(), &incidents); err != nil {
		t.Fatalf("decode incidents: %v", err)
	}
	if len(incidents) != 1 {
		t.Fatalf("open incidents = %d, want 1", len(incidents))
	}

	rec = doRequest(t, s, http.MethodPost, "/api/incidents/"+incidents[0].ID+"/resolve",
		`{"resolution":"storage node replaced","resolved_by":"ops"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("resolve = %d, want 204", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/incidents", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &incidents); err != nil {
		t.Fatalf("decode incidents: %v", err)
	}
	if len(incidents) != 0 {
		t.Errorf("open incidents after resolve = %d, want 0", len(incidents))
	}
}
