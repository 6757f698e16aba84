package monitor

import (
	"fmt"
	"testing"
	"time"
)

func detectFixture(t *testing.T) (*detector, *EventStore, time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &detector{cfg: DefaultConfig()}, NewEventStore(1000), now
}

func fillEvents(s *EventStore, n int, ts time.Time, mutate func(i int, e *Event)) {
	for i := 0; i < n; i++ {
		e := Event{
			ID:        fmt.Sprintf("evt-%d", s.Len()+1),
			Timestamp: ts,
			Category:  CategoryJavaScript,
			Severity:  SeverityMedium,
			Message:   "boom",
		}
		if mutate != nil {
			mutate(i, &e)
		}
		s.Append(e)
	}
}

func TestDetect_HighRateBoundary(t *testing.T) {
	d, s, now := detectFixture(t)
	open := map[IncidentType]*Incident{}

	// 49 events in the window: below the >= 50 threshold.
	fillEvents(s, 49, now.Add(-time.Minute), nil)
	if fired := d.evaluate(s, now, open); len(fired) != 0 {
		t.Fatalf("49 events fired %d incidents, want 0", len(fired))
	}

	// The 50th crosses it.
	fillEvents(s, 1, now.Add(-time.Minute), nil)
	fired := d.evaluate(s, now, open)
	if len(fired) != 1 {
		t.Fatalf("50 events fired %d incidents, want 1", len(fired))
	}
	inc := fired[0]
	if inc.Type != IncidentHighRate {
		t.Errorf("Type = %q, want high_rate", inc.Type)
	}
	if inc.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want high", inc.Severity)
	}
	if inc.ErrorCount != 50 {
		t.Errorf("ErrorCount = %d, want 50", inc.ErrorCount)
	}
}

func TestDetect_HighRateWindowExpiry(t *testing.T) {
	d, s, now := detectFixture(t)

	// 50 events, but older than the 5 minute window.
	fillEvents(s, 50, now.Add(-6*time.Minute), nil)
	if fired := d.evaluate(s, now, map[IncidentType]*Incident{}); len(fired) != 0 {
		t.Fatalf("stale events fired %d incidents, want 0", len(fired))
	}
}

func TestDetect_OpenIncidentSuppressesRule(t *testing.T) {
	d, s, now := detectFixture(t)
	fillEvents(s, 60, now.Add(-time.Minute), nil)

	open := map[IncidentType]*Incident{
		IncidentHighRate: {ID: "inc-1", Type: IncidentHighRate},
	}
	if fired := d.evaluate(s, now, open); len(fired) != 0 {
		t.Fatalf("rule fired %d incidents while one is open, want 0", len(fired))
	}
}

func TestDetect_CriticalBurst(t *testing.T) {
	d, s, now := detectFixture(t)

	fillEvents(s, 4, now.Add(-time.Minute), func(i int, e *Event) {
		e.Severity = SeverityCritical
		e.UserID = fmt.Sprintf("u-%d", i)
	})
	if fired := d.evaluate(s, now, map[IncidentType]*Incident{}); len(fired) != 0 {
		t.Fatalf("4 criticals fired %d incidents, want 0", len(fired))
	}

	fillEvents(s, 1, now.Add(-time.Minute), func(_ int, e *Event) {
		e.Severity = SeverityCritical
		e.UserID = "u-0"
	})
	fired := d.evaluate(s, now, map[IncidentType]*Incident{})
	if len(fired) != 1 {
		t.Fatalf("5 criticals fired %d incidents, want 1", len(fired))
	}
	inc := fired[0]
	if inc.Type != IncidentCriticalBurst || inc.Severity != SeverityCritical {
		t.Errorf("got %q/%q, want critical_burst/critical", inc.Type, inc.Severity)
	}
	if len(inc.AffectedUsers) != 4 {
		t.Errorf("AffectedUsers = %v, want 4 distinct users", inc.AffectedUsers)
	}
}

func TestDetect_ComponentFailure(t *testing.T) {
	d, s, now := detectFixture(t)

	fillEvents(s, 9, now.Add(-5*time.Minute), func(_ int, e *Event) {
		e.Category = CategorySystem
		e.Severity = SeverityHigh
		e.Component = "cache"
	})
	if fired := d.evaluate(s, now, map[IncidentType]*Incident{}); len(fired) != 0 {
		t.Fatalf("9 system errors fired %d incidents, want 0", len(fired))
	}

	// The tenth, most recent, names a different component; that one wins.
	fillEvents(s, 1, now.Add(-time.Minute), func(_ int, e *Event) {
		e.Category = CategorySystem
		e.Severity = SeverityHigh
		e.Component = "database"
	})
	fired := d.evaluate(s, now, map[IncidentType]*Incident{})
	if len(fired) != 1 {
		t.Fatalf("10 system errors fired %d incidents, want 1", len(fired))
	}
	inc := fired[0]
	if inc.Type != IncidentComponentFailure {
		t.Errorf("Type = %q, want component_failure", inc.Type)
	}
	if inc.Severity != SeverityCritical {
		t.Errorf("Severity = %q, want critical", inc.Severity)
	}
	if inc.Component != "database" {
		t.Errorf("Component = %q, want database", inc.Component)
	}
	if inc.ErrorCount != 10 {
		t.Errorf("ErrorCount = %d, want 10", inc.ErrorCount)
	}
}

func TestDetect_IncidentIDsUnique(t *testing.T) {
	d, s, now := detectFixture(t)
	fillEvents(s, 60, now.Add(-time.Minute), nil)

	a := d.evaluate(s, now, map[IncidentType]*Incident{})
	b := d.evaluate(s, now, map[IncidentType]*Incident{})
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one incident per evaluation")
	}
	if a[0].ID == b[0].ID {
		t.Errorf("incident IDs collide: %s", a[0].ID)
	}
}
