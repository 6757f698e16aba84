package monitor

import (
	"fmt"
	"testing"
	"time"
)

func testEvent(seq int, ts time.Time) Event {
	return Event{
		ID:        fmt.Sprintf("evt-%d", seq),
		Timestamp: ts,
		Category:  CategoryJavaScript,
		Severity:  SeverityMedium,
		Message:   fmt.Sprintf("error %d", seq),
	}
}

func TestEventStore_Bounded(t *testing.T) {
	const capacity = 10000
	s := NewEventStore(capacity)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= capacity+50; i++ {
		s.Append(testEvent(i, base.Add(time.Duration(i)*time.Millisecond)))
	}

	if s.Len() != capacity {
		t.Fatalf("Len() = %d, want %d", s.Len(), capacity)
	}

	all := s.All()
	if len(all) != capacity {
		t.Fatalf("len(All()) = %d, want %d", len(all), capacity)
	}
	// The retained events are exactly the most recent 10000, in order.
	if all[0].ID != "evt-51" {
		t.Errorf("oldest retained = %s, want evt-51", all[0].ID)
	}
	if all[capacity-1].ID != fmt.Sprintf("evt-%d", capacity+50) {
		t.Errorf("newest retained = %s, want evt-%d", all[capacity-1].ID, capacity+50)
	}
	for i := 1; i < len(all); i++ {
		if !all[i].Timestamp.After(all[i-1].Timestamp) {
			t.Fatalf("events out of order at index %d", i)
		}
	}
}

func TestEventStore_SnapshotIsCopy(t *testing.T) {
	s := NewEventStore(10)
	s.Append(testEvent(1, time.Now()))

	all := s.All()
	all[0].Message = "mutated"

	if got := s.All()[0].Message; got != "error 1" {
		t.Errorf("store mutated through snapshot: %q", got)
	}
}

func TestEventStore_ByTimeRange(t *testing.T) {
	s := NewEventStore(10)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.Append(testEvent(i, base.Add(time.Duration(i)*time.Minute)))
	}

	got := s.ByTimeRange(base.Add(1*time.Minute), base.Add(3*time.Minute))
	if len(got) != 3 {
		t.Errorf("inclusive range returned %d events, want 3", len(got))
	}

	// Inverted range is empty, not an error.
	if got := s.ByTimeRange(base.Add(time.Hour), base); len(got) != 0 {
		t.Errorf("inverted range returned %d events, want 0", len(got))
	}
}

func TestEventStore_Queries(t *testing.T) {
	s := NewEventStore(10)
	now := time.Now()
	s.Append(Event{ID: "evt-1", Timestamp: now, Category: CategoryAPI, Message: "Timeout calling service", Endpoint: "/api/Courses"})
	s.Append(Event{ID: "evt-2", Timestamp: now, Category: CategorySystem, Message: "disk full", UserID: "u-9", Stack: "at WriteBlock"})
	s.Append(Event{ID: "evt-3", Timestamp: now, Category: CategoryAPI, Message: "bad gateway", UserID: "u-9"})

	if got := s.ByCategory(CategoryAPI); len(got) != 2 {
		t.Errorf("ByCategory(api) = %d events, want 2", len(got))
	}
	if got := s.ByUser("u-9"); len(got) != 2 {
		t.Errorf("ByUser(u-9) = %d events, want 2", len(got))
	}

	// Case-insensitive over message, stack and endpoint.
	if got := s.Search("TIMEOUT"); len(got) != 1 || got[0].ID != "evt-1" {
		t.Errorf("Search(TIMEOUT) = %v", got)
	}
	if got := s.Search("writeblock"); len(got) != 1 || got[0].ID != "evt-2" {
		t.Errorf("Search(writeblock) = %v", got)
	}
	if got := s.Search("courses"); len(got) != 1 || got[0].ID != "evt-1" {
		t.Errorf("Search(courses) = %v", got)
	}
	if got := s.Search("nothing here"); len(got) != 0 {
		t.Errorf("Search(miss) = %d events, want 0", len(got))
	}
}
