package monitor

import (
	"strings"
	"time"
)

// EventStore is a fixed-capacity FIFO buffer of events. Once full, appending
// evicts the single oldest event. Read methods return value copies so callers
// cannot reach the buffer through them.
//
// The store does no locking of its own; the owning engine serializes access.
type EventStore struct {
	buf   []Event
	start int // index of the oldest event
	count int
}

// NewEventStore creates a store holding at most capacity events.
func NewEventStore(capacity int) *EventStore {
	if capacity <= 0 {
		capacity = DefaultConfig().Capacity
	}
	return &EventStore{buf: make([]Event, capacity)}
}

// Append inserts an event, evicting the oldest one if the store is full.
func (s *EventStore) Append(e Event) {
	if s.count < len(s.buf) {
		s.buf[(s.start+s.count)%len(s.buf)] = e
		s.count++
		return
	}
	s.buf[s.start] = e
	s.start = (s.start + 1) % len(s.buf)
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	return s.count
}

// Capacity returns the fixed store capacity.
func (s *EventStore) Capacity() int {
	return len(s.buf)
}

// at returns the i-th stored event in insertion order (0 = oldest).
func (s *EventStore) at(i int) *Event {
	return &s.buf[(s.start+i)%len(s.buf)]
}

// All returns every stored event in insertion order.
func (s *EventStore) All() []Event {
	out := make([]Event, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = *s.at(i)
	}
	return out
}

// ByCategory returns events matching the given category, in insertion order.
func (s *EventStore) ByCategory(c Category) []Event {
	return s.filter(func(e *Event) bool { return e.Category == c })
}

// ByTimeRange returns events with from <= timestamp <= to. An inverted range
// yields an empty result rather than an error.
func (s *EventStore) ByTimeRange(from, to time.Time) []Event {
	if from.After(to) {
		return []Event{}
	}
	return s.filter(func(e *Event) bool {
		return !e.Timestamp.Before(from) && !e.Timestamp.After(to)
	})
}

// ByUser returns events attributed to the given user.
func (s *EventStore) ByUser(userID string) []Event {
	return s.filter(func(e *Event) bool { return e.UserID == userID })
}

// Search returns events whose message, stack or endpoint contains the query,
// case-insensitively.
func (s *EventStore) Search(query string) []Event {
	q := strings.ToLower(query)
	return s.filter(func(e *Event) bool {
		return strings.Contains(strings.ToLower(e.Message), q) ||
			strings.Contains(strings.ToLower(e.Stack), q) ||
			strings.Contains(strings.ToLower(e.Endpoint), q)
	})
}

func (s *EventStore) filter(match func(*Event) bool) []Event {
	out := []Event{}
	for i := 0; i < s.count; i++ {
		if e := s.at(i); match(e) {
			out = append(out, *e)
		}
	}
	return out
}

// find returns a pointer into the buffer for the event with the given id, or
// nil. Used by the engine to apply set-once resolution metadata.
func (s *EventStore) find(id string) *Event {
	for i := s.count - 1; i >= 0; i-- {
		if e := s.at(i); e.ID == id {
			return e
		}
	}
	return nil
}

// countSince counts events with timestamp >= cutoff that satisfy match.
// A nil match counts every event in the window.
func (s *EventStore) countSince(cutoff time.Time, match func(*Event) bool) int {
	n := 0
	for i := 0; i < s.count; i++ {
		e := s.at(i)
		if e.Timestamp.Before(cutoff) {
			continue
		}
		if match == nil || match(e) {
			n++
		}
	}
	return n
}

// lastSince returns the most recently inserted event with timestamp >= cutoff
// satisfying match, or nil.
func (s *EventStore) lastSince(cutoff time.Time, match func(*Event) bool) *Event {
	for i := s.count - 1; i >= 0; i-- {
		e := s.at(i)
		if e.Timestamp.Before(cutoff) {
			continue
		}
		if match == nil || match(e) {
			return e
		}
	}
	return nil
}

// usersSince collects distinct non-empty user IDs from events with
// timestamp >= cutoff satisfying match.
func (s *EventStore) usersSince(cutoff time.Time, match func(*Event) bool) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for i := 0; i < s.count; i++ {
		e := s.at(i)
		if e.Timestamp.Before(cutoff) || e.UserID == "" {
			continue
		}
		if match != nil && !match(e) {
			continue
		}
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		out = append(out, e.UserID)
	}
	return out
}
