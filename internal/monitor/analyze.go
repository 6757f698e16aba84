package monitor

import (
	"sort"
	"time"
)

const (
	hourlyBuckets = 24
	dailyBuckets  = 7
)

// TopError is one message group in a snapshot's top-errors list.
type TopError struct {
	Message  string    `json:"message"`
	Count    int       `json:"count"`
	Percent  float64   `json:"percent"`
	LastSeen time.Time `json:"last_seen"`
}

// Snapshot is the derived read model produced by Analyze: aggregate counts,
// trends and rates over the events it was given.
type Snapshot struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Total           int              `json:"total"`
	ByCategory      map[Category]int `json:"by_category"`
	BySeverity      map[Severity]int `json:"by_severity"`
	TopErrors       []TopError       `json:"top_errors"`
	HourlyTrend     []int            `json:"hourly_trend"` // 24 buckets over the trailing hour
	DailyTrend      []int            `json:"daily_trend"`  // 7 buckets over the trailing day
	AffectedUsers   []string         `json:"affected_users"`
	EventsPerMinute float64          `json:"events_per_minute"`
	MTTRMinutes     float64          `json:"mttr_minutes"`
}

// Analyze computes a snapshot over the given events relative to now. It is a
// pure function over its inputs.
func Analyze(events []Event, now time.Time, cfg Config) Snapshot {
	cfg = cfg.withDefaults()

	snap := Snapshot{
		GeneratedAt: now,
		Total:       len(events),
		ByCategory:  make(map[Category]int),
		BySeverity:  make(map[Severity]int),
		HourlyTrend: make([]int, hourlyBuckets),
		DailyTrend:  make([]int, dailyBuckets),
	}

	rateCutoff := now.Add(-cfg.RateWindow)
	rateCount := 0

	type group struct {
		count    int
		lastSeen time.Time
	}
	groups := make(map[string]*group)
	order := []string{} // first-appearance order, for stable ties

	seenUsers := map[string]struct{}{}
	users := []string{}

	var resolvedTotal time.Duration
	resolvedCount := 0

	for i := range events {
		e := &events[i]

		snap.ByCategory[e.Category]++
		snap.BySeverity[e.Severity]++

		if !e.Timestamp.Before(rateCutoff) && !e.Timestamp.After(now) {
			rateCount++
		}

		g, ok := groups[e.Message]
		if !ok {
			g = &group{}
			groups[e.Message] = g
			order = append(order, e.Message)
		}
		g.count++
		if e.Timestamp.After(g.lastSeen) {
			g.lastSeen = e.Timestamp
		}

		bucketize(snap.HourlyTrend, e.Timestamp, now, time.Hour)
		bucketize(snap.DailyTrend, e.Timestamp, now, 24*time.Hour)

		if e.UserID != "" {
			if _, ok := seenUsers[e.UserID]; !ok {
				seenUsers[e.UserID] = struct{}{}
				users = append(users, e.UserID)
			}
		}

		if e.Resolved && e.ResolvedAt != nil {
			resolvedTotal += e.ResolvedAt.Sub(e.Timestamp)
			resolvedCount++
		}
	}

	snap.EventsPerMinute = float64(rateCount) / cfg.RateWindow.Minutes()

	top := make([]TopError, 0, len(order))
	for _, msg := range order {
		g := groups[msg]
		pct := 0.0
		if snap.Total > 0 {
			pct = float64(g.count) / float64(snap.Total) * 100
		}
		top = append(top, TopError{Message: msg, Count: g.count, Percent: pct, LastSeen: g.lastSeen})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > cfg.TopErrorLimit {
		top = top[:cfg.TopErrorLimit]
	}
	snap.TopErrors = top

	snap.AffectedUsers = users

	if resolvedCount > 0 {
		snap.MTTRMinutes = resolvedTotal.Minutes() / float64(resolvedCount)
	}

	return snap
}

// bucketize assigns ts to one of len(buckets) equal slots covering
// [now-span, now]. Out-of-range timestamps are ignored; in-range indexes are
// clamped to the slot bounds.
func bucketize(buckets []int, ts, now time.Time, span time.Duration) {
	start := now.Add(-span)
	if ts.Before(start) || ts.After(now) {
		return
	}
	width := span / time.Duration(len(buckets))
	idx := int(ts.Sub(start) / width)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(buckets) {
		idx = len(buckets) - 1
	}
	buckets[idx]++
}
