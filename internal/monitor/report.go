package monitor

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Export formats accepted by Export.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Recommendation is rule-derived advice attached to a report.
type Recommendation struct {
	Priority string `json:"priority"` // "high", "medium", "low"
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Summary is the headline block of a report.
type Summary struct {
	TotalEvents     int     `json:"total_events"`
	EventsPerMinute float64 `json:"events_per_minute"`
	CriticalCount   int     `json:"critical_count"`
	ResolvedCount   int     `json:"resolved_count"`
	MTTRMinutes     float64 `json:"mttr_minutes"`
}

// Report bundles the summary, the full analysis snapshot, currently open
// incidents and prioritized recommendations.
type Report struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Summary         Summary          `json:"summary"`
	Analysis        Snapshot         `json:"analysis"`
	Incidents       []Incident       `json:"incidents"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Stats is the condensed view served by Statistics.
type Stats struct {
	TotalEvents       int              `json:"total_events"`
	EventsPerMinute   float64          `json:"events_per_minute"`
	MTTRMinutes       float64          `json:"mttr_minutes"`
	TopCategories     map[Category]int `json:"top_categories"`
	OpenIncidents     int              `json:"open_incidents"`
	ResolvedIncidents int              `json:"resolved_incidents"`
}

var priorityRank = map[string]int{"high": 0, "medium": 1, "low": 2}

// buildRecommendations evaluates every advice rule against the snapshot.
// All rules are independent; ordering is by priority, stable for ties.
func buildRecommendations(snap Snapshot) []Recommendation {
	recs := []Recommendation{}

	if snap.EventsPerMinute > 5 {
		recs = append(recs, Recommendation{
			Priority: "high",
			Category: "Performance",
			Message: fmt.Sprintf("event rate is %.1f/min; investigate the error spike before it degrades the platform",
				snap.EventsPerMinute),
		})
	}

	if snap.ByCategory[CategoryAuth] > 10 {
		recs = append(recs, Recommendation{
			Priority: "medium",
			Category: "Security",
			Message: fmt.Sprintf("%d authentication failures recorded; review for credential stuffing or lockout issues",
				snap.ByCategory[CategoryAuth]),
		})
	}

	if snap.MTTRMinutes > 60 {
		recs = append(recs, Recommendation{
			Priority: "medium",
			Category: "Process",
			Message: fmt.Sprintf("mean time to resolution is %.0f minutes; tighten the triage and escalation process",
				snap.MTTRMinutes),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
	return recs
}

// exportSnapshot is the JSON export envelope.
type exportSnapshot struct {
	ExportedAt time.Time  `json:"exported_at"`
	Events     []Event    `json:"events"`
	Analysis   Snapshot   `json:"analysis"`
	Incidents  []Incident `json:"incidents"`
}

func exportJSON(snap exportSnapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	return string(data), nil
}

var csvHeader = []string{"timestamp", "type", "message", "severity", "userId", "endpoint", "statusCode"}

func exportCSV(events []Event) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for i := range events {
		e := &events[i]
		status := ""
		if e.StatusCode != 0 {
			status = strconv.Itoa(e.StatusCode)
		}
		row := []string{
			strconv.FormatInt(e.Timestamp.UnixMilli(), 10),
			string(e.Category),
			e.Message,
			string(e.Severity),
			e.UserID,
			e.Endpoint,
			status,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return sb.String(), nil
}
