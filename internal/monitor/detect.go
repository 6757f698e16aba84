package monitor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IncidentType identifies a detection rule.
type IncidentType string

const (
	IncidentHighRate         IncidentType = "high_rate"
	IncidentCriticalBurst    IncidentType = "critical_burst"
	IncidentComponentFailure IncidentType = "component_failure"
)

// Incident is a detected anomalous condition over a trailing window. At most
// one unresolved incident per type exists at any time; re-detection while
// open refreshes nothing.
type Incident struct {
	ID            string       `json:"id"`
	Type          IncidentType `json:"type"`
	Severity      Severity     `json:"severity"`
	Message       string       `json:"message"`
	Timestamp     time.Time    `json:"timestamp"` // detection time
	ErrorCount    int          `json:"error_count"`
	AffectedUsers []string     `json:"affected_users"`
	Component     string       `json:"component,omitempty"`

	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
	Resolution string     `json:"resolution,omitempty"`
}

// detector evaluates threshold rules over trailing windows of the store.
type detector struct {
	cfg Config
}

// evaluate runs all rules against the store at time now and returns incidents
// for rules that fired with no open incident of their type. The caller owns
// the open set and the store lock.
func (d *detector) evaluate(store *EventStore, now time.Time, open map[IncidentType]*Incident) []*Incident {
	var fired []*Incident

	if _, active := open[IncidentHighRate]; !active {
		cutoff := now.Add(-d.cfg.HighRateWindow)
		if n := store.countSince(cutoff, nil); n >= d.cfg.HighRateThreshold {
			fired = append(fired, &Incident{
				ID:       uuid.NewString(),
				Type:     IncidentHighRate,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("%d events in the last %s (threshold %d)",
					n, d.cfg.HighRateWindow, d.cfg.HighRateThreshold),
				Timestamp:     now,
				ErrorCount:    n,
				AffectedUsers: store.usersSince(cutoff, nil),
			})
		}
	}

	if _, active := open[IncidentCriticalBurst]; !active {
		cutoff := now.Add(-d.cfg.CriticalBurstWindow)
		isCritical := func(e *Event) bool { return e.Severity == SeverityCritical }
		if n := store.countSince(cutoff, isCritical); n >= d.cfg.CriticalBurstThreshold {
			fired = append(fired, &Incident{
				ID:       uuid.NewString(),
				Type:     IncidentCriticalBurst,
				Severity: SeverityCritical,
				Message: fmt.Sprintf("%d critical events in the last %s (threshold %d)",
					n, d.cfg.CriticalBurstWindow, d.cfg.CriticalBurstThreshold),
				Timestamp:     now,
				ErrorCount:    n,
				AffectedUsers: store.usersSince(cutoff, isCritical),
			})
		}
	}

	if _, active := open[IncidentComponentFailure]; !active {
		cutoff := now.Add(-d.cfg.ComponentFailureWindow)
		isSystem := func(e *Event) bool { return e.Category == CategorySystem }
		if n := store.countSince(cutoff, isSystem); n >= d.cfg.ComponentFailureThreshold {
			component := ""
			if last := store.lastSince(cutoff, isSystem); last != nil {
				component = last.Component
			}
			fired = append(fired, &Incident{
				ID:       uuid.NewString(),
				Type:     IncidentComponentFailure,
				Severity: SeverityCritical,
				Message: fmt.Sprintf("%d system errors in the last %s (threshold %d)",
					n, d.cfg.ComponentFailureWindow, d.cfg.ComponentFailureThreshold),
				Timestamp:     now,
				ErrorCount:    n,
				AffectedUsers: store.usersSince(cutoff, isSystem),
				Component:     component,
			})
		}
	}

	return fired
}
