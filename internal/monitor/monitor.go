// Package monitor implements the observability incident engine: bounded
// event ingestion, deterministic severity classification, sliding-window
// analysis, threshold incident detection with per-type dedup, cooldown-gated
// alert fan-out and incident lifecycle management.
//
// The engine is call-driven. All mutating operations serialize through one
// mutex; read operations copy the event list under the same lock and compute
// outside it. Periodic re-evaluation (polling DetectIncidents) is the host's
// responsibility.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/faultline/internal/event"
)

// Metric names reported through the host MetricsSink.
const (
	MetricEventsTracked = "monitor.events.tracked"
	MetricAuthFailures  = "monitor.auth.failures"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBus sets the event bus the engine publishes lifecycle events on.
func WithBus(bus event.Publisher) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithMetricsSink sets the host metrics sink. Defaults to NopSink.
func WithMetricsSink(sink MetricsSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithClock overrides the engine's time source. Tests use this to drive
// window and cooldown behavior deterministically.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine owns the event store and incident state for its process lifetime.
// Construct one per application; there is no package-level instance.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	bus    event.Publisher
	sink   MetricsSink
	now    func() time.Time

	disp *dispatcher

	mu       sync.Mutex
	store    *EventStore
	seq      uint64
	det      detector
	open     map[IncidentType]*Incident
	resolved []*Incident
}

// New creates an engine with the given config. Zero-valued config fields
// fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:    cfg,
		logger: zap.NewNop(),
		sink:   NopSink{},
		now:    time.Now,
		store:  NewEventStore(cfg.Capacity),
		det:    detector{cfg: cfg},
		open:   make(map[IncidentType]*Incident),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.disp = newDispatcher(cfg.AlertCooldown, e.logger, e.bus)
	return e
}

// eventMeta carries the optional structured fields of a track call.
type eventMeta struct {
	endpoint   string
	statusCode int
	userID     string
	component  string
	subType    string
	stack      string
	context    map[string]any
}

// TrackEvent records a generic event. The category must be a member of the
// closed category set; anything else is an input error.
func (e *Engine) TrackEvent(category Category, message string, ctx map[string]any) (Event, error) {
	if !category.Valid() {
		return Event{}, fmt.Errorf("unknown event category %q", category)
	}
	return e.track(category, message, eventMeta{context: ctx}), nil
}

// TrackAPIError records a failed API call. Severity follows the HTTP status.
func (e *Engine) TrackAPIError(endpoint string, statusCode int, message string, ctx map[string]any) Event {
	return e.track(CategoryAPI, message, eventMeta{
		endpoint:   endpoint,
		statusCode: statusCode,
		context:    ctx,
	})
}

// TrackAuthError records an authentication failure of the given sub-type.
func (e *Engine) TrackAuthError(subType, userID string, ctx map[string]any) Event {
	ev := e.track(CategoryAuth, "authentication failure: "+subType, eventMeta{
		subType: subType,
		userID:  userID,
		context: ctx,
	})
	e.record(MetricAuthFailures, 1)
	return ev
}

// TrackValidationError records a form validation failure.
func (e *Engine) TrackValidationError(form string, fieldErrors map[string]string, ctx map[string]any) Event {
	merged := make(map[string]any, len(ctx)+2)
	for k, v := range ctx {
		merged[k] = v
	}
	merged["form"] = form
	if len(fieldErrors) > 0 {
		merged["fields"] = fieldErrors
	}
	msg := fmt.Sprintf("validation failed for form %q (%d fields)", form, len(fieldErrors))
	return e.track(CategoryValidation, msg, eventMeta{context: merged})
}

// TrackSystemError records a failure in a backend system component.
func (e *Engine) TrackSystemError(component, message string, ctx map[string]any) Event {
	return e.track(CategorySystem, message, eventMeta{
		component: component,
		context:   ctx,
	})
}

// track is the single ingestion path: classify, append, re-evaluate
// detection rules, then notify outside the lock.
func (e *Engine) track(category Category, message string, meta eventMeta) Event {
	now := e.now()
	severity := classify(category, message, meta.statusCode, meta.subType)

	e.mu.Lock()
	e.seq++
	ev := Event{
		ID:         fmt.Sprintf("evt-%d", e.seq),
		Timestamp:  now,
		Category:   category,
		Severity:   severity,
		Message:    message,
		Endpoint:   meta.endpoint,
		StatusCode: meta.statusCode,
		UserID:     meta.userID,
		Component:  meta.component,
		SubType:    meta.subType,
		Stack:      meta.stack,
		Context:    meta.context,
	}
	e.store.Append(ev)
	opened := e.detectLocked(now)
	e.mu.Unlock()

	eventsTracked.WithLabelValues(string(category), string(severity)).Inc()
	e.record(MetricEventsTracked, 1)

	e.logger.Debug("event tracked",
		zap.String("event_id", ev.ID),
		zap.String("category", string(category)),
		zap.String("severity", string(severity)),
	)

	e.publish(TopicEventTracked, now, ev)
	e.announce(now, opened)
	if severity == SeverityCritical {
		critical := ev
		e.disp.dispatch(now, Alert{Kind: AlertCriticalEvent, Timestamp: now, Event: &critical})
	}
	return ev
}

// detectLocked runs the detector and opens incidents for rules that fired.
// Caller holds e.mu. Returned incidents are value copies taken under the
// lock; a concurrent ResolveIncident may mutate the stored structs as soon
// as the lock is released.
func (e *Engine) detectLocked(now time.Time) []Incident {
	fired := e.det.evaluate(e.store, now, e.open)
	opened := make([]Incident, 0, len(fired))
	for _, inc := range fired {
		e.open[inc.Type] = inc
		opened = append(opened, *inc)
		incidentsOpened.WithLabelValues(string(inc.Type)).Inc()
		openIncidents.Set(float64(len(e.open)))
		e.logger.Warn("incident opened",
			zap.String("incident_id", inc.ID),
			zap.String("type", string(inc.Type)),
			zap.String("severity", string(inc.Severity)),
			zap.Int("error_count", inc.ErrorCount),
		)
	}
	return opened
}

// announce publishes and dispatches alerts for newly opened incidents.
func (e *Engine) announce(now time.Time, opened []Incident) {
	for i := range opened {
		inc := opened[i]
		e.publish(TopicIncidentOpened, now, inc)
		e.disp.dispatch(now, Alert{Kind: AlertIncidentOpened, Timestamp: now, Incident: &inc})
	}
}

// Events returns a snapshot of every stored event in insertion order.
func (e *Engine) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.All()
}

// EventsByCategory returns stored events matching the category.
func (e *Engine) EventsByCategory(c Category) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ByCategory(c)
}

// EventsByTimeRange returns stored events within [from, to]. An inverted
// range yields an empty slice.
func (e *Engine) EventsByTimeRange(from, to time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ByTimeRange(from, to)
}

// EventsByUser returns stored events attributed to the user.
func (e *Engine) EventsByUser(userID string) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ByUser(userID)
}

// Search returns stored events whose message, stack or endpoint contains the
// query, case-insensitively.
func (e *Engine) Search(query string) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Search(query)
}

// ResolveEvent stamps resolution metadata on a stored event. Set-once: an
// unknown or already-resolved id is a silent no-op.
func (e *Engine) ResolveEvent(id, resolution, resolvedBy string) {
	now := e.now()
	e.mu.Lock()
	defer e.mu.Unlock()
	ev := e.store.find(id)
	if ev == nil || ev.Resolved {
		return
	}
	ev.Resolved = true
	ev.ResolvedAt = &now
	ev.ResolvedBy = resolvedBy
	ev.Resolution = resolution
}

// Analyze computes an analysis snapshot over the current events.
func (e *Engine) Analyze() Snapshot {
	now := e.now()
	e.mu.Lock()
	events := e.store.All()
	e.mu.Unlock()
	return Analyze(events, now, e.cfg)
}

// DetectIncidents re-evaluates the detection rules and returns the currently
// open incidents. Hosts typically call this from a ticker.
func (e *Engine) DetectIncidents() []Incident {
	now := e.now()
	e.mu.Lock()
	opened := e.detectLocked(now)
	current := e.openLocked()
	e.mu.Unlock()
	e.announce(now, opened)
	return current
}

// OpenIncidents returns the currently open incidents without re-running
// detection.
func (e *Engine) OpenIncidents() []Incident {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openLocked()
}

// ResolvedIncidents returns the resolution history, oldest first.
func (e *Engine) ResolvedIncidents() []Incident {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Incident, len(e.resolved))
	for i, inc := range e.resolved {
		out[i] = *inc
	}
	return out
}

// openLocked copies the open set in a stable order. Caller holds e.mu.
func (e *Engine) openLocked() []Incident {
	out := make([]Incident, 0, len(e.open))
	for _, inc := range e.open {
		out = append(out, *inc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// ResolveIncident closes an open incident and moves it to the resolution
// history, allowing a future rule firing to open a new incident of that
// type. An unknown id is a silent no-op: the incident may already be
// resolved.
func (e *Engine) ResolveIncident(id, resolution, resolvedBy string) {
	now := e.now()

	e.mu.Lock()
	var resolved *Incident
	for typ, inc := range e.open {
		if inc.ID != id {
			continue
		}
		inc.Resolved = true
		inc.ResolvedAt = &now
		inc.ResolvedBy = resolvedBy
		inc.Resolution = resolution
		delete(e.open, typ)
		e.resolved = append(e.resolved, inc)
		openIncidents.Set(float64(len(e.open)))
		resolved = inc
		break
	}
	e.mu.Unlock()

	if resolved == nil {
		return
	}

	e.logger.Info("incident resolved",
		zap.String("incident_id", resolved.ID),
		zap.String("type", string(resolved.Type)),
		zap.String("resolved_by", resolvedBy),
	)
	e.publish(TopicIncidentResolved, now, *resolved)
}

// Subscribe registers an alert callback. Callbacks run synchronously in the
// tracking caller's goroutine and must be fast.
func (e *Engine) Subscribe(fn AlertFunc) {
	e.disp.subscribe(fn)
}

// Report assembles the aggregate report: summary, analysis, open incidents
// and prioritized recommendations.
func (e *Engine) Report() Report {
	now := e.now()
	e.mu.Lock()
	events := e.store.All()
	incidents := e.openLocked()
	e.mu.Unlock()

	snap := Analyze(events, now, e.cfg)
	resolvedCount := 0
	for i := range events {
		if events[i].Resolved {
			resolvedCount++
		}
	}

	return Report{
		GeneratedAt: now,
		Summary: Summary{
			TotalEvents:     snap.Total,
			EventsPerMinute: snap.EventsPerMinute,
			CriticalCount:   snap.BySeverity[SeverityCritical],
			ResolvedCount:   resolvedCount,
			MTTRMinutes:     snap.MTTRMinutes,
		},
		Analysis:        snap,
		Incidents:       incidents,
		Recommendations: buildRecommendations(snap),
	}
}

// Export serializes the current state. Supported formats: "json" (full
// snapshot, pretty-printed) and "csv" (one row per event).
func (e *Engine) Export(format string) (string, error) {
	now := e.now()
	switch format {
	case FormatJSON:
		e.mu.Lock()
		events := e.store.All()
		incidents := e.openLocked()
		e.mu.Unlock()
		return exportJSON(exportSnapshot{
			ExportedAt: now,
			Events:     events,
			Analysis:   Analyze(events, now, e.cfg),
			Incidents:  incidents,
		})
	case FormatCSV:
		e.mu.Lock()
		events := e.store.All()
		e.mu.Unlock()
		return exportCSV(events)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

// Statistics returns the condensed totals view.
func (e *Engine) Statistics() Stats {
	now := e.now()
	e.mu.Lock()
	events := e.store.All()
	openCount := len(e.open)
	resolvedIncidents := len(e.resolved)
	e.mu.Unlock()

	snap := Analyze(events, now, e.cfg)
	return Stats{
		TotalEvents:       snap.Total,
		EventsPerMinute:   snap.EventsPerMinute,
		MTTRMinutes:       snap.MTTRMinutes,
		TopCategories:     snap.ByCategory,
		OpenIncidents:     openCount,
		ResolvedIncidents: resolvedIncidents,
	}
}

// Stop clears the alert subscriber list. Accumulated events and incident
// history survive: a stopped engine keeps its record and can be
// re-subscribed later.
func (e *Engine) Stop() {
	e.disp.clear()
	e.logger.Info("monitor stopped, alert subscribers cleared")
}

// record reports a metric to the host sink, swallowing sink panics so a
// broken sink never aborts ingestion.
func (e *Engine) record(name string, value float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("metrics sink panicked",
				zap.String("metric", name),
				zap.Any("panic", r),
			)
		}
	}()
	e.sink.RecordMetric(name, value)
}

// publish emits a bus event if a bus is wired. Async so bus handlers never
// block ingestion.
func (e *Engine) publish(topic string, ts time.Time, payload any) {
	if e.bus == nil {
		return
	}
	e.bus.PublishAsync(context.Background(), event.Event{
		Topic:     topic,
		Source:    "monitor",
		Timestamp: ts,
		Payload:   payload,
	})
}
