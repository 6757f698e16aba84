package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/faultline/internal/event"
)

// AlertKind distinguishes what triggered an alert.
type AlertKind string

const (
	AlertCriticalEvent  AlertKind = "critical_event"
	AlertIncidentOpened AlertKind = "incident_opened"
)

// Alert is the payload handed to subscribers and published on the bus.
type Alert struct {
	Kind      AlertKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Event     *Event    `json:"event,omitempty"`
	Incident  *Incident `json:"incident,omitempty"`
}

// AlertFunc receives dispatched alerts. Callbacks must be fast; they run in
// the tracking caller's goroutine. Panics are caught per callback.
type AlertFunc func(Alert)

// dispatcher fans alerts out to subscribers, gated by a single process-wide
// cooldown so a burst of correlated alerts produces one notification.
type dispatcher struct {
	logger *zap.Logger
	bus    event.Publisher

	mu      sync.Mutex
	limiter *rate.Limiter
	subs    []AlertFunc
}

func newDispatcher(cooldown time.Duration, logger *zap.Logger, bus event.Publisher) *dispatcher {
	return &dispatcher{
		logger: logger,
		bus:    bus,
		// Burst of one token: at most one dispatch per cooldown window.
		limiter: rate.NewLimiter(rate.Every(cooldown), 1),
	}
}

func (d *dispatcher) subscribe(fn AlertFunc) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.subs = append(d.subs, fn)
	d.mu.Unlock()
}

// clear drops every subscriber. Called by Engine.Stop.
func (d *dispatcher) clear() {
	d.mu.Lock()
	d.subs = nil
	d.mu.Unlock()
}

// dispatch delivers the alert to every subscriber unless the cooldown window
// is still closed. Returns whether the alert went out.
func (d *dispatcher) dispatch(now time.Time, alert Alert) bool {
	d.mu.Lock()
	allowed := d.limiter.AllowN(now, 1)
	subs := make([]AlertFunc, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	if !allowed {
		alertsSuppressed.Inc()
		d.logger.Debug("alert suppressed by cooldown", zap.String("kind", string(alert.Kind)))
		return false
	}

	for _, fn := range subs {
		d.safeCall(fn, alert)
	}
	alertsDispatched.Inc()

	if d.bus != nil {
		d.bus.PublishAsync(context.Background(), event.Event{
			Topic:     TopicAlert,
			Source:    "monitor",
			Timestamp: now,
			Payload:   alert,
		})
	}

	d.logger.Info("alert dispatched",
		zap.String("kind", string(alert.Kind)),
		zap.Int("subscribers", len(subs)),
	)
	return true
}

// safeCall invokes one subscriber, isolating panics so a broken callback
// neither stops the others nor reaches the tracking caller.
func (d *dispatcher) safeCall(fn AlertFunc, alert Alert) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("alert subscriber panicked",
				zap.String("kind", string(alert.Kind)),
				zap.Any("panic", r),
			)
		}
	}()
	fn(alert)
}
