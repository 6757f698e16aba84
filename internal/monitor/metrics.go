package monitor

import "github.com/prometheus/client_golang/prometheus"

// MetricsSink is the host-provided metric recorder the engine reports into.
// Calls are fire-and-forget: a panicking sink is swallowed and never aborts
// event ingestion.
type MetricsSink interface {
	RecordMetric(name string, value float64)
}

// NopSink discards every metric. Used when the host provides no sink.
type NopSink struct{}

func (NopSink) RecordMetric(string, float64) {}

// PromSink records host metrics into a Prometheus counter vector keyed by
// metric name.
type PromSink struct {
	recorded *prometheus.CounterVec
}

// NewPromSink registers the sink's collector with reg (or the default
// registerer when nil) and returns the sink.
func NewPromSink(reg prometheus.Registerer) *PromSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		recorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultline_recorded_metrics_total",
				Help: "Accumulated values recorded through the metrics sink, by metric name.",
			},
			[]string{"name"},
		),
	}
	reg.MustRegister(s.recorded)
	return s
}

func (s *PromSink) RecordMetric(name string, value float64) {
	if value < 0 {
		return
	}
	s.recorded.WithLabelValues(name).Add(value)
}

// Engine self-instrumentation.
var (
	eventsTracked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_events_tracked_total",
			Help: "Total number of tracked events.",
		},
		[]string{"category", "severity"},
	)
	incidentsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_incidents_opened_total",
			Help: "Total number of incidents opened.",
		},
		[]string{"type"},
	)
	openIncidents = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "faultline_open_incidents",
			Help: "Number of currently open incidents.",
		},
	)
	alertsDispatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_alerts_dispatched_total",
			Help: "Total number of alert notifications delivered to subscribers.",
		},
	)
	alertsSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_alerts_suppressed_total",
			Help: "Total number of alert notifications suppressed by the cooldown.",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsTracked)
	prometheus.MustRegister(incidentsOpened)
	prometheus.MustRegister(openIncidents)
	prometheus.MustRegister(alertsDispatched)
	prometheus.MustRegister(alertsSuppressed)
}
