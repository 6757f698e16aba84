package monitor

// Event topics published by the monitoring engine.
const (
	TopicEventTracked     = "monitor.event.tracked"
	TopicIncidentOpened   = "monitor.incident.opened"
	TopicIncidentResolved = "monitor.incident.resolved"
	TopicAlert            = "monitor.alert"
)
