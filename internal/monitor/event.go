package monitor

import "time"

// Category identifies the subsystem an event was observed in.
type Category string

const (
	CategoryJavaScript Category = "javascript"
	CategoryAPI        Category = "api"
	CategoryAuth       Category = "authentication"
	CategoryValidation Category = "validation"
	CategorySystem     Category = "system"
	CategoryContent    Category = "content"
	CategoryPWA        Category = "pwa"
)

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryJavaScript,
		CategoryAPI,
		CategoryAuth,
		CategoryValidation,
		CategorySystem,
		CategoryContent,
		CategoryPWA,
	}
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryJavaScript, CategoryAPI, CategoryAuth, CategoryValidation,
		CategorySystem, CategoryContent, CategoryPWA:
		return true
	}
	return false
}

// Severity grades how bad an event or incident is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Event is a single tracked occurrence. Stored events are immutable except
// for the Resolved* fields, which are set exactly once via ResolveEvent.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`

	Endpoint   string         `json:"endpoint,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Component  string         `json:"component,omitempty"`
	SubType    string         `json:"sub_type,omitempty"`
	Stack      string         `json:"stack,omitempty"`
	Context    map[string]any `json:"context,omitempty"`

	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
	Resolution string     `json:"resolution,omitempty"`
}
