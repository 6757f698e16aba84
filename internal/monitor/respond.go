package monitor

// Escalation levels, most urgent first.
const (
	EscalationImmediate = "immediate"
	EscalationUrgent    = "urgent"
	EscalationStandard  = "standard"
)

// Escalation describes who must be pulled in and how fast.
type Escalation struct {
	Required bool     `json:"required"`
	Level    string   `json:"level"`
	Contacts []string `json:"contacts,omitempty"`
}

// Communication describes where the incident should be announced.
type Communication struct {
	Internal   []string `json:"internal"`
	External   []string `json:"external,omitempty"`
	StatusPage bool     `json:"status_page"`
}

// Response is a derived, stateless recommendation for handling an incident.
// It is computed on demand and never stored.
type Response struct {
	IncidentID    string        `json:"incident_id"`
	Actions       []string      `json:"actions"`
	Escalation    Escalation    `json:"escalation"`
	Communication Communication `json:"communication"`
}

// PlanResponse maps an incident's type and severity to a response plan.
// Pure function: identical incidents produce identical plans.
func PlanResponse(inc Incident) Response {
	resp := Response{
		IncidentID: inc.ID,
		Communication: Communication{
			Internal: []string{"engineering", "support"},
		},
	}

	switch inc.Type {
	case IncidentHighRate:
		resp.Actions = []string{
			"review recent deployments for regressions",
			"inspect top error messages for a common cause",
			"check upstream dependency status",
		}
		resp.Escalation = Escalation{Required: true, Level: EscalationUrgent}
	case IncidentCriticalBurst:
		resp.Actions = []string{
			"page the on-call engineer",
			"correlate critical events by user and endpoint",
			"prepare a rollback of the latest release",
		}
		resp.Escalation = Escalation{Required: true, Level: EscalationImmediate}
	case IncidentComponentFailure:
		resp.Actions = []string{
			"run emergency health checks on the failing component",
			"activate backup systems where available",
			"notify stakeholders of degraded service",
		}
		resp.Escalation = Escalation{Required: true, Level: EscalationImmediate}
	default:
		resp.Actions = []string{"triage the incident and identify an owner"}
		resp.Escalation = Escalation{Level: EscalationStandard}
	}

	// Critical severity overrides whatever the type decided.
	if inc.Severity == SeverityCritical {
		resp.Escalation.Required = true
		resp.Escalation.Level = EscalationImmediate
		resp.Escalation.Contacts = []string{"on-call", "team-lead", "manager"}
		resp.Communication.StatusPage = true
		resp.Communication.External = []string{"status page update", "customer support notice"}
	}

	return resp
}
