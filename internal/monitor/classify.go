package monitor

import "strings"

// Auth sub-types with non-default severities.
const (
	AuthAccountLocked      = "account_locked"
	AuthSecurityBreach     = "security_breach"
	AuthUnauthorizedAccess = "unauthorized_access"
	AuthInvalidCredentials = "invalid_credentials"
	AuthSessionExpired     = "session_expired"
)

// classify assigns a severity to an observed occurrence. Rules are evaluated
// in order and the first match wins; the function is pure and deterministic.
func classify(category Category, message string, statusCode int, authSubType string) Severity {
	// System errors are always high, regardless of message content.
	if category == CategorySystem {
		return SeverityHigh
	}

	msg := strings.ToLower(message)
	if strings.Contains(msg, "critical") || strings.Contains(msg, "fatal") {
		return SeverityCritical
	}

	switch category {
	case CategoryAuth:
		switch authSubType {
		case AuthAccountLocked, AuthSecurityBreach, AuthUnauthorizedAccess:
			return SeverityCritical
		case AuthInvalidCredentials, AuthSessionExpired:
			return SeverityMedium
		default:
			return SeverityLow
		}
	case CategoryAPI:
		switch {
		case statusCode >= 500:
			return SeverityHigh
		case statusCode == 401 || statusCode == 403:
			return SeverityMedium
		case statusCode >= 400:
			return SeverityLow
		default:
			return SeverityLow
		}
	case CategoryValidation:
		return SeverityLow
	}

	return SeverityMedium
}
