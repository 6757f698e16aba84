package monitor

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		message  string
		status   int
		subType  string
		want     Severity
	}{
		{
			name:     "system is always high",
			category: CategorySystem,
			message:  "database down",
			want:     SeverityHigh,
		},
		{
			name:     "system high even with critical keyword",
			category: CategorySystem,
			message:  "CRITICAL: storage failure",
			want:     SeverityHigh,
		},
		{
			name:     "critical keyword",
			category: CategoryJavaScript,
			message:  "Critical rendering failure",
			want:     SeverityCritical,
		},
		{
			name:     "fatal keyword case-insensitive",
			category: CategoryContent,
			message:  "FATAL asset corruption",
			want:     SeverityCritical,
		},
		{
			name:     "auth account locked",
			category: CategoryAuth,
			subType:  AuthAccountLocked,
			want:     SeverityCritical,
		},
		{
			name:     "auth security breach",
			category: CategoryAuth,
			subType:  AuthSecurityBreach,
			want:     SeverityCritical,
		},
		{
			name:     "auth unauthorized access",
			category: CategoryAuth,
			subType:  AuthUnauthorizedAccess,
			want:     SeverityCritical,
		},
		{
			name:     "auth invalid credentials",
			category: CategoryAuth,
			subType:  AuthInvalidCredentials,
			want:     SeverityMedium,
		},
		{
			name:     "auth session expired",
			category: CategoryAuth,
			subType:  AuthSessionExpired,
			want:     SeverityMedium,
		},
		{
			name:     "auth unknown sub-type",
			category: CategoryAuth,
			subType:  "mfa_skipped",
			want:     SeverityLow,
		},
		{
			name:     "api 503",
			category: CategoryAPI,
			message:  "service unavailable",
			status:   503,
			want:     SeverityHigh,
		},
		{
			name:     "api 500",
			category: CategoryAPI,
			status:   500,
			want:     SeverityHigh,
		},
		{
			name:     "api 401",
			category: CategoryAPI,
			status:   401,
			want:     SeverityMedium,
		},
		{
			name:     "api 403",
			category: CategoryAPI,
			status:   403,
			want:     SeverityMedium,
		},
		{
			name:     "api 404",
			category: CategoryAPI,
			status:   404,
			want:     SeverityLow,
		},
		{
			name:     "api no status",
			category: CategoryAPI,
			message:  "timeout",
			want:     SeverityLow,
		},
		{
			name:     "validation is low",
			category: CategoryValidation,
			message:  "missing field",
			want:     SeverityLow,
		},
		{
			name:     "default is medium",
			category: CategoryPWA,
			message:  "service worker update failed",
			want:     SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.category, tt.message, tt.status, tt.subType)
			if got != tt.want {
				t.Errorf("classify() = %q, want %q", got, tt.want)
			}
			// Deterministic for identical inputs.
			if again := classify(tt.category, tt.message, tt.status, tt.subType); again != got {
				t.Errorf("classify() not deterministic: %q then %q", got, again)
			}
		})
	}
}
