package audit

import "time"

// Entry is an immutable, append-only audit log record.
//
// Invariants:
// - Entries are never updated or deleted by the application; retention-based
//   deletion is an out-of-band administrative process.
// - IP and user-agent capture are best-effort; audit must never block or
//   fail the business operation that triggered it.
type Entry struct {
	ID        string    `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	Action   Action   `json:"action" db:"action"`
	Severity Severity `json:"severity" db:"severity"`

	// UserID is empty for anonymous or system-detected events.
	UserID string `json:"user_id,omitempty" db:"user_id"`

	TargetID   string `json:"target_id,omitempty" db:"target_id"`
	TargetType string `json:"target_type,omitempty" db:"target_type"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string `json:"user_agent,omitempty" db:"user_agent"`

	// Metadata is serialized to JSON at write time by the repository.
	Metadata map[string]any `json:"metadata,omitempty" db:"metadata"`

	Success      bool   `json:"success" db:"success"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`
}

// Action is the closed taxonomy of security-relevant events.
type Action string

const (
	// Authentication events.
	ActionLoginSuccess Action = "login_success"
	ActionLoginFailed  Action = "login_failed"
	ActionLogout       Action = "logout"

	// Profile events.
	ActionProfileUpdate Action = "profile_update"

	// Data-mutation events.
	ActionRestaurantCreate Action = "restaurant_create"
	ActionRestaurantUpdate Action = "restaurant_update"
	ActionRestaurantDelete Action = "restaurant_delete"
	ActionReviewCreate     Action = "review_create"
	ActionReviewUpdate     Action = "review_update"
	ActionReviewDelete     Action = "review_delete"

	// Admin events.
	ActionAdminRoleChange Action = "admin_role_change"
	ActionAdminUserDelete Action = "admin_user_delete"
	ActionAuditPurge      Action = "audit_purge"

	// Security events.
	ActionSecurityUnauthorized  Action = "security_unauthorized"
	ActionSecuritySuspicious    Action = "security_suspicious"
	ActionSecurityBreachAttempt Action = "security_breach_attempt"
)

// Severity tiers control buffering: critical entries bypass the buffer.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var actionSeverity = map[Action]Severity{
	ActionLoginSuccess: SeverityInfo,
	ActionLoginFailed:  SeverityWarning,
	ActionLogout:       SeverityInfo,

	ActionProfileUpdate: SeverityInfo,

	ActionRestaurantCreate: SeverityInfo,
	ActionRestaurantUpdate: SeverityInfo,
	ActionRestaurantDelete: SeverityWarning,
	ActionReviewCreate:     SeverityInfo,
	ActionReviewUpdate:     SeverityInfo,
	ActionReviewDelete:     SeverityWarning,

	ActionAdminRoleChange: SeverityCritical,
	ActionAdminUserDelete: SeverityCritical,
	ActionAuditPurge:      SeverityWarning,

	ActionSecurityUnauthorized:  SeverityWarning,
	ActionSecuritySuspicious:    SeverityError,
	ActionSecurityBreachAttempt: SeverityCritical,
}

// SeverityFor derives severity deterministically from the action.
// Unknown actions are treated as warnings so they are still recorded.
func SeverityFor(a Action) Severity {
	if s, ok := actionSeverity[a]; ok {
		return s
	}
	return SeverityWarning
}
