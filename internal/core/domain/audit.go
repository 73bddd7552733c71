package domain

import "time"

// AuditEvent classifies a security-relevant occurrence.
type AuditEvent string

const (
	AuditLoginSucceeded    AuditEvent = "login.succeeded"
	AuditLoginFailed       AuditEvent = "login.failed"
	AuditLoginLocked       AuditEvent = "login.locked"
	AuditAuthzDenied       AuditEvent = "authz.denied"
	AuditRateLimitExceeded AuditEvent = "ratelimit.exceeded"
	AuditUserRegistered    AuditEvent = "user.registered"
)

// AuditEntry is one append-only record in the audit trail.
type AuditEntry struct {
	ID        string     `json:"id"`
	Event     AuditEvent `json:"event"`
	Actor     string     `json:"actor"` // user ID, or the submitted email for login events
	Role      Role       `json:"role,omitempty"`
	Resource  Resource   `json:"resource,omitempty"`
	Action    Action     `json:"action,omitempty"`
	ClientIP  string     `json:"client_ip"`
	Detail    string     `json:"detail,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
