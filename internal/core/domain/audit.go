package domain

import "time"

// AuditAction names a security-relevant event.
type AuditAction string

const (
	AuditLoginSucceeded AuditAction = "login_succeeded"
	AuditLoginFailed    AuditAction = "login_failed"
	AuditTokenRevoked   AuditAction = "token_revoked"
	AuditUserCreated    AuditAction = "user_created"
	AuditUserUpdated    AuditAction = "user_updated"
	AuditUserDeleted    AuditAction = "user_deleted"
)

// AuditEvent is one entry in the audit trail.
type AuditEvent struct {
	Action   AuditAction
	ActorID  int64 // 0 when there is no authenticated actor (failed login)
	TargetID int64
	Email    string
	Detail   map[string]string
	At       time.Time
}
