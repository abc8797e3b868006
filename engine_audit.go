package goIdentity

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/internal/audit"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginRateLimited = "login_rate_limited"
	auditEventLogout           = "logout"
	auditEventUserCreated      = "user_created"
	auditEventUserUpdated      = "user_updated"
	auditEventUserDeleted      = "user_deleted"
	auditEventPasswordChanged  = "password_changed"
	auditEventRoleCreated      = "role_created"
	auditEventRoleUpdated      = "role_updated"
	auditEventRoleDeleted      = "role_deleted"
	auditEventTokensSwept      = "tokens_swept"
)

// accountChangeEvents record changes that revoke access; a full audit queue
// never sheds them.
var accountChangeEvents = []string{
	auditEventUserUpdated,
	auditEventUserDeleted,
	auditEventPasswordChanged,
	auditEventRoleDeleted,
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	username string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := audit.Event{
		ID:        audit.NewEventID(),
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Username:  username,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Error:     auditErrorCode(err),
		Metadata:  metadata,
	}

	e.audit.Emit(ctx, event)
}

// auditErrorCode is the stable code recorded in AuditEvent.Error.
func auditErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrPasswordReuse):
		return "password_reuse"
	case errors.Is(err, ErrPasswordPolicy):
		return "password_policy"
	}
	return KindOf(err).String()
}
