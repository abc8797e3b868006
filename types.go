package goIdentity

import (
	"io"
	"time"

	"github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/paging"
	"github.com/MrEthical07/goIdentity/roles"
	"github.com/MrEthical07/goIdentity/users"
)

type (
	// Profile is a user record without its password hash.
	Profile = users.Profile
	// Status is the account state carried by Profile.
	Status = users.Status
	// Role is a role record.
	Role = roles.Role
	// PageQuery selects one page of a listing.
	PageQuery = paging.Query
	// Page is one page of a listing plus the total match count.
	Page[T any] = paging.Page[T]
)

const (
	StatusEnabled  = users.StatusEnabled
	StatusDisabled = users.StatusDisabled
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Profile   Profile   `json:"user"`
}

// CreateUserRequest is the input to CreateUser. An empty Role falls back to
// Config.Account.DefaultRole.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RealName string `json:"realname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// UserUpdate is a partial update. Nil fields are unchanged; a non-empty
// Password replaces the current one.
type UserUpdate struct {
	RealName *string `json:"realname,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Status   *Status `json:"status,omitempty"`
	Password string  `json:"password,omitempty"`
}

// RoleRequest is the input to CreateRole.
type RoleRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// RoleUpdate is a partial role update; nil fields are unchanged.
type RoleUpdate struct {
	Name        *string `json:"name,omitempty"`
	Code        *string `json:"code,omitempty"`
	Description *string `json:"description,omitempty"`
}

type (
	// AuditEvent is one audit record.
	AuditEvent = audit.Event
	// AuditSink receives audit events from the dispatcher goroutine.
	AuditSink = audit.Sink
	// NoOpSink discards audit events.
	NoOpSink = audit.NoOpSink
	// ChannelSink delivers audit events on a buffered channel.
	ChannelSink = audit.ChannelSink
	// JSONWriterSink writes audit events as JSON lines.
	JSONWriterSink = audit.JSONWriterSink
)

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
