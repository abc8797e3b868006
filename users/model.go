package users

import (
	"fmt"
	"time"
)

// Status is the account state.
type Status uint8

const (
	// StatusEnabled accounts may log in.
	StatusEnabled Status = iota
	// StatusDisabled accounts are rejected at login and resolution.
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusEnabled:
		return "enabled"
	case StatusDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusEnabled, StatusDisabled:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("users: unknown status %d", uint8(s))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "enabled":
		*s = StatusEnabled
	case "disabled":
		*s = StatusDisabled
	default:
		return fmt.Errorf("users: unknown status %q", b)
	}
	return nil
}

// Record is the stored account, including its password hash.
type Record struct {
	ID           int64
	Username     string
	PasswordHash string
	RealName     string
	Email        string
	Role         string
	Status       Status
	CreatedAt    time.Time
}

// Profile returns the record without its password hash.
func (r Record) Profile() Profile {
	return Profile{
		ID:        r.ID,
		Username:  r.Username,
		RealName:  r.RealName,
		Email:     r.Email,
		Role:      r.Role,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

// Profile is the public view of an account.
type Profile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	RealName  string    `json:"realname"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser is the input to Store.Create.
type NewUser struct {
	Username     string
	PasswordHash string
	RealName     string
	Email        string
	Role         string
}

// Update carries a partial modification. Nil fields are left unchanged and
// an empty PasswordHash keeps the current hash.
type Update struct {
	RealName     *string
	Email        *string
	Role         *string
	Status       *Status
	PasswordHash string
}

// Seed is a record installed at construction with a fixed id.
type Seed struct {
	ID           int64
	Username     string
	PasswordHash string
	RealName     string
	Email        string
	Role         string
}
