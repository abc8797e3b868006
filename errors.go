package goIdentity

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/password"
	"github.com/MrEthical07/goIdentity/roles"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/users"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown username and
	// for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountDisabled is returned by Login when the password is correct but
	// the account is disabled.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrLoginRateLimited is returned when the login attempt budget is spent.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrTokenInvalid is returned by Resolve for absent, expired or orphaned tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrInvalidRequest is returned for malformed input such as an empty username.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPasswordPolicy is returned when a new password breaks the length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned by ChangePassword when the new password equals the old one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrEngineClosed is returned by SweepExpired after Close.
	ErrEngineClosed = errors.New("engine closed")
)

// Store errors surface unchanged so callers can match either name.
var (
	ErrUserExists       = users.ErrAlreadyExists
	ErrUserNotFound     = users.ErrNotFound
	ErrUserProtected    = users.ErrForbidden
	ErrRoleCodeExists   = roles.ErrDuplicateCode
	ErrRoleNotFound     = roles.ErrNotFound
	ErrRoleProtected    = roles.ErrForbidden
	ErrRedisUnavailable = session.ErrRedisUnavailable
)

// ErrorKind classifies errors for transport layers.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindAlreadyExists
	KindNotFound
	KindForbidden
	KindInvalidCredentials
	KindInvalidInput
	KindRateLimited
	KindUnavailable
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAlreadyExists:
		return "already_exists"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalidInput:
		return "invalid_input"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// KindOf maps err to its ErrorKind. Unrecognized errors are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, users.ErrAlreadyExists),
		errors.Is(err, roles.ErrDuplicateCode):
		return KindAlreadyExists
	case errors.Is(err, users.ErrNotFound),
		errors.Is(err, roles.ErrNotFound):
		return KindNotFound
	case errors.Is(err, users.ErrForbidden),
		errors.Is(err, roles.ErrForbidden),
		errors.Is(err, ErrAccountDisabled):
		return KindForbidden
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenInvalid):
		return KindInvalidCredentials
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordReuse),
		errors.Is(err, password.ErrPasswordTooLong),
		errors.Is(err, password.ErrEmptyPassword):
		return KindInvalidInput
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, rate.ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, session.ErrRedisUnavailable),
		errors.Is(err, rate.ErrRedisUnavailable),
		errors.Is(err, ErrEngineClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindUnavailable
	default:
		return KindInternal
	}
}
