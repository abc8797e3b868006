package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/internal"
)

// DefaultTTL is the token lifetime when Options.TTL is zero.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrTokenNotFound is returned for values that were never issued or are already gone.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenExpired is returned by Validate for a token past its expiry. The
	// record has been removed by the time the caller sees it.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenCollision is returned by Issue when the generated value is already in use.
	ErrTokenCollision = errors.New("token value collision")
	// ErrTokenCorrupt is returned when a stored token record cannot be decoded.
	ErrTokenCorrupt = errors.New("token record corrupt")
	// ErrRedisUnavailable wraps transport failures from the Redis backend.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Store is the token lifecycle contract shared by every backend.
type Store interface {
	// Issue creates a token for username valid for the configured TTL.
	Issue(ctx context.Context, username string) (Token, error)
	// Validate returns the live token for value. Expired tokens are deleted
	// and reported as ErrTokenExpired.
	Validate(ctx context.Context, value string) (Token, error)
	// Revoke deletes the token and reports whether it existed.
	Revoke(ctx context.Context, value string) (bool, error)
	// RevokeUser deletes every token bound to username and returns how many were removed.
	RevokeUser(ctx context.Context, username string) (int, error)
	// Sweep deletes every expired token and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
	// Len reports the number of stored tokens, including expired ones not yet evicted.
	Len(ctx context.Context) (int, error)
}

// Generator produces a random token value of size bytes of entropy.
type Generator func(size int) (string, error)

// Options configures a Store backend.
type Options struct {
	TTL        time.Duration
	TokenBytes int
	Now        func() time.Time
	Generate   Generator
}

func (o Options) withDefaults() Options {
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.TokenBytes == 0 {
		o.TokenBytes = internal.DefaultTokenBytes
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Generate == nil {
		o.Generate = internal.NewToken
	}
	return o
}

func (o Options) validate() error {
	if o.TTL <= 0 {
		return fmt.Errorf("session: ttl must be > 0, got %s", o.TTL)
	}
	if o.TokenBytes < internal.MinTokenBytes || o.TokenBytes > internal.MaxTokenBytes {
		return fmt.Errorf("session: token bytes must be in [%d,%d], got %d",
			internal.MinTokenBytes, internal.MaxTokenBytes, o.TokenBytes)
	}
	return nil
}

// newToken builds an unissued token for username at the current clock.
func (o Options) newToken(username string) (Token, error) {
	value, err := o.Generate(o.TokenBytes)
	if err != nil {
		return Token{}, fmt.Errorf("session: generate token: %w", err)
	}
	now := o.Now()
	return Token{
		Value:     value,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(o.TTL),
	}, nil
}
