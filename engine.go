package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/logging"
	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/password"
	"github.com/MrEthical07/goIdentity/roles"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/users"
)

// Engine is the auth service. Construct it with New().Build().
type Engine struct {
	config Config

	users  *users.Store
	roles  *roles.Store
	tokens session.Store
	// backend is "memory", "redis" or "custom".
	backend string

	hasher           *password.Argon2
	dummyHash        string
	maxPasswordBytes int

	limiter *rate.Limiter
	audit   *audit.Dispatcher
	metrics *Metrics
	logger  logging.Logger
	now     func() time.Time

	sweepWG   sync.WaitGroup
	closed    chan struct{}
	closeOnce sync.Once
}

// Login verifies username and password and issues a session token.
//
// Unknown usernames and wrong passwords both return ErrInvalidCredentials
// after the same amount of hashing work. A disabled account is reported only
// once the password has been verified.
func (e *Engine) Login(ctx context.Context, username, pass string) (*LoginResult, error) {
	ip := clientIPFromContext(ctx)

	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, username, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(ctx, auditEventLoginRateLimited, false, 0, username, ErrLoginRateLimited, nil)
				return nil, ErrLoginRateLimited
			}
			return nil, err
		}
	}

	rec, err := e.users.Credentials(ctx, username)
	known := err == nil
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}

	hash := e.dummyHash
	if known {
		hash = rec.PasswordHash
	}
	ok, verr := e.hasher.Verify(pass, hash)
	if verr != nil && known && !errors.Is(verr, password.ErrPasswordTooLong) {
		e.logger.Error(ctx, "stored password hash unreadable", "user_id", rec.ID, "error", verr)
	}
	if !known || verr != nil || !ok {
		e.recordLoginFailure(ctx, username, ip)
		return nil, ErrInvalidCredentials
	}

	if rec.Status == users.StatusDisabled {
		e.metricInc(MetricLoginDisabled)
		e.emitAudit(ctx, auditEventLoginFailure, false, rec.ID, username, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, username, ip); err != nil {
			e.logger.Warn(ctx, "reset login counter failed", "username", username, "error", err)
		}
	}
	verified := rec.PasswordHash
	if e.config.Password.UpgradeOnLogin {
		verified = e.upgradeHash(ctx, rec, pass)
	}

	tok, err := e.tokens.Issue(ctx, rec.Username)
	if err != nil {
		e.emitAudit(ctx, auditEventLoginFailure, false, rec.ID, username, err, nil)
		return nil, err
	}
	if err := e.confirmCredentials(ctx, rec.Username, verified, tok.Value); err != nil {
		e.emitAudit(ctx, auditEventLoginFailure, false, rec.ID, username, err, nil)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, auditEventLoginSuccess, true, rec.ID, username, nil, nil)

	return &LoginResult{
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
		Profile:   rec.Profile(),
	}, nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, username, ip string) {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, 0, username, ErrInvalidCredentials, nil)
	if e.limiter == nil {
		return
	}
	if err := e.limiter.IncrementLogin(ctx, username, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		e.logger.Warn(ctx, "increment login counter failed", "username", username, "error", err)
	}
}

// upgradeHash re-hashes pass when the stored hash predates the current
// Argon2 parameters and returns the hash the login now stands on. The new
// hash is stored only if the record still holds the one that was verified,
// so a concurrent password change always wins. Failures are logged; the login
// still succeeds.
func (e *Engine) upgradeHash(ctx context.Context, rec users.Record, pass string) string {
	need, err := e.hasher.NeedsUpgrade(rec.PasswordHash)
	if err != nil || !need {
		return rec.PasswordHash
	}
	hash, err := e.hasher.Hash(pass)
	if err != nil {
		e.logger.Warn(ctx, "password rehash failed", "user_id", rec.ID, "error", err)
		return rec.PasswordHash
	}
	swapped, err := e.users.ReplaceHash(ctx, rec.ID, rec.PasswordHash, hash)
	if err != nil {
		e.logger.Warn(ctx, "store upgraded hash failed", "user_id", rec.ID, "error", err)
		return rec.PasswordHash
	}
	if !swapped {
		return rec.PasswordHash
	}
	e.metricInc(MetricPasswordUpgraded)
	return hash
}

// confirmCredentials re-reads the account after a token was issued. If the
// password hash or status changed since it was verified, the token is
// withdrawn: the change may already have revoked the user's tokens and must
// not be outlived by one issued on the old credentials.
func (e *Engine) confirmCredentials(ctx context.Context, username, verified, token string) error {
	cur, err := e.users.Credentials(ctx, username)
	switch {
	case errors.Is(err, users.ErrNotFound):
		err = ErrInvalidCredentials
	case err != nil:
	case cur.PasswordHash != verified:
		err = ErrInvalidCredentials
	case cur.Status == users.StatusDisabled:
		err = ErrAccountDisabled
	default:
		return nil
	}

	if _, rerr := e.tokens.Revoke(context.WithoutCancel(ctx), token); rerr != nil {
		e.logger.Error(ctx, "withdraw stale login token failed", "username", username, "error", rerr)
	}
	return err
}

// Logout revokes token and reports whether it was still stored. Revoking an
// unknown token is not an error.
func (e *Engine) Logout(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	removed, err := e.tokens.Revoke(ctx, token)
	if err != nil {
		return false, err
	}
	if removed {
		e.metricInc(MetricLogout)
	}
	e.emitAudit(ctx, auditEventLogout, removed, 0, "", nil, nil)
	return removed, nil
}

// Resolve returns the profile behind a live token. Absent and expired tokens,
// and tokens whose user was deleted or disabled, all yield ErrTokenInvalid.
// Backend failures are returned as-is.
func (e *Engine) Resolve(ctx context.Context, token string) (*Profile, error) {
	start := time.Now()
	defer func() {
		e.metricObserve(MetricResolveLatency, time.Since(start))
	}()

	if token == "" {
		e.metricInc(MetricResolveFailure)
		return nil, ErrTokenInvalid
	}

	tok, err := e.tokens.Validate(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenNotFound),
			errors.Is(err, session.ErrTokenExpired),
			errors.Is(err, session.ErrTokenCorrupt):
			e.metricInc(MetricResolveFailure)
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	p, err := e.users.GetByUsername(ctx, tok.Username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			e.metricInc(MetricResolveFailure)
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if p.Status == users.StatusDisabled {
		e.metricInc(MetricResolveFailure)
		return nil, ErrTokenInvalid
	}

	e.metricInc(MetricResolveSuccess)
	return &p, nil
}

// MetricsSnapshot returns the current counters. It is empty when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// StoreStats is the size of each store at one instant.
type StoreStats struct {
	Users int
	Roles int
	// Tokens includes expired tokens that no sweep or lookup has evicted yet.
	Tokens int
}

// StoreStats counts users, roles and stored session tokens. Counting tokens
// in Redis scans the key space.
func (e *Engine) StoreStats(ctx context.Context) (StoreStats, error) {
	tokens, err := e.tokens.Len(ctx)
	if err != nil {
		return StoreStats{}, fmt.Errorf("count tokens: %w", err)
	}
	return StoreStats{
		Users:  e.users.Len(),
		Roles:  e.roles.Len(),
		Tokens: tokens,
	}, nil
}

// AuditDropped reports audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close stops the sweeper and flushes the audit queue. It is safe to call
// more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		close(e.closed)
		e.sweepWG.Wait()
		if e.audit != nil {
			e.audit.Close()
			if n := e.audit.Dropped(); n > 0 {
				e.logger.Warn(context.Background(), "audit events dropped", "count", n, "by_type", e.audit.DroppedByType())
			}
		}
	})
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n int) {
	if e == nil || e.metrics == nil || n <= 0 {
		return
	}
	e.metrics.Add(id, uint64(n))
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}
