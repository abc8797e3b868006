package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/goIdentity/users"
)

// CreateUser hashes the password and stores a new enabled account.
func (e *Engine) CreateUser(ctx context.Context, req CreateUserRequest) (Profile, error) {
	if err := e.checkUsername(req.Username); err != nil {
		return Profile{}, err
	}
	if err := e.checkPassword(req.Password); err != nil {
		return Profile{}, err
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = e.config.Account.DefaultRole
	}

	// Hash outside any store lock; Argon2 is the slow part.
	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return Profile{}, err
	}

	p, err := e.users.Create(ctx, users.NewUser{
		Username:     req.Username,
		PasswordHash: hash,
		RealName:     req.RealName,
		Email:        req.Email,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, users.ErrAlreadyExists) {
			e.metricInc(MetricUserDuplicate)
		}
		e.emitAudit(ctx, auditEventUserCreated, false, 0, req.Username, err, nil)
		return Profile{}, err
	}

	e.metricInc(MetricUserCreated)
	e.emitAudit(ctx, auditEventUserCreated, true, p.ID, p.Username, nil, nil)
	return p, nil
}

// GetUser returns the profile with the given id.
func (e *Engine) GetUser(ctx context.Context, id int64) (Profile, error) {
	return e.users.Get(ctx, id)
}

// GetUserByUsername returns the profile for username.
func (e *Engine) GetUserByUsername(ctx context.Context, username string) (Profile, error) {
	return e.users.GetByUsername(ctx, username)
}

// ListUsers returns one page of users ordered by id. The keyword matches
// username or real name, case-insensitively.
func (e *Engine) ListUsers(ctx context.Context, q PageQuery) (Page[Profile], error) {
	return e.users.List(ctx, q.Normalize(e.listLimits()))
}

// UpdateUser applies a partial update. Disabling the account or setting a new
// password revokes every token the user holds.
func (e *Engine) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (Profile, error) {
	change := users.Update{
		RealName: upd.RealName,
		Email:    upd.Email,
		Role:     upd.Role,
		Status:   upd.Status,
	}
	if upd.Status != nil && *upd.Status != users.StatusEnabled && *upd.Status != users.StatusDisabled {
		return Profile{}, fmt.Errorf("%w: unknown status %d", ErrInvalidRequest, *upd.Status)
	}
	if upd.Role != nil {
		role := strings.TrimSpace(*upd.Role)
		if role == "" {
			return Profile{}, fmt.Errorf("%w: role must not be empty", ErrInvalidRequest)
		}
		change.Role = &role
	}
	if upd.Password != "" {
		if err := e.checkPassword(upd.Password); err != nil {
			return Profile{}, err
		}
		hash, err := e.hasher.Hash(upd.Password)
		if err != nil {
			return Profile{}, err
		}
		change.PasswordHash = hash
	}

	p, err := e.users.Update(ctx, id, change)
	if err != nil {
		e.emitAudit(ctx, auditEventUserUpdated, false, id, "", err, nil)
		return Profile{}, err
	}

	if change.PasswordHash != "" || p.Status == users.StatusDisabled {
		e.revokeUserTokens(ctx, p.Username)
	}

	e.metricInc(MetricUserUpdated)
	e.emitAudit(ctx, auditEventUserUpdated, true, p.ID, p.Username, nil, func() map[string]string {
		return updatedFields(upd)
	})
	return p, nil
}

// DeleteUser removes the account and its tokens. The built-in administrator
// (id 1) is refused with ErrUserProtected.
func (e *Engine) DeleteUser(ctx context.Context, id int64) (Profile, error) {
	p, err := e.users.Delete(ctx, id)
	if err != nil {
		e.emitAudit(ctx, auditEventUserDeleted, false, id, "", err, nil)
		return Profile{}, err
	}

	e.revokeUserTokens(ctx, p.Username)

	e.metricInc(MetricUserDeleted)
	e.emitAudit(ctx, auditEventUserDeleted, true, p.ID, p.Username, nil, nil)
	return p, nil
}

// ChangePassword replaces the password after verifying the current one, then
// revokes every token the user holds. A disabled account cannot change its
// password and gets ErrAccountDisabled once the old password checks out. If
// the password changes concurrently, the later writer gets
// ErrInvalidCredentials.
func (e *Engine) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	rec, err := e.users.Credentials(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// Same hashing cost as a wrong password.
			_, _ = e.hasher.Verify(oldPassword, e.dummyHash)
			return ErrInvalidCredentials
		}
		return err
	}

	ok, err := e.hasher.Verify(oldPassword, rec.PasswordHash)
	if err != nil || !ok {
		e.emitAudit(ctx, auditEventPasswordChanged, false, rec.ID, username, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}
	if rec.Status == users.StatusDisabled {
		e.emitAudit(ctx, auditEventPasswordChanged, false, rec.ID, username, ErrAccountDisabled, nil)
		return ErrAccountDisabled
	}
	if oldPassword == newPassword {
		e.emitAudit(ctx, auditEventPasswordChanged, false, rec.ID, username, ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}
	if err := e.checkPassword(newPassword); err != nil {
		e.emitAudit(ctx, auditEventPasswordChanged, false, rec.ID, username, err, nil)
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	swapped, err := e.users.ReplaceHash(ctx, rec.ID, rec.PasswordHash, hash)
	if err != nil {
		return err
	}
	if !swapped {
		e.emitAudit(ctx, auditEventPasswordChanged, false, rec.ID, username, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	e.revokeUserTokens(ctx, username)

	e.metricInc(MetricPasswordChanged)
	e.emitAudit(ctx, auditEventPasswordChanged, true, rec.ID, username, nil, nil)
	return nil
}

// revokeUserTokens drops every token for username. Resolve already rejects
// tokens of deleted or disabled users, so a failure here is logged only.
func (e *Engine) revokeUserTokens(ctx context.Context, username string) {
	n, err := e.tokens.RevokeUser(ctx, username)
	if err != nil {
		e.logger.Error(ctx, "revoke user tokens failed", "username", username, "error", err)
		return
	}
	e.metricAdd(MetricTokensRevoked, n)
}

func (e *Engine) checkUsername(username string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: username must not be empty", ErrInvalidRequest)
	case strings.TrimSpace(username) != username:
		return fmt.Errorf("%w: username must not start or end with whitespace", ErrInvalidRequest)
	case len(username) > e.config.Account.MaxUsernameLength:
		return fmt.Errorf("%w: username longer than %d bytes", ErrInvalidRequest, e.config.Account.MaxUsernameLength)
	case !utf8.ValidString(username):
		return fmt.Errorf("%w: username is not valid UTF-8", ErrInvalidRequest)
	}
	return nil
}

func (e *Engine) checkPassword(pass string) error {
	if utf8.RuneCountInString(pass) < e.config.Password.MinLength {
		return fmt.Errorf("%w: password shorter than %d characters", ErrPasswordPolicy, e.config.Password.MinLength)
	}
	if len(pass) > e.maxPasswordBytes {
		return fmt.Errorf("%w: password longer than %d bytes", ErrPasswordPolicy, e.maxPasswordBytes)
	}
	return nil
}

func updatedFields(upd UserUpdate) map[string]string {
	m := make(map[string]string, 4)
	if upd.RealName != nil {
		m["realname"] = "changed"
	}
	if upd.Email != nil {
		m["email"] = "changed"
	}
	if upd.Role != nil {
		m["role"] = *upd.Role
	}
	if upd.Status != nil {
		m["status"] = upd.Status.String()
	}
	if upd.Password != "" {
		m["password"] = "changed"
	}
	return m
}
