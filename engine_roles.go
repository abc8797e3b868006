package goIdentity

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrEthical07/goIdentity/internal/paging"
	"github.com/MrEthical07/goIdentity/roles"
)

// CreateRole stores a new role. Codes are unique across all roles.
func (e *Engine) CreateRole(ctx context.Context, req RoleRequest) (Role, error) {
	if err := checkRoleFields(&req.Name, &req.Code); err != nil {
		return Role{}, err
	}

	r, err := e.roles.Create(ctx, roles.NewRole{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		e.emitAudit(ctx, auditEventRoleCreated, false, 0, "", err, roleMeta(req.Code))
		return Role{}, err
	}

	e.metricInc(MetricRoleCreated)
	e.emitAudit(ctx, auditEventRoleCreated, true, 0, "", nil, roleMeta(r.Code))
	return r, nil
}

// GetRole returns the role with the given id.
func (e *Engine) GetRole(ctx context.Context, id int64) (Role, error) {
	return e.roles.Get(ctx, id)
}

// GetRoleByCode returns the role whose code equals code.
func (e *Engine) GetRoleByCode(ctx context.Context, code string) (Role, error) {
	return e.roles.GetByCode(ctx, code)
}

// ListRoles returns one page of roles ordered by id. The keyword matches name
// or code, case-insensitively.
func (e *Engine) ListRoles(ctx context.Context, q PageQuery) (Page[Role], error) {
	return e.roles.List(ctx, q.Normalize(e.listLimits()))
}

// UpdateRole applies a partial update. A new code must not belong to another role.
func (e *Engine) UpdateRole(ctx context.Context, id int64, upd RoleUpdate) (Role, error) {
	if err := checkRoleFields(upd.Name, upd.Code); err != nil {
		return Role{}, err
	}

	r, err := e.roles.Update(ctx, id, roles.Update{
		Name:        upd.Name,
		Code:        upd.Code,
		Description: upd.Description,
	})
	if err != nil {
		e.emitAudit(ctx, auditEventRoleUpdated, false, 0, "", err, nil)
		return Role{}, err
	}

	e.metricInc(MetricRoleUpdated)
	e.emitAudit(ctx, auditEventRoleUpdated, true, 0, "", nil, roleMeta(r.Code))
	return r, nil
}

// DeleteRole removes a role. The built-in roles (ids 1 and 2) are refused
// with ErrRoleProtected. Users holding the code keep it as a plain label.
func (e *Engine) DeleteRole(ctx context.Context, id int64) (Role, error) {
	r, err := e.roles.Delete(ctx, id)
	if err != nil {
		e.emitAudit(ctx, auditEventRoleDeleted, false, 0, "", err, nil)
		return Role{}, err
	}

	e.metricInc(MetricRoleDeleted)
	e.emitAudit(ctx, auditEventRoleDeleted, true, 0, "", nil, roleMeta(r.Code))
	return r, nil
}

func (e *Engine) listLimits() paging.Limits {
	return paging.Limits{
		DefaultPageSize: e.config.Listing.DefaultPageSize,
		MaxPageSize:     e.config.Listing.MaxPageSize,
	}
}

// checkRoleFields rejects blank names and codes. Nil pointers are skipped.
func checkRoleFields(name, code *string) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return fmt.Errorf("%w: role name must not be empty", ErrInvalidRequest)
	}
	if code != nil {
		c := *code
		if c == "" || strings.TrimSpace(c) != c || strings.ContainsAny(c, " \t\r\n") {
			return fmt.Errorf("%w: role code must be a non-empty token without whitespace", ErrInvalidRequest)
		}
	}
	return nil
}

func roleMeta(code string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"code": code}
	}
}
