// Package authz decides which tenant roles may call which endpoints.
//
// Policies are plain role to permission lists loaded from configuration into
// an in-memory casbin RBAC enforcer. The role comes from the verified token.
package authz

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/jwt"
)

const (
	ObjCredential = "credential"
	ObjAudit      = "audit"

	ActManage = "manage"
	ActVerify = "verify"
	ActRead   = "read"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// ErrInvalidPermission is returned for a permission not written as obj:act.
var ErrInvalidPermission = errors.New("authz: permission must be obj:act")

// Enforcer is the decision function of a casbin enforcer.
type Enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

// DefaultRoles is used when no roles are configured.
func DefaultRoles() map[string]string {
	return map[string]string{
		"admin":    "*:*",
		"verifier": ObjCredential + ":" + ActVerify,
		"auditor":  ObjAudit + ":" + ActRead,
	}
}

// NewEnforcer builds an enforcer from role to permissions, where permissions
// are space separated obj:act pairs ("credential:manage audit:read").
func NewEnforcer(roles map[string]string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	if len(roles) == 0 {
		roles = DefaultRoles()
	}

	for role, perms := range roles {
		for _, perm := range strings.Fields(perms) {
			obj, act, ok := strings.Cut(perm, ":")
			if !ok || obj == "" || act == "" {
				return nil, ErrInvalidPermission
			}
			if _, err := e.AddPolicy(role, obj, act); err != nil {
				return nil, err
			}
		}
	}

	return e, nil
}

// Authorize checks that the caller in ctx is authenticated and that its role
// may perform act on obj.
func Authorize(ctx context.Context, e Enforcer, obj, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.CompanyID == "" {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	ok, err := e.Enforce(clm.Role, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "company_id", clm.CompanyID, "role", clm.Role, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		slog.WarnContext(ctx, "role not allowed", "company_id", clm.CompanyID, "role", clm.Role, "obj", obj, "act", act)
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}
