package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeOf(t *testing.T, err error) goerror.Code {
	t.Helper()
	require.Error(t, err)
	return goerror.CodeOf(err)
}

func TestAuthorize_DefaultRoles(t *testing.T) {
	e, err := NewEnforcer(nil)
	require.NoError(t, err)

	tests := []struct {
		role    string
		obj     string
		act     string
		allowed bool
	}{
		{role: "admin", obj: ObjCredential, act: ActManage, allowed: true},
		{role: "admin", obj: ObjAudit, act: ActRead, allowed: true},
		{role: "verifier", obj: ObjCredential, act: ActVerify, allowed: true},
		{role: "verifier", obj: ObjCredential, act: ActManage, allowed: false},
		{role: "auditor", obj: ObjAudit, act: ActRead, allowed: true},
		{role: "auditor", obj: ObjCredential, act: ActVerify, allowed: false},
		{role: "", obj: ObjCredential, act: ActVerify, allowed: false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.obj+"/"+tt.act, func(t *testing.T) {
			ctx := jwt.SetAuth(context.Background(), jwt.Claims{CompanyID: "acme", Role: tt.role})

			clm, err := Authorize(ctx, e, tt.obj, tt.act)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, "acme", clm.CompanyID)
				return
			}
			assert.Equal(t, goerror.CodeForbidden, codeOf(t, err))
		})
	}
}

func TestAuthorize_Unauthenticated(t *testing.T) {
	e, err := NewEnforcer(nil)
	require.NoError(t, err)

	_, err = Authorize(context.Background(), e, ObjCredential, ActVerify)
	assert.Equal(t, goerror.CodeUnauthorized, codeOf(t, err))

	ctx := jwt.SetAuth(context.Background(), jwt.Claims{Role: "admin"})
	_, err = Authorize(ctx, e, ObjCredential, ActVerify)
	assert.Equal(t, goerror.CodeUnauthorized, codeOf(t, err))
}

func TestNewEnforcer_ConfiguredRoles(t *testing.T) {
	e, err := NewEnforcer(map[string]string{"ops": "credential:manage audit:read"})
	require.NoError(t, err)

	ok, err := e.Enforce("ops", ObjAudit, ActRead)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Enforce("ops", ObjCredential, ActVerify)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.Enforce("admin", ObjCredential, ActVerify)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewEnforcer(map[string]string{"bad": "credential"})
	assert.True(t, errors.Is(err, ErrInvalidPermission))
}

type failingEnforcer struct{}

func (failingEnforcer) Enforce(...any) (bool, error) { return false, errors.New("broken model") }

func TestAuthorize_EnforcerError(t *testing.T) {
	ctx := jwt.SetAuth(context.Background(), jwt.Claims{CompanyID: "acme", Role: "admin"})
	_, err := Authorize(ctx, failingEnforcer{}, ObjCredential, ActVerify)
	assert.Equal(t, goerror.CodeInternal, codeOf(t, err))
}
