package inbound

import (
	"context"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/credential/usecase"
	"github.com/shandysiswandi/otpvault/internal/pkg/authz"
	"github.com/shandysiswandi/otpvault/internal/pkg/router"
)

type uc interface {
	Create(ctx context.Context, in usecase.CreateInput) (*usecase.CreateOutput, error)
	Get(ctx context.Context, in usecase.GetInput) (*entity.Credential, error)
	GetByExternalUserID(ctx context.Context, in usecase.GetByExternalUserIDInput) (*entity.Credential, error)
	List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
	Update(ctx context.Context, in usecase.UpdateInput) (*entity.Credential, error)
	Revoke(ctx context.Context, in usecase.RevokeInput) (*entity.Credential, error)
	Delete(ctx context.Context, in usecase.DeleteInput) error

	RegenerateBackupCodes(ctx context.Context, in usecase.RegenerateBackupCodesInput) (*usecase.RegenerateBackupCodesOutput, error)

	ValidateToken(ctx context.Context, in usecase.ValidateTokenInput) (*usecase.ValidateOutput, error)
	ValidateBackupCode(ctx context.Context, in usecase.ValidateBackupCodeInput) (*usecase.ValidateOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, enforcer authz.Enforcer) {
	end := &HTTPEndpoint{uc: uc, enforcer: enforcer}

	// Credential Management
	r.POST("/api/v1/credentials", end.Create)
	r.GET("/api/v1/credentials", end.List)
	r.GET("/api/v1/credentials/:id", end.Get)
	r.PUT("/api/v1/credentials/:id", end.Update)
	r.DELETE("/api/v1/credentials/:id", end.Delete)
	r.POST("/api/v1/credentials/:id/revoke", end.Revoke)
	//
	r.GET("/api/v1/external-users/:external_user_id/credential", end.GetByExternalUserID)
	r.POST("/api/v1/external-users/:external_user_id/backup-codes", end.RegenerateBackupCodes)

	// Verification
	r.POST("/api/v1/verify/totp", end.VerifyTOTP)
	r.POST("/api/v1/verify/backup-code", end.VerifyBackupCode)
}
