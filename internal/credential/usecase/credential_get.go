package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
)

type GetInput struct {
	CompanyID string `validate:"required"`
	ID        string `validate:"required,uuid"`
}

type GetByExternalUserIDInput struct {
	CompanyID      string `validate:"required"`
	ExternalUserID string `validate:"required,max=255"`
}

// Get returns a credential of the tenant without touching its secret.
func (s *Usecase) Get(ctx context.Context, in GetInput) (*entity.Credential, error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoDB.GetCredential(ctx, in.CompanyID, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "credential not found", "company_id", in.CompanyID, "credential_id", in.ID)
		return nil, errCredentialNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential", "company_id", in.CompanyID, "credential_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return cred, nil
}

// GetByExternalUserID prefers the Active credential of the user and falls
// back to the most recently revoked one.
func (s *Usecase) GetByExternalUserID(ctx context.Context, in GetByExternalUserIDInput) (*entity.Credential, error) {
	ctx, span := s.startSpan(ctx, "GetByExternalUserID")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoDB.GetCredentialByExternalUserID(ctx, in.CompanyID, in.ExternalUserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "credential not found", "company_id", in.CompanyID, "external_user_id", in.ExternalUserID)
		return nil, errCredentialNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential by external user id", "company_id", in.CompanyID, "external_user_id", in.ExternalUserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return cred, nil
}
