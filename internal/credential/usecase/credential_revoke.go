package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
)

type RevokeInput struct {
	CompanyID string `validate:"required"`
	ID        string `validate:"required,uuid"`
	Caller    entity.Caller
}

// Revoke moves an Active credential to Revoked. Revoking a credential that is
// already revoked reports not found, like any other non-active credential.
func (s *Usecase) Revoke(ctx context.Context, in RevokeInput) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "Revoke")
	defer span.End()

	ev := s.newAuditEvent(entity.EventCredentialRevoked, entity.MethodAPI, in.CompanyID, "", in.Caller)
	ev.CredentialID = in.ID
	defer func() { s.emitAudit(ctx, ev, err) }()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.repoDB.RevokeCredential(ctx, in.CompanyID, in.ID, s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "active credential to revoke not found", "company_id", in.CompanyID, "credential_id", in.ID)
		return nil, errCredentialNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke credential", "company_id", in.CompanyID, "credential_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ev.ExternalUserID = cred.ExternalUserID
	ev.Outcome = entity.OutcomeRevoked
	ev.Success = true

	return cred, nil
}
