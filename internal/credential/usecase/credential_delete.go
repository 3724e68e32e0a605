package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
)

type DeleteInput struct {
	CompanyID string `validate:"required"`
	ID        string `validate:"required,uuid"`
	Caller    entity.Caller
}

// Delete removes the credential and its backup codes. The emitted
// credential_deleted event lets the audit store purge the user's usage
// history.
func (s *Usecase) Delete(ctx context.Context, in DeleteInput) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer span.End()

	ev := s.newAuditEvent(entity.EventCredentialDeleted, entity.MethodAPI, in.CompanyID, "", in.Caller)
	ev.CredentialID = in.ID
	defer func() { s.emitAudit(ctx, ev, err) }()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	cred, err := s.repoDB.DeleteCredential(ctx, in.CompanyID, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "credential to delete not found", "company_id", in.CompanyID, "credential_id", in.ID)
		return errCredentialNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete credential", "company_id", in.CompanyID, "credential_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "credential deleted", "company_id", in.CompanyID, "credential_id", in.ID)

	ev.ExternalUserID = cred.ExternalUserID
	ev.Outcome = entity.OutcomeDeleted
	ev.Success = true

	return nil
}
