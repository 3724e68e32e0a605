package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/valueobject"
)

type UpdateInput struct {
	CompanyID      string  `validate:"required"`
	ID             string  `validate:"required,uuid"`
	ExternalUserID *string `validate:"omitempty,min=1,max=255"`
	Metadata       valueobject.JSONMap
	Caller         entity.Caller
}

// Update changes non-secret fields only. Renaming onto an external user id
// that already owns an Active credential is a conflict.
func (s *Usecase) Update(ctx context.Context, in UpdateInput) (_ *entity.Credential, err error) {
	ctx, span := s.startSpan(ctx, "Update")
	defer span.End()

	ev := s.newAuditEvent(entity.EventCredentialUpdated, entity.MethodAPI, in.CompanyID, "", in.Caller)
	ev.CredentialID = in.ID
	defer func() { s.emitAudit(ctx, ev, err) }()

	if in.ExternalUserID != nil {
		trimmed := strings.TrimSpace(*in.ExternalUserID)
		in.ExternalUserID = &trimmed
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.ExternalUserID == nil && in.Metadata == nil {
		return nil, goerror.NewInvalidInput(nil, "external_user_id", "nothing to update")
	}

	cred, err := s.repoDB.UpdateCredential(ctx, in.CompanyID, in.ID, entity.CredentialPatch{
		ExternalUserID: in.ExternalUserID,
		Metadata:       in.Metadata.Clone(),
		UpdatedAt:      s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "credential to update not found", "company_id", in.CompanyID, "credential_id", in.ID)
		return nil, errCredentialNotFound
	}
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "credential rename collides with an active credential", "company_id", in.CompanyID, "credential_id", in.ID)
		return nil, errCredentialDuplicate
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update credential", "company_id", in.CompanyID, "credential_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ev.ExternalUserID = cred.ExternalUserID
	ev.Outcome = entity.OutcomeUpdated
	ev.Success = true

	return cred, nil
}
