package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
)

type RegenerateBackupCodesInput struct {
	CompanyID      string `validate:"required"`
	ExternalUserID string `validate:"required,max=255"`
	Caller         entity.Caller
}

type RegenerateBackupCodesOutput struct {
	CredentialID string
	BackupCodes  []string
}

// RegenerateBackupCodes replaces the whole set of backup codes. Every code
// issued before, used or not, stops validating.
func (s *Usecase) RegenerateBackupCodes(ctx context.Context, in RegenerateBackupCodesInput) (_ *RegenerateBackupCodesOutput, err error) {
	ctx, span := s.startSpan(ctx, "RegenerateBackupCodes")
	defer span.End()

	ev := s.newAuditEvent(entity.EventBackupCodesRegenerated, entity.MethodAPI, in.CompanyID, in.ExternalUserID, in.Caller)
	defer func() { s.emitAudit(ctx, ev, err) }()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	cred, err := s.activeCredential(ctx, in.CompanyID, in.ExternalUserID)
	if err != nil {
		return nil, err
	}
	ev.CredentialID = cred.ID

	codes, err := s.backupCode.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate backup codes", "company_id", in.CompanyID, "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	sealed, err := s.sealBackupCodes(cred, codes, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt backup codes", "company_id", in.CompanyID, "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.ReplaceBackupCodes(ctx, in.CompanyID, cred.ID, sealed, now)
	if errors.Is(err, goerror.ErrNotFound) {
		// deleted or revoked after the read
		slog.WarnContext(ctx, "credential vanished before backup code rotation", "company_id", in.CompanyID, "credential_id", cred.ID)
		return nil, errCredentialNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo replace backup codes", "company_id", in.CompanyID, "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ev.Outcome = entity.OutcomeRegenerated
	ev.Success = true

	return &RegenerateBackupCodesOutput{CredentialID: cred.ID, BackupCodes: codes}, nil
}
