package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
)

type ValidateTokenInput struct {
	CompanyID      string `validate:"required"`
	ExternalUserID string `validate:"required,max=255"`
	Token          string `validate:"required,max=16"`
	Caller         entity.Caller
}

type ValidateOutput struct {
	Result entity.Result
}

// ValidateToken checks a TOTP token against the window around now. A wrong
// token is an Invalid result, never an error.
func (s *Usecase) ValidateToken(ctx context.Context, in ValidateTokenInput) (_ *ValidateOutput, err error) {
	ctx, span := s.startSpan(ctx, "ValidateToken")
	defer span.End()

	ev := s.newAuditEvent(entity.EventTOTPValidation, entity.MethodTOTP, in.CompanyID, in.ExternalUserID, in.Caller)
	defer func() { s.emitAudit(ctx, ev, err) }()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.reserveAttempt(ctx, in.CompanyID, in.ExternalUserID); err != nil {
		return nil, err
	}

	cred, err := s.activeCredential(ctx, in.CompanyID, in.ExternalUserID)
	if err != nil {
		return nil, err
	}
	ev.CredentialID = cred.ID

	secret, err := s.encryptor.Decrypt(cred.EncryptedSecret, s.secretScope(cred))
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "company_id", cred.CompanyID, "credential_id", cred.ID, "key_version", cred.KeyVersion, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	ok, err := s.totp.Validate(in.Token, string(secret), now)
	clear(secret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to validate totp token", "company_id", cred.CompanyID, "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.settleAttempt(ctx, in.CompanyID, in.ExternalUserID, ok)

	if !ok {
		ev.Outcome = entity.OutcomeInvalid
		return &ValidateOutput{Result: entity.ResultInvalid}, nil
	}

	if err := s.repoDB.TouchLastUsed(ctx, cred.CompanyID, cred.ID, now); err != nil {
		slog.WarnContext(ctx, "failed to repo touch last used", "company_id", cred.CompanyID, "credential_id", cred.ID, "error", err)
	}

	ev.Outcome = entity.OutcomeValid
	ev.Success = true

	return &ValidateOutput{Result: entity.ResultValid}, nil
}
