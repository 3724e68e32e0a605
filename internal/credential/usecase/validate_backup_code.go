package usecase

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/mfa"
)

type ValidateBackupCodeInput struct {
	CompanyID      string `validate:"required"`
	ExternalUserID string `validate:"required,max=255"`
	Code           string `validate:"required,max=32"`
	Caller         entity.Caller
}

// ValidateBackupCode consumes a backup code at most once. The code is
// compared against every entry of the set; an unused match is spent with a
// conditional update so concurrent callers cannot both observe Valid.
func (s *Usecase) ValidateBackupCode(ctx context.Context, in ValidateBackupCodeInput) (_ *ValidateOutput, err error) {
	ctx, span := s.startSpan(ctx, "ValidateBackupCode")
	defer span.End()

	ev := s.newAuditEvent(entity.EventBackupCodeUsed, entity.MethodBackupCode, in.CompanyID, in.ExternalUserID, in.Caller)
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

	match, usedMatch, err := s.matchBackupCode(cred, mfa.NormalizeBackupCode(in.Code))
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt backup code", "company_id", cred.CompanyID, "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	result := entity.ResultInvalid
	switch {
	case match != nil:
		spent, err := s.repoDB.ConsumeBackupCode(ctx, cred.ID, match.ID, s.clock.Now())
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo consume backup code", "company_id", cred.CompanyID, "credential_id", cred.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		if spent {
			result = entity.ResultValid
		} else {
			slog.WarnContext(ctx, "backup code consumed concurrently", "company_id", cred.CompanyID, "credential_id", cred.ID)
		}
	case usedMatch:
		result = entity.ResultExhausted
	}

	s.settleAttempt(ctx, in.CompanyID, in.ExternalUserID, result == entity.ResultValid)

	ev.Outcome = result.String()
	ev.Success = result == entity.ResultValid

	return &ValidateOutput{Result: result}, nil
}

// matchBackupCode decrypts and compares every entry without exiting early. It
// returns the first unused entry equal to code and whether a used entry
// matched.
func (s *Usecase) matchBackupCode(cred *entity.Credential, code string) (*entity.BackupCode, bool, error) {
	scope := s.backupCodeScope(cred)
	input := []byte(code)

	var (
		match     *entity.BackupCode
		usedMatch bool
	)
	for i := range cred.BackupCodes {
		bc := &cred.BackupCodes[i]

		plain, err := s.encryptor.Decrypt(bc.EncryptedValue, scope)
		if err != nil {
			return nil, false, err
		}

		eq := subtle.ConstantTimeCompare(plain, input) == 1
		clear(plain)

		switch {
		case eq && bc.Used():
			usedMatch = true
		case eq && match == nil:
			match = bc
		}
	}

	return match, usedMatch, nil
}
