package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpvault/internal/pkg/mfa"
	"github.com/shandysiswandi/otpvault/internal/pkg/qrcode"
	"github.com/shandysiswandi/otpvault/internal/pkg/valueobject"
)

type CreateInput struct {
	CompanyID      string `validate:"required,max=64,identifier"`
	ExternalUserID string `validate:"required,max=255"`
	Metadata       valueobject.JSONMap
	IdempotencyKey string `validate:"omitempty,max=128"`
	Caller         entity.Caller
}

// CreateOutput carries the plaintext secret and backup codes. They are
// returned here once and never again.
type CreateOutput struct {
	Credential      entity.Credential
	Secret          string
	ProvisioningURI string
	QRCode          string
	BackupCodes     []string
}

func (s *Usecase) Create(ctx context.Context, in CreateInput) (out *CreateOutput, err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer span.End()

	ev := s.newAuditEvent(entity.EventTOTPSetup, entity.MethodAPI, in.CompanyID, in.ExternalUserID, in.Caller)
	defer func() { s.emitAudit(ctx, ev, err) }()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.IdempotencyKey == "" {
		out, err = s.create(ctx, in)
	} else {
		out, err = s.createOnce(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	ev.CredentialID = out.Credential.ID
	ev.Outcome = entity.OutcomeCreated
	ev.Success = true

	return out, nil
}

// createOnce runs create at most once per idempotency key and tenant. A
// replayed key never returns the secret again.
func (s *Usecase) createOnce(ctx context.Context, in CreateInput) (*CreateOutput, error) {
	fp, err := s.hmac.Hash(in.CompanyID + ":" + in.IdempotencyKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash idempotency key", "company_id", in.CompanyID, "error", err)
		return nil, goerror.NewServer(err)
	}

	var (
		out       *CreateOutput
		createErr error
	)
	err = s.idemp.Exec(ctx, "credential:create:"+string(fp), func(ctx context.Context) error {
		out, createErr = s.create(ctx, in)
		return createErr
	}, idempotency.WithStateTTL(s.cfg.GetMinute("modules.credential.idempotency_ttl_minutes")))

	switch {
	case createErr != nil:
		return nil, createErr
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.WarnContext(ctx, "idempotency key replayed", "company_id", in.CompanyID, "external_user_id", in.ExternalUserID)
		return nil, errAlreadyProcessed
	case err != nil && out != nil:
		// the credential exists; losing the completion marker only weakens replay protection
		slog.WarnContext(ctx, "failed to mark idempotency key completed", "company_id", in.CompanyID, "error", err)
		return out, nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to acquire idempotency key", "company_id", in.CompanyID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return out, nil
}

func (s *Usecase) create(ctx context.Context, in CreateInput) (*CreateOutput, error) {
	key, err := s.totp.Generate(in.ExternalUserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "company_id", in.CompanyID, "external_user_id", in.ExternalUserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	qr, err := qrcode.DataURI(key.URI, s.cfg.GetInt("modules.credential.qr_size"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to render provisioning qr code", "company_id", in.CompanyID, "external_user_id", in.ExternalUserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codes, err := s.backupCode.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate backup codes", "company_id", in.CompanyID, "external_user_id", in.ExternalUserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	metadata := in.Metadata.Clone()
	if metadata == nil {
		metadata = valueobject.JSONMap{}
	}

	now := s.clock.Now()
	cred := entity.Credential{
		ID:             s.uuid.Generate(),
		CompanyID:      in.CompanyID,
		ExternalUserID: in.ExternalUserID,
		Metadata:       metadata,
		Status:         entity.CredentialStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	cred.EncryptedSecret, err = s.encryptor.Encrypt([]byte(key.Secret), s.secretScope(&cred))
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "company_id", in.CompanyID, "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	cred.KeyVersion, err = mfa.KeyVersion(cred.EncryptedSecret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read key version", "company_id", in.CompanyID, "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	cred.BackupCodes, err = s.sealBackupCodes(&cred, codes, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt backup codes", "company_id", in.CompanyID, "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.NewCredential(ctx, cred)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "active credential already exists", "company_id", in.CompanyID, "external_user_id", in.ExternalUserID)
		return nil, errCredentialDuplicate
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo new credential", "company_id", in.CompanyID, "credential_id", cred.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "credential created", "company_id", cred.CompanyID, "credential_id", cred.ID, "key_version", cred.KeyVersion)

	return &CreateOutput{
		Credential:      cred,
		Secret:          key.Secret,
		ProvisioningURI: key.URI,
		QRCode:          qr,
		BackupCodes:     codes,
	}, nil
}
