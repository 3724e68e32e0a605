package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/clock"
	"github.com/shandysiswandi/otpvault/internal/pkg/config"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
	"github.com/shandysiswandi/otpvault/internal/pkg/hash"
	"github.com/shandysiswandi/otpvault/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"github.com/shandysiswandi/otpvault/internal/pkg/mfa"
	"github.com/shandysiswandi/otpvault/internal/pkg/otp"
	"github.com/shandysiswandi/otpvault/internal/pkg/uid"
	"github.com/shandysiswandi/otpvault/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

var (
	errCredentialNotFound  = goerror.NewBusiness("credential not found", goerror.CodeNotFound)
	errCredentialDuplicate = goerror.NewBusiness("credential already exists", goerror.CodeConflict)
	errTooManyAttempts     = goerror.NewBusiness("too many failed attempts, try again later", goerror.CodeTooManyRequest)
	errAlreadyProcessed    = goerror.NewBusiness("request already processed", goerror.CodeConflict)
)

type repoDB interface {
	GetCredential(ctx context.Context, companyID, id string) (*entity.Credential, error)
	GetCredentialByExternalUserID(ctx context.Context, companyID, externalUserID string) (*entity.Credential, error)
	GetActiveCredential(ctx context.Context, companyID, externalUserID string) (*entity.Credential, error)
	ListCredentials(ctx context.Context, filter entity.CredentialListFilter) ([]entity.Credential, int64, error)

	NewCredential(ctx context.Context, cred entity.Credential) error
	UpdateCredential(ctx context.Context, companyID, id string, patch entity.CredentialPatch) (*entity.Credential, error)
	RevokeCredential(ctx context.Context, companyID, id string, at time.Time) (*entity.Credential, error)
	DeleteCredential(ctx context.Context, companyID, id string) (*entity.Credential, error)
	ReplaceBackupCodes(ctx context.Context, companyID, credentialID string, codes []entity.BackupCode, at time.Time) error
	ConsumeBackupCode(ctx context.Context, credentialID string, codeID int64, at time.Time) (bool, error)
	TouchLastUsed(ctx context.Context, companyID, credentialID string, at time.Time) error
}

// repoMessaging is the audit sink.
type repoMessaging interface {
	PublishAuditEvent(ctx context.Context, ev entity.AuditEvent) error
}

// repoCache counts verification attempts per tenant user until one succeeds.
type repoCache interface {
	IncrFailedAttempts(ctx context.Context, companyID, externalUserID string, window time.Duration) (int64, error)
	ResetFailedAttempts(ctx context.Context, companyID, externalUserID string) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoCache     repoCache
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	encryptor     mfa.Encryptor
	backupCode    mfa.BackupCodeGenerator
	uid           uid.NumberID
	uuid          uid.StringID
	totp          otp.OTP
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoCache     repoCache
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Encryptor     mfa.Encryptor
	BackupCode    mfa.BackupCodeGenerator
	UID           uid.NumberID
	UUID          uid.StringID
	Totp          otp.OTP
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoCache:     dep.RepoCache,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		encryptor:     dep.Encryptor,
		backupCode:    dep.BackupCode,
		uid:           dep.UID,
		uuid:          dep.UUID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("credential.usecase").Start(ctx, name)
}

// activeCredential loads the Active credential of a tenant user. Absent,
// revoked and foreign credentials all map to the same not found error.
func (s *Usecase) activeCredential(ctx context.Context, companyID, externalUserID string) (*entity.Credential, error) {
	cred, err := s.repoDB.GetActiveCredential(ctx, companyID, externalUserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "active credential not found", "company_id", companyID, "external_user_id", externalUserID)
		return nil, errCredentialNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active credential", "company_id", companyID, "external_user_id", externalUserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return cred, nil
}

func (s *Usecase) secretScope(cred *entity.Credential) mfa.Scope {
	return mfa.Scope{CompanyID: cred.CompanyID, Subject: cred.ID, Purpose: mfa.PurposeOTPSeed}
}

func (s *Usecase) backupCodeScope(cred *entity.Credential) mfa.Scope {
	return mfa.Scope{CompanyID: cred.CompanyID, Subject: cred.ID, Purpose: mfa.PurposeBackupCode}
}

// sealBackupCodes encrypts plaintext codes for cred in position order.
func (s *Usecase) sealBackupCodes(cred *entity.Credential, codes []string, now time.Time) ([]entity.BackupCode, error) {
	scope := s.backupCodeScope(cred)
	sealed := make([]entity.BackupCode, 0, len(codes))
	for i, code := range codes {
		ct, err := s.encryptor.Encrypt([]byte(code), scope)
		if err != nil {
			return nil, err
		}

		sealed = append(sealed, entity.BackupCode{
			ID:             s.uid.Generate(),
			CredentialID:   cred.ID,
			Position:       int16(i),
			EncryptedValue: ct,
			CreatedAt:      now,
		})
	}

	return sealed, nil
}
