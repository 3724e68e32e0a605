package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/valueobject"
)

type CredentialCreateRequest struct {
	ExternalUserID string              `json:"external_user_id"`
	Metadata       valueobject.JSONMap `json:"metadata,omitempty"`
}

type CredentialUpdateRequest struct {
	ExternalUserID *string             `json:"external_user_id,omitempty"`
	Metadata       valueobject.JSONMap `json:"metadata,omitempty"`
}

type VerifyTOTPRequest struct {
	ExternalUserID string `json:"external_user_id"`
	Token          string `json:"token"`
}

type VerifyBackupCodeRequest struct {
	ExternalUserID string `json:"external_user_id"`
	Code           string `json:"code"`
}

type CredentialResponse struct {
	ID                   string              `json:"id"`
	ExternalUserID       string              `json:"external_user_id"`
	Status               string              `json:"status"`
	KeyVersion           uint16              `json:"key_version"`
	RemainingBackupCodes int                 `json:"remaining_backup_codes"`
	Metadata             valueobject.JSONMap `json:"metadata,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	LastUsedAt           *time.Time          `json:"last_used_at,omitempty"`
	RevokedAt            *time.Time          `json:"revoked_at,omitempty"`
}

func newCredentialResponse(c entity.Credential) CredentialResponse {
	return CredentialResponse{
		ID:                   c.ID,
		ExternalUserID:       c.ExternalUserID,
		Status:               c.Status.String(),
		KeyVersion:           c.KeyVersion,
		RemainingBackupCodes: c.RemainingBackupCodes(),
		Metadata:             c.Metadata,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
		LastUsedAt:           c.LastUsedAt,
		RevokedAt:            c.RevokedAt,
	}
}

// CredentialCreateResponse is the only response that ever carries the
// plaintext secret and backup codes.
type CredentialCreateResponse struct {
	Credential      CredentialResponse `json:"credential"`
	Secret          string             `json:"secret"`
	ProvisioningURI string             `json:"provisioning_uri"`
	QRCode          string             `json:"qr_code"`
	BackupCodes     []string           `json:"backup_codes"`
}

func (CredentialCreateResponse) StatusCode() int { return http.StatusCreated }

func (CredentialCreateResponse) Message() string { return "credential has been created" }

type CredentialDetailResponse struct {
	Credential CredentialResponse `json:"credential"`
}

type CredentialsResponse struct {
	Credentials []CredentialResponse `json:"credentials"`
	// meta
	total int64
	size  int32
	page  int32
}

func (r CredentialsResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type BackupCodesResponse struct {
	CredentialID string   `json:"credential_id"`
	BackupCodes  []string `json:"backup_codes"`
}

type VerifyResponse struct {
	Result string `json:"result"`
}
