package entity

import (
	"time"

	"github.com/shandysiswandi/otpvault/internal/pkg/valueobject"
)

// Credential binds a tenant, an external user, an encrypted TOTP seed and its
// backup codes. The seed plaintext never lives on this struct.
type Credential struct {
	ID              string
	CompanyID       string
	ExternalUserID  string
	EncryptedSecret []byte
	KeyVersion      uint16
	BackupCodes     []BackupCode
	Metadata        valueobject.JSONMap
	Status          CredentialStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastUsedAt      *time.Time
	RevokedAt       *time.Time
}

func (c *Credential) IsActive() bool {
	return c != nil && c.Status == CredentialStatusActive
}

// RemainingBackupCodes counts unused codes of the loaded set.
func (c *Credential) RemainingBackupCodes() int {
	if c == nil {
		return 0
	}

	n := 0
	for i := range c.BackupCodes {
		if !c.BackupCodes[i].Used() {
			n++
		}
	}
	return n
}

type BackupCode struct {
	ID             int64
	CredentialID   string
	Position       int16
	EncryptedValue []byte
	UsedAt         *time.Time
	CreatedAt      time.Time
}

func (b BackupCode) Used() bool {
	return b.UsedAt != nil
}

type CredentialListFilter struct {
	CompanyID string
	Status    CredentialStatus // zero means any status
	Search    string           // prefix of external user id, already trimmed
	Size      int32
	Offset    int32
}

// CredentialPatch carries the non-secret fields an update may change.
// A nil field is left untouched.
type CredentialPatch struct {
	ExternalUserID *string
	Metadata       valueobject.JSONMap
	UpdatedAt      time.Time
}
