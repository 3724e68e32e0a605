package entity

import (
	"time"

	"github.com/shandysiswandi/otpvault/internal/pkg/valueobject"
)

// Event types the recorder treats specially.
const (
	EventTOTPValidation    = "totp_validation"
	EventBackupCodeUsed    = "backup_code_used"
	EventCredentialDeleted = "credential_deleted"
)

// UsageEventTypes are removed together with the credential they belong to.
var UsageEventTypes = []string{EventTOTPValidation, EventBackupCodeUsed}

type Event struct {
	ID              int64
	CompanyID       string
	ExternalUserID  string
	CredentialID    string
	EventType       string
	Success         bool
	Outcome         string
	CallerIP        string
	CallerUserAgent string
	Details         valueobject.JSONMap
	OccurredAt      time.Time
	RecordedAt      time.Time
}

// PurgesUsage reports whether storing e must also drop the usage history of
// the deleted credential. Other credentials of the same external user keep
// theirs.
func (e Event) PurgesUsage() bool {
	return e.EventType == EventCredentialDeleted && e.Success && e.CredentialID != ""
}

type EventFilter struct {
	CompanyID      string
	ExternalUserID string
	EventType      string
	From           time.Time
	To             time.Time
	Size           int32
	Offset         int32
}
