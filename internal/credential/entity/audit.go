package entity

import "time"

type EventType string

const (
	EventTOTPSetup              EventType = "totp_setup"
	EventTOTPValidation         EventType = "totp_validation"
	EventBackupCodeUsed         EventType = "backup_code_used"
	EventCredentialDeleted      EventType = "credential_deleted"
	EventBackupCodesRegenerated EventType = "backup_codes_regenerated"
	EventCredentialUpdated      EventType = "credential_updated"
	EventCredentialRevoked      EventType = "credential_revoked"
)

// Outcome values recorded on audit events.
const (
	OutcomeCreated         = "created"
	OutcomeUpdated         = "updated"
	OutcomeDeleted         = "deleted"
	OutcomeRevoked         = "revoked"
	OutcomeRegenerated     = "regenerated"
	OutcomeValid           = "valid"
	OutcomeInvalid         = "invalid"
	OutcomeExhausted       = "exhausted"
	OutcomeNotFound        = "not_found"
	OutcomeDuplicate       = "duplicate"
	OutcomeValidation      = "validation_error"
	OutcomeTooManyAttempts = "too_many_attempts"
	OutcomeInternal        = "internal_error"
)

// Method values carried in audit details.
const (
	MethodTOTP       = "totp"
	MethodBackupCode = "backup_code"
	MethodAPI        = "api"
)

// Caller describes who triggered an operation. Every field is optional.
type Caller struct {
	IP         string
	UserAgent  string
	DeviceInfo string
}

type AuditEvent struct {
	ID              int64
	CompanyID       string
	ExternalUserID  string
	CredentialID    string
	EventType       EventType
	Success         bool
	Outcome         string
	Timestamp       time.Time
	CallerIP        string
	CallerUserAgent string
	Method          string
	DeviceInfo      string
}
