package event

import "time"

const AuditEventDestination string = "otp_audit_event"
const AuditEventConsumerRecorder string = "otp_audit_event_recorder"

// AuditEventMessage is the wire form of one credential audit event.
type AuditEventMessage struct {
	ID              int64             `json:"id,string"`
	CompanyID       string            `json:"companyId"`
	ExternalUserID  string            `json:"externalUserId,omitempty"`
	CredentialID    string            `json:"credentialId,omitempty"`
	EventType       string            `json:"eventType"`
	Success         bool              `json:"success"`
	Outcome         string            `json:"outcome"`
	Timestamp       time.Time         `json:"timestamp"`
	CallerIP        string            `json:"callerIp,omitempty"`
	CallerUserAgent string            `json:"callerUserAgent,omitempty"`
	Details         AuditEventDetails `json:"details"`
}

type AuditEventDetails struct {
	Method     string `json:"method"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
}
