package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/otpvault/internal/pkg/valueobject"
)

type AuditEventResponse struct {
	ID              int64               `json:"id,string"`
	ExternalUserID  string              `json:"external_user_id,omitempty"`
	CredentialID    string              `json:"credential_id,omitempty"`
	EventType       string              `json:"event_type"`
	Success         bool                `json:"success"`
	Outcome         string              `json:"outcome"`
	CallerIP        string              `json:"caller_ip,omitempty"`
	CallerUserAgent string              `json:"caller_user_agent,omitempty"`
	Details         valueobject.JSONMap `json:"details,omitempty"`
	OccurredAt      time.Time           `json:"occurred_at"`
}

type AuditEventsResponse struct {
	Events []AuditEventResponse `json:"events"`
	// meta
	total int64
	size  int32
	page  int32
}

func (r AuditEventsResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type AuditExportRequest struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

type AuditExportResponse struct {
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (AuditExportResponse) StatusCode() int { return http.StatusCreated }
