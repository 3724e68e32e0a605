package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpvault/internal/audit/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/valueobject"
)

type RecordInput struct {
	ID              int64  `validate:"required,gt=0"`
	CompanyID       string `validate:"required,max=64"`
	ExternalUserID  string `validate:"max=255"`
	CredentialID    string `validate:"max=64"`
	EventType       string `validate:"required,max=64"`
	Success         bool
	Outcome         string    `validate:"required,max=64"`
	Timestamp       time.Time `validate:"required"`
	CallerIP        string
	CallerUserAgent string
	Method          string
	DeviceInfo      string
}

// Record stores one audit event. Malformed events are dropped with an error
// log so the broker does not redeliver them forever.
func (s *Usecase) Record(ctx context.Context, in RecordInput) error {
	ctx, span := s.startSpan(ctx, "Record")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "event_id", in.ID, "error", err)
		return nil
	}

	details := valueobject.JSONMap{}
	if in.Method != "" {
		details["method"] = in.Method
	}
	if in.DeviceInfo != "" {
		details["device_info"] = in.DeviceInfo
	}

	ev := entity.Event{
		ID:              in.ID,
		CompanyID:       in.CompanyID,
		ExternalUserID:  in.ExternalUserID,
		CredentialID:    in.CredentialID,
		EventType:       in.EventType,
		Success:         in.Success,
		Outcome:         in.Outcome,
		CallerIP:        in.CallerIP,
		CallerUserAgent: in.CallerUserAgent,
		Details:         details,
		OccurredAt:      in.Timestamp,
	}

	inserted, err := s.repoDB.RecordEvent(ctx, ev)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo record event", "event_id", in.ID, "company_id", in.CompanyID, "error", err)
		return err
	}

	if !inserted {
		slog.InfoContext(ctx, "audit event already recorded", "event_id", in.ID)
		return nil
	}

	if ev.PurgesUsage() {
		slog.InfoContext(ctx, "usage history purged", "company_id", in.CompanyID, "credential_id", in.CredentialID)
	}

	return nil
}
