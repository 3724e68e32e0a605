package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/goerror"
)

func (s *Usecase) newAuditEvent(et entity.EventType, method, companyID, externalUserID string, caller entity.Caller) *entity.AuditEvent {
	return &entity.AuditEvent{
		CompanyID:       companyID,
		ExternalUserID:  externalUserID,
		EventType:       et,
		CallerIP:        caller.IP,
		CallerUserAgent: caller.UserAgent,
		Method:          method,
		DeviceInfo:      caller.DeviceInfo,
	}
}

// emitAudit hands ev to the audit sink. When ev has no outcome yet it is
// derived from err. A sink failure is logged and never changes the result
// of the operation.
func (s *Usecase) emitAudit(ctx context.Context, ev *entity.AuditEvent, err error) {
	if ev.Outcome == "" {
		ev.Outcome = outcomeOf(err)
	}
	if err != nil {
		ev.Success = false
	}
	ev.ID = s.uid.Generate()
	ev.Timestamp = s.clock.Now()

	if pubErr := s.repoMessaging.PublishAuditEvent(context.WithoutCancel(ctx), *ev); pubErr != nil {
		slog.ErrorContext(ctx, "failed to publish audit event",
			"company_id", ev.CompanyID,
			"credential_id", ev.CredentialID,
			"event_type", ev.EventType,
			"error", pubErr,
		)
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return ""
	}

	switch goerror.CodeOf(err) {
	case goerror.CodeNotFound:
		return entity.OutcomeNotFound
	case goerror.CodeConflict:
		return entity.OutcomeDuplicate
	case goerror.CodeInvalidInput, goerror.CodeInvalidFormat:
		return entity.OutcomeValidation
	case goerror.CodeTooManyRequest:
		return entity.OutcomeTooManyAttempts
	default:
		return entity.OutcomeInternal
	}
}
