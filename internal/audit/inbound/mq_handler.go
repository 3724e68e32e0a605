package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/otpvault/internal/audit/usecase"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"github.com/shandysiswandi/otpvault/internal/pkg/messaging"
	"github.com/shandysiswandi/otpvault/internal/pkg/uid"
	"github.com/shandysiswandi/otpvault/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, d messaging.Delivery) context.Context {
	if cid := d.Header(keyOfCorrelationID); cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) RecordAuditEvent(ctx context.Context, d messaging.Delivery) error {
	ctx = h.ensureCorrelationID(ctx, d)

	ctx, span := h.ins.Tracer("audit.inbound.mq").Start(ctx, "RecordAuditEvent")
	defer span.End()

	body := d.Body()
	slog.DebugContext(ctx, "consume: audit event", "msg_id", d.ID(), "msg_body", string(body))

	var payload event.AuditEventMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of audit event", "msg_id", d.ID(), "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.Record(ctx, usecase.RecordInput{
		ID:              payload.ID,
		CompanyID:       payload.CompanyID,
		ExternalUserID:  payload.ExternalUserID,
		CredentialID:    payload.CredentialID,
		EventType:       payload.EventType,
		Success:         payload.Success,
		Outcome:         payload.Outcome,
		Timestamp:       payload.Timestamp,
		CallerIP:        payload.CallerIP,
		CallerUserAgent: payload.CallerUserAgent,
		Method:          payload.Details.Method,
		DeviceInfo:      payload.Details.DeviceInfo,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record audit event", "msg_id", d.ID(), "error", err)
		return err
	}

	return nil
}
