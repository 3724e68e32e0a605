package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpvault/internal/credential/entity"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"github.com/shandysiswandi/otpvault/internal/pkg/messaging"
	"github.com/shandysiswandi/otpvault/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// Messaging is the audit sink backed by the message broker.
type Messaging struct {
	client  messaging.Messaging
	ins     instrument.Instrumentation
	backoff func() retry.Backoff
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{
		client: client,
		ins:    ins,
		backoff: func() retry.Backoff {
			b := retry.NewFibonacci(50 * time.Millisecond)
			b = retry.WithCappedDuration(time.Second, b)
			return retry.WithMaxRetries(3, b)
		},
	}
}

func (m *Messaging) PublishAuditEvent(ctx context.Context, ev entity.AuditEvent) error {
	ctx, span := m.ins.Tracer("credential.outbound.mq").Start(ctx, "PublishAuditEvent")
	defer span.End()

	span.SetAttributes(
		attribute.String("audit.event_type", string(ev.EventType)),
		attribute.String("audit.outcome", ev.Outcome),
	)

	body, err := json.Marshal(event.AuditEventMessage{
		ID:              ev.ID,
		CompanyID:       ev.CompanyID,
		ExternalUserID:  ev.ExternalUserID,
		CredentialID:    ev.CredentialID,
		EventType:       string(ev.EventType),
		Success:         ev.Success,
		Outcome:         ev.Outcome,
		Timestamp:       ev.Timestamp.UTC(),
		CallerIP:        ev.CallerIP,
		CallerUserAgent: ev.CallerUserAgent,
		Details: event.AuditEventDetails{
			Method:     ev.Method,
			DeviceInfo: ev.DeviceInfo,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	env := messaging.Envelope{
		Key:     ev.CompanyID,
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}

	if err := retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		if err := m.client.Publish(ctx, event.AuditEventDestination, env); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
