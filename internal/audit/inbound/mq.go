package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/otpvault/internal/pkg/config"
	"github.com/shandysiswandi/otpvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"github.com/shandysiswandi/otpvault/internal/pkg/messaging"
	"github.com/shandysiswandi/otpvault/internal/pkg/uid"
	"github.com/shandysiswandi/otpvault/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.audit.consumer_names")
	concurrency := max(cfg.GetInt("modules.audit.consumer_concurrency"), 1)

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string
		handler messaging.Handler
	}{
		{
			name:    event.AuditEventConsumerRecorder,
			topic:   event.AuditEventDestination,
			group:   event.AuditEventConsumerRecorder,
			handler: mqHandler.RecordAuditEvent,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.group),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency*2),
			)
		})
	}
}
