package inbound

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpvault/internal/audit/usecase"
	"github.com/shandysiswandi/otpvault/internal/pkg/config"
	"github.com/shandysiswandi/otpvault/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"github.com/shandysiswandi/otpvault/internal/pkg/messaging"
	"github.com/shandysiswandi/otpvault/internal/pkg/uid"
	"github.com/shandysiswandi/otpvault/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	got  []usecase.RecordInput
	cids []string
}

func (r *recorder) Record(ctx context.Context, in usecase.RecordInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, in)
	r.cids = append(r.cids, instrument.GetCorrelationID(ctx))
	return nil
}

func (r *recorder) snapshot() ([]usecase.RecordInput, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]usecase.RecordInput(nil), r.got...), append([]string(nil), r.cids...)
}

func TestRegisterMQConsumer(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  audit:
    consumer_names: ["`+event.AuditEventConsumerRecorder+`"]
    consumer_concurrency: 2
`))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	broker := messaging.NewMemory()
	routine := goroutine.NewManager(4)
	rec := &recorder{}

	RegisterMQConsumer(ctx, cfg, routine, broker, uid.NewUUID(), rec, instrument.NewNoop())
	require.Eventually(t, func() bool { return broker.Subscribed(event.AuditEventDestination) }, time.Second, 5*time.Millisecond)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	body, err := json.Marshal(event.AuditEventMessage{
		ID:             7,
		CompanyID:      "acme",
		ExternalUserID: "alice",
		EventType:      "backup_code_used",
		Success:        true,
		Outcome:        "valid",
		Timestamp:      ts,
		Details:        event.AuditEventDetails{Method: "backup_code", DeviceInfo: "Pixel 9"},
	})
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, event.AuditEventDestination, messaging.Envelope{
		Key:     "acme",
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: "cid-42"},
	}))
	// malformed bodies are dropped, not redelivered
	require.NoError(t, broker.Publish(ctx, event.AuditEventDestination, messaging.Envelope{Body: []byte("{")}))

	require.Eventually(t, func() bool {
		got, _ := rec.snapshot()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	got, cids := rec.snapshot()
	assert.Equal(t, usecase.RecordInput{
		ID:             7,
		CompanyID:      "acme",
		ExternalUserID: "alice",
		EventType:      "backup_code_used",
		Success:        true,
		Outcome:        "valid",
		Timestamp:      ts,
		Method:         "backup_code",
		DeviceInfo:     "Pixel 9",
	}, got[0])
	assert.Equal(t, []string{"cid-42"}, cids)

	cancel()
	_ = routine.Wait()
}

func TestRegisterMQConsumer_Disabled(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  audit:
    consumer_names: ["something_else"]
`))
	require.NoError(t, err)

	broker := messaging.NewMemory()
	RegisterMQConsumer(context.Background(), cfg, goroutine.NewManager(1), broker, uid.NewUUID(), &recorder{}, instrument.NewNoop())

	assert.Never(t, func() bool { return broker.Subscribed(event.AuditEventDestination) }, 50*time.Millisecond, 5*time.Millisecond)
}
