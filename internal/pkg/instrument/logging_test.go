package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestHandler_MasksDefaultAndConfiguredFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(buf, "otpvault", "info", nil, []string{"pin"}))

	logger.InfoContext(context.Background(), "created",
		"credential_id", "c-1",
		"secret", "JBSWY3DPEHPK3PXP",
		"pin", "1234",
		"body", `{"token":"123456","company_id":"acme"}`,
	)

	out := decodeLine(t, buf)
	assert.Equal(t, "c-1", out["credential_id"])
	assert.Equal(t, "***", out["secret"])
	assert.Equal(t, "***", out["pin"])
	assert.JSONEq(t, `{"token":"***","company_id":"acme"}`, out["body"].(string))
	assert.Equal(t, "otpvault", out["service"])
	assert.Contains(t, out, "ts")
	assert.Contains(t, out, "severity")
}

func TestHandler_CorrelationID(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(buf, "otpvault", "", nil, nil)).With("module", "credential")

	ctx := SetCorrelationID(context.Background(), "cid-42")
	logger.WarnContext(ctx, "validation failed")

	out := decodeLine(t, buf)
	assert.Equal(t, "cid-42", out["_cID"])
	assert.Equal(t, "credential", out["module"])
	assert.Equal(t, "otpvault", out["service"])
}

func TestHandler_Level(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(buf, "otpvault", "warn", nil, nil))

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Error("kept")
	assert.NotZero(t, buf.Len())
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "abc", GetCorrelationID(SetCorrelationID(context.Background(), "abc")))
}

func TestNewNoop(t *testing.T) {
	ins := NewNoop()
	_, span := ins.Tracer("test").Start(context.Background(), "op")
	span.End()
	assert.NoError(t, ins.Shutdown(context.Background()))
}

func TestHandler_MasksNestedAndPreboundAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(buf, "otpvault", "info", nil, nil)).With("token", "123456")

	logger.Info("regenerated",
		slog.Group("result", slog.Int("count", 8), slog.Any("backup_codes", []string{"AB12CD"})),
		"headers", map[string]string{"Authorization": "Bearer x", "Accept": "application/json"},
	)

	out := decodeLine(t, buf)
	assert.Equal(t, "***", out["token"])
	assert.Equal(t, map[string]any{"count": float64(8), "backup_codes": "***"}, out["result"])
	assert.Equal(t, map[string]any{"Authorization": "***", "Accept": "application/json"}, out["headers"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}
