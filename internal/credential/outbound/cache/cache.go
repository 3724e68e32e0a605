package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpvault/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Cache counts verification attempts per tenant user in redis. Every
// increment pushes the expiry of the counter out to a full window.
type Cache struct {
	client redis.Cmdable
	ins    instrument.Instrumentation
	prefix string
}

func NewCache(client redis.Cmdable, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins, prefix: "otp:failed:"}
}

func (c *Cache) key(companyID, externalUserID string) string {
	return c.prefix + companyID + ":" + externalUserID
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("credential.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// IncrFailedAttempts counts one attempt and returns the new total. The
// increment and the expiry are applied atomically.
func (c *Cache) IncrFailedAttempts(ctx context.Context, companyID, externalUserID string, window time.Duration) (_ int64, err error) {
	ctx, span := c.startSpan(ctx, "IncrFailedAttempts")
	defer func() { c.endSpan(span, err) }()

	key := c.key(companyID, externalUserID)

	var incr *redis.IntCmd
	if _, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	}); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

func (c *Cache) ResetFailedAttempts(ctx context.Context, companyID, externalUserID string) (err error) {
	ctx, span := c.startSpan(ctx, "ResetFailedAttempts")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, c.key(companyID, externalUserID)).Err()
}
