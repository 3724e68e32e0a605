package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDestinationRequired is returned when the topic or subject is empty.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned when a broker needs a consumer group and none was given.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
)

// Messaging is a broker-agnostic client that can publish and consume envelopes.
type Messaging interface {
	io.Closer

	// Publish sends env to destination (topic or subject).
	Publish(ctx context.Context, destination string, env Envelope) error
	// Consume blocks delivering messages from source to handler until ctx is done.
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a delivery. A nil error acks the delivery, a non-nil error nacks it.
type Handler func(ctx context.Context, d Delivery) error

// Envelope is an outgoing message.
type Envelope struct {
	// Key is the partition or ordering key.
	Key string
	// Body is the payload.
	Body []byte
	// Headers carry string metadata such as the correlation id.
	Headers map[string]string
}

// Delivery is a received message.
type Delivery interface {
	ID() string
	Body() []byte
	Header(key string) string
	Timestamp() time.Time
}

// ConsumeOption configures Consume.
type ConsumeOption func(*consumeOptions)

type consumeOptions struct {
	group       string
	concurrency int
	maxInFlight int
}

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	if co.maxInFlight < co.concurrency {
		co.maxInFlight = co.concurrency
	}
	return co
}

// WithGroup names the consumer group. It is the Kafka group id, the NSQ
// channel, the NATS queue group and the Pub/Sub subscription.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithConcurrency sets how many handlers run in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithMaxInFlight limits unacknowledged deliveries where the broker supports it.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}

func validateConsume(ctx context.Context, source string, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}

type delivery struct {
	id      string
	body    []byte
	headers map[string]string
	ts      time.Time
}

func (d *delivery) ID() string           { return d.id }
func (d *delivery) Body() []byte         { return d.body }
func (d *delivery) Timestamp() time.Time { return d.ts }

func (d *delivery) Header(key string) string {
	return d.headers[key]
}
