package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS is a messaging implementation backed by core NATS. Delivery is
// at-most-once: a failed handler is logged by the caller and not retried.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	closed bool
}

// NewNATS connects to the NATS server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	err := n.conn.Drain()
	n.conn.Close()
	return err
}

// Publish sends env to a subject and flushes.
func (n *NATS) Publish(ctx context.Context, destination string, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}

	msg := nats.NewMsg(destination)
	msg.Data = env.Body
	for key, val := range env.Headers {
		msg.Header.Set(key, val)
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

// Consume subscribes to source within the queue group named by WithGroup.
func (n *NATS) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return io.ErrClosedPipe
	}

	msgs := make(chan *nats.Msg, co.maxInFlight)
	sub, err := n.conn.QueueSubscribe(source, co.group, func(m *nats.Msg) {
		select {
		case msgs <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgs {
				headers := make(map[string]string, len(m.Header))
				for key := range m.Header {
					headers[key] = m.Header.Get(key)
				}
				//nolint:errcheck // core NATS has no redelivery
				_ = dispatch(ctx, DriverNATS, handler, &delivery{
					id:      m.Subject,
					body:    m.Data,
					headers: headers,
					ts:      time.Now(),
				})
			}
		})
	}

	<-ctx.Done()
	uerr := sub.Drain()
	close(msgs)
	wg.Wait()

	return errors.Join(ctx.Err(), uerr)
}
