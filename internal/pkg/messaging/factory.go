package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DriverMemory       = "memory"
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the settings of every broker; only the one named
// by the driver is read.
type FactoryOptions struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

// NewFromDriver builds the broker that carries audit events from the
// credential module to the audit recorder. An empty driver selects the
// in-process broker.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	d := strings.ToLower(strings.TrimSpace(driver))
	if d == "" || d == DriverMemory {
		return NewMemory(), nil
	}

	var (
		m   Messaging
		err error
	)
	switch d {
	case DriverNSQ:
		m, err = NewNSQ(opts.NSQ)
	case DriverKafka:
		m, err = NewKafka(opts.Kafka)
	case DriverNATS:
		m, err = NewNATS(opts.NATS)
	case DriverGooglePubSub:
		m, err = NewPubSub(ctx, opts.PubSub)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, fmt.Errorf("messaging: init %s: %w", d, err)
	}
	return m, nil
}
