package messaging

import (
	"context"
	"io"
	"maps"
	"strconv"
	"sync"
	"time"
)

const (
	memoryQueueSize   = 1024
	memoryMaxAttempts = 3
)

type memoryItem struct {
	d        *delivery
	attempts int
}

// Memory is an in-process broker. Every consumer group of a topic receives
// each envelope once; consumers sharing a group compete for deliveries.
// A failed delivery is requeued until it has been attempted three times.
type Memory struct {
	mu     sync.Mutex
	queues map[string]map[string]chan *memoryItem
	seq    uint64
	closed bool
}

// NewMemory constructs an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{queues: map[string]map[string]chan *memoryItem{}}
}

// Close stops accepting envelopes. Running consumers return when their context ends.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Publish fans env out to every group subscribed to destination. Envelopes
// published to a topic without consumers are dropped.
func (m *Memory) Publish(ctx context.Context, destination string, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return io.ErrClosedPipe
	}
	m.seq++
	id := strconv.FormatUint(m.seq, 10)
	targets := make([]chan *memoryItem, 0, len(m.queues[destination]))
	for _, q := range m.queues[destination] {
		targets = append(targets, q)
	}
	m.mu.Unlock()

	now := time.Now()
	for _, q := range targets {
		item := &memoryItem{d: &delivery{
			id:      id,
			body:    append([]byte(nil), env.Body...),
			headers: maps.Clone(env.Headers),
			ts:      now,
		}}
		select {
		case q <- item:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// Consume registers the group on source and delivers until ctx is done.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)

	q, err := m.queue(source, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case item := <-q:
					item.attempts++
					if err := dispatch(ctx, DriverMemory, handler, item.d); err != nil && item.attempts < memoryMaxAttempts {
						select {
						case q <- item:
						default:
						}
					}
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}

func (m *Memory) queue(topic, group string) (chan *memoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, io.ErrClosedPipe
	}
	groups, ok := m.queues[topic]
	if !ok {
		groups = map[string]chan *memoryItem{}
		m.queues[topic] = groups
	}
	q, ok := groups[group]
	if !ok {
		q = make(chan *memoryItem, memoryQueueSize)
		groups[group] = q
	}
	return q, nil
}

// Subscribed reports whether any consumer group is registered on topic.
func (m *Memory) Subscribed(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[topic]) > 0
}
