package mykafka

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

type message struct {
	topic string
	key   string
	event any
}

// Async queues events for a single background writer so request handlers
// never wait on the broker. A full queue drops the event and counts it.
type Async struct {
	next Publisher
	log  *slog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan message
	done   chan struct{}

	dropped atomic.Uint64
}

func NewAsync(next Publisher, log *slog.Logger, buffer int) *Async {
	if buffer < 1 {
		buffer = 1
	}
	if log == nil {
		log = slog.Default()
	}
	a := &Async{
		next: next,
		log:  log.With("component", "kafka"),
		ch:   make(chan message, buffer),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

// PublishEvent only enqueues; the caller's context is not carried over
// because the write outlives the request.
func (a *Async) PublishEvent(_ context.Context, topic, key string, event any) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.dropped.Add(1)
		return nil
	}
	select {
	case a.ch <- message{topic: topic, key: key, event: event}:
	default:
		a.dropped.Add(1)
		a.log.Warn("event_dropped", "reason", "buffer full", "topic", topic, "key", key)
	}
	return nil
}

func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

func (a *Async) run() {
	defer close(a.done)
	for m := range a.ch {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := a.next.PublishEvent(ctx, m.topic, m.key, m.event); err != nil {
			a.log.Warn("event_publish_failed", "topic", m.topic, "key", m.key, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
