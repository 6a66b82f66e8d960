package audit

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
)

const writeTimeout = 5 * time.Second

type Sink interface {
	CreateAuditLog(ctx context.Context, a models.AuditLog) (models.AuditLog, error)
}

// Recorder writes audit entries off the request path. Record never blocks:
// when the buffer is full the entry is dropped and counted.
type Recorder struct {
	sink Sink
	pub  mykafka.Publisher
	log  *slog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan models.AuditLog
	done   chan struct{}

	dropped atomic.Uint64
}

func NewRecorder(sink Sink, pub mykafka.Publisher, log *slog.Logger, buffer int) *Recorder {
	if buffer < 1 {
		buffer = 1
	}
	if pub == nil {
		pub = mykafka.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{
		sink: sink,
		pub:  pub,
		log:  log.With("component", "audit"),
		ch:   make(chan models.AuditLog, buffer),
		done: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) Record(entry models.AuditLog) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.ch <- entry:
	default:
		r.dropped.Add(1)
		r.log.Warn("audit_dropped", "reason", "buffer full", "action", entry.Action, "user_id", entry.UserID)
	}
}

func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *Recorder) run() {
	defer close(r.done)
	for entry := range r.ch {
		r.write(entry)
	}
}

func (r *Recorder) write(entry models.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	stored, err := r.sink.CreateAuditLog(ctx, entry)
	if err != nil {
		r.log.Warn("audit_write_failed", "action", entry.Action, "user_id", entry.UserID, "error", err)
		return
	}

	ev := mykafka.NewEvent("audit_logged", stored.ID, stored.UserID, map[string]any{"action": stored.Action})
	if err := r.pub.PublishEvent(ctx, mykafka.TopicAudit, strconv.FormatUint(uint64(stored.UserID), 10), ev); err != nil {
		r.log.Warn("audit_publish_failed", "error", err)
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
