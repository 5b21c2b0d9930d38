// Package notify queues short confirmation messages ("toasts") for a visitor
// until the next render picks them up.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"GlowMint/internal/store"
)

const collection = "toasts"

// Notifier is fire-and-forget: failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, visitor, message string)
}

type Toast struct {
	Message  string    `json:"message"`
	Deadline time.Time `json:"deadline"`
}

// Queue stores pending toasts per visitor. Toasts not rendered before their
// deadline are dropped.
type Queue struct {
	toasts *store.Collection[Toast]
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

type Config struct {
	// TTL is how long an undelivered toast waits for a render.
	TTL         time.Duration
	Log         *zap.Logger
	Timeout     time.Duration
	SoftFailure func(collection string)
}

func NewQueue(kv store.KV, cfg Config) *Queue {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Queue{
		toasts: store.NewCollection[Toast](kv, collection, store.CollectionConfig[Toast]{
			Log:         cfg.Log,
			Timeout:     cfg.Timeout,
			SoftFailure: cfg.SoftFailure,
		}),
		ttl: cfg.TTL,
		log: cfg.Log,
		now: time.Now,
	}
}

func (q *Queue) Notify(ctx context.Context, visitor, message string) {
	pending, err := q.toasts.ReadForUpdate(ctx, visitor)
	if err != nil {
		q.log.Warn("notify failed", zap.String("message", message), zap.Error(err))
		return
	}

	now := q.now()
	pending = append(live(pending, now), Toast{Message: message, Deadline: now.Add(q.ttl)})

	if err := q.toasts.Write(ctx, visitor, pending); err != nil {
		q.log.Warn("notify failed", zap.String("message", message), zap.Error(err))
	}
}

// Drain returns the visitor's live toasts in arrival order and empties the queue.
func (q *Queue) Drain(ctx context.Context, visitor string) []Toast {
	pending := q.toasts.Read(ctx, visitor)
	if len(pending) == 0 {
		return nil
	}
	if err := q.toasts.Clear(ctx, visitor); err != nil {
		q.log.Warn("drain toasts failed", zap.Error(err))
	}
	return live(pending, q.now())
}

func live(ts []Toast, now time.Time) []Toast {
	out := ts[:0]
	for _, t := range ts {
		if now.Before(t.Deadline) {
			out = append(out, t)
		}
	}
	return out
}

type nop struct{}

func (nop) Notify(context.Context, string, string) {}

// Nop discards every message.
func Nop() Notifier { return nop{} }
