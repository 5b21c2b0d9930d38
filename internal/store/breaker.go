package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

const breakerOpenFor = 30 * time.Second

// BreakerKV trips after consecutive backend failures so that page renders fall
// back to empty collections quickly instead of waiting on a dead backend.
type BreakerKV struct {
	next KV
	cb   *gobreaker.CircuitBreaker[any]
}

type getResult struct {
	value []byte
	found bool
}

func NewBreakerKV(name string, next KV, maxFailures uint32) *BreakerKV {
	if maxFailures == 0 {
		maxFailures = 5
	}
	return &BreakerKV{
		next: next,
		cb: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     breakerOpenFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
}

func (b *BreakerKV) State() gobreaker.State { return b.cb.State() }

func (b *BreakerKV) Ping(ctx context.Context) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Ping(ctx)
	})
	return mapBreakerErr(err)
}

func (b *BreakerKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := b.cb.Execute(func() (any, error) {
		v, ok, err := b.next.Get(ctx, key)
		return getResult{value: v, found: ok}, err
	})
	if err != nil {
		return nil, false, mapBreakerErr(err)
	}
	gr := res.(getResult)
	return gr.value, gr.found, nil
}

func (b *BreakerKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Set(ctx, key, value)
	})
	return mapBreakerErr(err)
}

func (b *BreakerKV) Delete(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Delete(ctx, key)
	})
	return mapBreakerErr(err)
}

func mapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
