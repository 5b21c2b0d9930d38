package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CurrentVersion tags every envelope written by this build. Version 0 is the
// unversioned bare JSON array written by the browser-only storefront.
const CurrentVersion = 1

type envelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

type rawEnvelope struct {
	Version int             `json:"version"`
	Items   json.RawMessage `json:"items"`
}

type CollectionConfig[T any] struct {
	// Legacy decodes one item of a version 0 collection. Nil means version 0
	// data reads as empty.
	Legacy func(raw json.RawMessage) (T, error)

	// AfterWrite runs after every successful Write or Clear with the items now
	// persisted (nil after Clear).
	AfterWrite func(ctx context.Context, visitor string, items []T)

	// SoftFailure is told the collection name whenever a read is absorbed as
	// empty.
	SoftFailure func(collection string)

	Log     *zap.Logger
	Timeout time.Duration
}

// Collection is one named, persisted sequence per visitor.
type Collection[T any] struct {
	kv   KV
	name string
	cfg  CollectionConfig[T]
}

func NewCollection[T any](kv KV, name string, cfg CollectionConfig[T]) *Collection[T] {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Collection[T]{kv: kv, name: name, cfg: cfg}
}

func (c *Collection[T]) Name() string { return c.name }

// Read never fails: a missing key, a backend error or undecodable bytes all
// yield an empty sequence.
func (c *Collection[T]) Read(ctx context.Context, visitor string) []T {
	items, err := c.ReadForUpdate(ctx, visitor)
	if err != nil {
		c.soft("read failed", err)
		return nil
	}
	return items
}

// ReadForUpdate is Read for read-modify-write callers. Missing keys and
// undecodable bytes are still empty, but backend errors are returned so a
// failed read is never written back as an empty collection.
func (c *Collection[T]) ReadForUpdate(ctx context.Context, visitor string) ([]T, error) {
	var (
		raw   []byte
		found bool
	)
	err := withTimeout(ctx, c.cfg.Timeout, func(ctx context.Context) error {
		var err error
		raw, found, err = c.kv.Get(ctx, Key(visitor, c.name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.name, err)
	}
	if !found {
		return nil, nil
	}

	items, err := c.decode(raw)
	if err != nil {
		c.soft("decode failed", err)
		return nil, nil
	}
	return items, nil
}

func (c *Collection[T]) decode(raw []byte) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		return c.decodeLegacy(raw)
	}

	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch {
	case env.Version == CurrentVersion:
	case env.Version > CurrentVersion:
		return nil, fmt.Errorf("unsupported version %d", env.Version)
	default:
		return nil, fmt.Errorf("bad version %d", env.Version)
	}

	var items []T
	if len(env.Items) > 0 {
		if err := json.Unmarshal(env.Items, &items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (c *Collection[T]) decodeLegacy(raw []byte) ([]T, error) {
	if c.cfg.Legacy == nil {
		return nil, fmt.Errorf("version 0 data without migration")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}

	items := make([]T, 0, len(elems))
	for i, e := range elems {
		it, err := c.cfg.Legacy(e)
		if err != nil {
			return nil, fmt.Errorf("legacy item %d: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// Write replaces the visitor's collection with items.
func (c *Collection[T]) Write(ctx context.Context, visitor string, items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := json.Marshal(envelope[T]{Version: CurrentVersion, Items: items})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.name, err)
	}

	err = withTimeout(ctx, c.cfg.Timeout, func(ctx context.Context) error {
		return c.kv.Set(ctx, Key(visitor, c.name), data)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", c.name, err)
	}

	c.afterWrite(ctx, visitor, items)
	return nil
}

// Clear deletes the visitor's collection; the next Read is empty.
func (c *Collection[T]) Clear(ctx context.Context, visitor string) error {
	err := withTimeout(ctx, c.cfg.Timeout, func(ctx context.Context) error {
		return c.kv.Delete(ctx, Key(visitor, c.name))
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", c.name, err)
	}

	c.afterWrite(ctx, visitor, nil)
	return nil
}

func (c *Collection[T]) afterWrite(ctx context.Context, visitor string, items []T) {
	if c.cfg.AfterWrite != nil {
		c.cfg.AfterWrite(ctx, visitor, items)
	}
}

func (c *Collection[T]) soft(msg string, err error) {
	c.cfg.Log.Warn("collection "+msg+", using empty",
		zap.String("collection", c.name),
		zap.Error(err),
	)
	if c.cfg.SoftFailure != nil {
		c.cfg.SoftFailure(c.name)
	}
}
