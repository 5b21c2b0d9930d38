package wishlist

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"GlowMint/internal/catalog"
	"GlowMint/internal/notify"
	"GlowMint/internal/store"
)

const collection = "wishlist"

type Config struct {
	Notifier    notify.Notifier
	Log         *zap.Logger
	Timeout     time.Duration
	SoftFailure func(collection string)
}

// Manager keeps a visitor's wishlist: product snapshots, at most one per ID,
// in the order they were added.
type Manager struct {
	entries *store.Collection[catalog.Product]
	notify  notify.Notifier
}

func NewManager(kv store.KV, cfg Config) *Manager {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop()
	}
	return &Manager{
		entries: store.NewCollection[catalog.Product](kv, collection, store.CollectionConfig[catalog.Product]{
			Legacy:      catalog.DecodeLegacy,
			SoftFailure: cfg.SoftFailure,
			Log:         cfg.Log,
			Timeout:     cfg.Timeout,
		}),
		notify: cfg.Notifier,
	}
}

func (m *Manager) Entries(ctx context.Context, visitor string) []catalog.Product {
	return m.entries.Read(ctx, visitor)
}

func (m *Manager) Contains(ctx context.Context, visitor, productID string) bool {
	return indexOf(m.Entries(ctx, visitor), productID) >= 0
}

// IDs returns the set of wishlisted product IDs, for marking catalog cards.
func (m *Manager) IDs(ctx context.Context, visitor string) map[string]bool {
	entries := m.Entries(ctx, visitor)
	out := make(map[string]bool, len(entries))
	for _, p := range entries {
		out[p.ID] = true
	}
	return out
}

// Toggle removes p if it is wishlisted and adds a snapshot of it otherwise.
// added reports which one happened.
func (m *Manager) Toggle(ctx context.Context, visitor string, p catalog.Product) (added bool, err error) {
	entries, err := m.entries.ReadForUpdate(ctx, visitor)
	if err != nil {
		return false, err
	}

	if i := indexOf(entries, p.ID); i >= 0 {
		entries = append(entries[:i], entries[i+1:]...)
	} else {
		entries = append(entries, p)
		added = true
	}

	if err := m.entries.Write(ctx, visitor, entries); err != nil {
		return false, err
	}

	if added {
		m.notify.Notify(ctx, visitor, p.Title+" added to wishlist ❤️")
	} else {
		m.notify.Notify(ctx, visitor, p.Title+" removed from wishlist 💔")
	}
	return added, nil
}

// Remove filters out productID. An absent entry is not an error.
func (m *Manager) Remove(ctx context.Context, visitor, productID string) ([]catalog.Product, error) {
	entries, err := m.entries.ReadForUpdate(ctx, visitor)
	if err != nil {
		return nil, err
	}

	i := indexOf(entries, productID)
	if i < 0 {
		return entries, nil
	}
	entries = append(entries[:i], entries[i+1:]...)

	if err := m.entries.Write(ctx, visitor, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func indexOf(entries []catalog.Product, productID string) int {
	productID = strings.TrimSpace(productID)
	for i := range entries {
		if entries[i].ID == productID {
			return i
		}
	}
	return -1
}
