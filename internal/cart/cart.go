package cart

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"GlowMint/internal/catalog"
	"GlowMint/internal/notify"
	"GlowMint/internal/store"
)

const collection = "cart"

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrTotalOverflow   = errors.New("total overflow")
)

// Line is one product in the cart. Identity is the product ID.
type Line struct {
	catalog.Product
	Qty int `json:"qty"`
}

func (l Line) Subtotal() int64 {
	return l.Price * int64(l.Qty)
}

type legacyLine struct {
	catalog.LegacyProduct
	Qty int `json:"qty"`
}

func decodeLegacyLine(raw json.RawMessage) (Line, error) {
	var l legacyLine
	if err := json.Unmarshal(raw, &l); err != nil {
		return Line{}, err
	}
	return Line{Product: l.Product(), Qty: max(l.Qty, 1)}, nil
}

type Config struct {
	Notifier notify.Notifier
	Log      *zap.Logger
	Timeout  time.Duration

	// OnCount receives the new item count after every persisted change.
	OnCount func(ctx context.Context, visitor string, count int)

	SoftFailure func(collection string)
}

// Manager mutates a visitor's cart. Every operation re-reads the store, so
// two tabs interleaving writes resolve to last-write-wins.
type Manager struct {
	lines  *store.Collection[Line]
	notify notify.Notifier
	log    *zap.Logger
}

func NewManager(kv store.KV, cfg Config) *Manager {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop()
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	m := &Manager{notify: cfg.Notifier, log: cfg.Log}
	m.lines = store.NewCollection[Line](kv, collection, store.CollectionConfig[Line]{
		Legacy:      decodeLegacyLine,
		SoftFailure: cfg.SoftFailure,
		Log:         cfg.Log,
		Timeout:     cfg.Timeout,
		AfterWrite: func(ctx context.Context, visitor string, lines []Line) {
			if cfg.OnCount != nil {
				cfg.OnCount(ctx, visitor, Count(lines))
			}
		},
	})
	return m
}

func (m *Manager) Lines(ctx context.Context, visitor string) []Line {
	return m.lines.Read(ctx, visitor)
}

func (m *Manager) Count(ctx context.Context, visitor string) int {
	return Count(m.Lines(ctx, visitor))
}

// Add puts one more unit of p in the cart: an existing line grows by one,
// otherwise a new line with quantity 1 is appended.
func (m *Manager) Add(ctx context.Context, visitor string, p catalog.Product) ([]Line, error) {
	lines, err := m.lines.ReadForUpdate(ctx, visitor)
	if err != nil {
		return nil, err
	}

	if i := indexOf(lines, p.ID); i >= 0 {
		lines[i].Qty++
	} else {
		lines = append(lines, Line{Product: p, Qty: 1})
	}

	if err := m.lines.Write(ctx, visitor, lines); err != nil {
		return nil, err
	}

	m.notify.Notify(ctx, visitor, p.Title+" added to cart 🛍️")
	return lines, nil
}

// Remove drops the line for productID. An absent line is not an error.
func (m *Manager) Remove(ctx context.Context, visitor, productID string) ([]Line, error) {
	lines, err := m.lines.ReadForUpdate(ctx, visitor)
	if err != nil {
		return nil, err
	}

	i := indexOf(lines, productID)
	if i < 0 {
		return lines, nil
	}
	lines = append(lines[:i], lines[i+1:]...)

	if err := m.lines.Write(ctx, visitor, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetQuantity overwrites the quantity of productID's line. Quantities below
// 1 are stored as 1. An absent line is left absent.
func (m *Manager) SetQuantity(ctx context.Context, visitor, productID string, qty int) ([]Line, error) {
	lines, err := m.lines.ReadForUpdate(ctx, visitor)
	if err != nil {
		return nil, err
	}

	i := indexOf(lines, productID)
	if i < 0 {
		m.log.Debug("set quantity on absent line", zap.String("product_id", productID))
		return lines, nil
	}
	lines[i].Qty = max(qty, 1)

	if err := m.lines.Write(ctx, visitor, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Clear deletes the whole cart.
func (m *Manager) Clear(ctx context.Context, visitor string) error {
	return m.lines.Clear(ctx, visitor)
}

// ParseQuantity accepts a base-10 integer from user input. Non-numeric
// input is rejected; range is enforced by SetQuantity.
func ParseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}

func Count(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Qty
	}
	return n
}

// Total sums price × qty over all lines.
func Total(lines []Line) (int64, error) {
	var total int64
	for _, l := range lines {
		if l.Qty < 0 || (l.Qty > 0 && l.Price > math.MaxInt64/int64(l.Qty)) {
			return 0, ErrTotalOverflow
		}
		sub := l.Subtotal()
		if sub < 0 || total > math.MaxInt64-sub {
			return 0, ErrTotalOverflow
		}
		total += sub
	}
	return total, nil
}

func indexOf(lines []Line, productID string) int {
	productID = strings.TrimSpace(productID)
	for i := range lines {
		if lines[i].ID == productID {
			return i
		}
	}
	return -1
}
