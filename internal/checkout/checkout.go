package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"GlowMint/internal/cart"
	"GlowMint/internal/notify"
)

var ErrEmptyCart = errors.New("cart is empty")

type State int

const (
	Empty State = iota
	Reviewing
	Confirmed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Reviewing:
		return "reviewing"
	case Confirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Item struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Qty       int    `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
}

type Summary struct {
	State State  `json:"-"`
	Items []Item `json:"items"`
	Total int64  `json:"total"`
}

// Receipt acknowledges a confirmed order. It is not persisted anywhere.
type Receipt struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Items    []Item    `json:"items"`
	Total    int64     `json:"total"`
	PlacedAt time.Time `json:"placed_at"`
}

type Cart interface {
	Lines(ctx context.Context, visitor string) []cart.Line
	Clear(ctx context.Context, visitor string) error
}

type Service struct {
	Cart     Cart
	Notifier notify.Notifier
	Log      *zap.Logger

	now func() time.Time
}

func (s *Service) Summary(ctx context.Context, visitor string) (Summary, error) {
	return summarize(s.Cart.Lines(ctx, visitor))
}

// Confirm places the order: the cart is cleared unconditionally. There is no
// payment step and no intermediate state.
func (s *Service) Confirm(ctx context.Context, visitor string) (Receipt, error) {
	sum, err := s.Summary(ctx, visitor)
	if err != nil {
		return Receipt{}, err
	}
	if sum.State == Empty {
		return Receipt{}, ErrEmptyCart
	}

	if err := s.Cart.Clear(ctx, visitor); err != nil {
		return Receipt{}, fmt.Errorf("clear cart: %w", err)
	}

	r := Receipt{
		ID:       "o_" + uuid.NewString(),
		Status:   Confirmed.String(),
		Items:    sum.Items,
		Total:    sum.Total,
		PlacedAt: s.clock().UTC(),
	}

	if s.Log != nil {
		s.Log.Info("order placed",
			zap.String("order_id", r.ID),
			zap.Int("lines", len(r.Items)),
			zap.Int64("total", r.Total),
		)
	}
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, visitor, "🎉 Order placed successfully!")
	}
	return r, nil
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func summarize(lines []cart.Line) (Summary, error) {
	if len(lines) == 0 {
		return Summary{State: Empty}, nil
	}

	total, err := cart.Total(lines)
	if err != nil {
		return Summary{}, err
	}

	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			ProductID: l.ID,
			Title:     l.Title,
			Qty:       l.Qty,
			Subtotal:  l.Subtotal(),
		})
	}
	return Summary{State: Reviewing, Items: items, Total: total}, nil
}
