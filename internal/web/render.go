package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"GlowMint/internal/view"
	"GlowMint/pkg/kit"
)

type countKey struct{}

type countSlot struct {
	n   int
	set bool
}

// RecordCount is the cart's count listener. It hands the count written by
// the current request to the response, so badges never need a second read.
func RecordCount(ctx context.Context, _ string, count int) {
	if s, ok := ctx.Value(countKey{}).(*countSlot); ok {
		s.n, s.set = count, true
	}
}

func withCountSlot(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), countKey{}, &countSlot{}))
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (h *handler) cartCount(ctx context.Context, vid string) int {
	if s, ok := ctx.Value(countKey{}).(*countSlot); ok && s.set {
		return s.n
	}
	return h.Cart.Count(ctx, vid)
}

func (h *handler) page(w http.ResponseWriter, r *http.Request, status int, p view.Page) {
	ctx := r.Context()
	vid := visitorID(r)

	p.CartCount = h.Cart.Count(ctx, vid)
	p.Toasts = h.Toasts.Drain(ctx, vid)

	h.html(w, r, status, p.Component())
}

func (h *handler) html(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := c.Render(r.Context(), w); err != nil {
		h.log.Error("render failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// respond finishes a mutation. htmx requests get the container named by
// HX-Target rebuilt from a fresh read, plus out-of-band badges and toasts.
// Plain form posts are redirected back to the page they came from.
func (h *handler) respond(w http.ResponseWriter, r *http.Request, fallback string) {
	if !isHTMX(r) {
		kit.SeeOther(w, r, backTo(r, fallback))
		return
	}

	ctx := r.Context()
	vid := visitorID(r)

	container := h.container(ctx, vid, r.Header.Get("HX-Target"), r.PostFormValue("id"))
	count := h.cartCount(ctx, vid)
	toasts := h.Toasts.Drain(ctx, vid)

	h.html(w, r, http.StatusOK, view.Fragment(container, count, toasts))
}

func (h *handler) container(ctx context.Context, vid, target, productID string) templ.Component {
	switch target {
	case view.CatalogContainer:
		return view.CatalogGrid(h.Catalog.List(), h.Wishlist.IDs(ctx, vid))
	case view.CartContainer:
		return view.CartTable(h.Cart.Lines(ctx, vid))
	case view.WishlistContainer:
		return view.WishlistGrid(h.Wishlist.Entries(ctx, vid))
	case view.CheckoutContainer:
		return h.summary(ctx, vid)
	case view.DetailContainer:
		p, ok := h.Catalog.Get(productID)
		if !ok {
			return view.NotFound("This product is no longer available.")
		}
		return view.ProductDetail(p, h.Wishlist.Contains(ctx, vid, p.ID))
	default:
		return nil
	}
}

func (h *handler) summary(ctx context.Context, vid string) templ.Component {
	sum, err := h.Checkout.Summary(ctx, vid)
	if err != nil {
		h.log.Warn("checkout summary failed", zap.String("visitor", vid), zap.Error(err))
		return view.Problem("Your order total is too large to place. Please reduce a quantity.")
	}
	return view.CheckoutSummary(sum)
}

// backTo picks the same-origin page that submitted the form.
func backTo(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}

	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}

	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
