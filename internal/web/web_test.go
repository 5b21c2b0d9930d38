package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GlowMint/internal/cart"
	"GlowMint/internal/catalog"
	"GlowMint/internal/checkout"
	"GlowMint/internal/notify"
	"GlowMint/internal/store"
	"GlowMint/internal/view"
	"GlowMint/internal/visitor"
	"GlowMint/internal/wishlist"
)

const metricsToken = "test-metrics-token"

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newStorefront(t *testing.T, mutationLimit int) *httptest.Server {
	t.Helper()
	return newStorefrontOn(t, store.NewMemKV(), mutationLimit)
}

func newStorefrontOn(t *testing.T, kv store.KV, mutationLimit int) *httptest.Server {
	t.Helper()

	cat, err := catalog.New([]catalog.Product{
		{ID: "A", Title: "Alpha", Price: 500, Rating: 4.5},
		{ID: "B", Title: "Beta", Price: 300, Rating: 4},
	})
	require.NoError(t, err)

	toasts := notify.NewQueue(kv, notify.Config{TTL: time.Minute})
	carts := cart.NewManager(kv, cart.Config{Notifier: toasts, OnCount: RecordCount})

	h := NewHandler(Deps{
		Catalog:  cat,
		Cart:     carts,
		Wishlist: wishlist.NewManager(kv, wishlist.Config{Notifier: toasts}),
		Checkout: &checkout.Service{Cart: carts, Notifier: toasts},
		Toasts:   toasts,
		Store:    kv,
		Visitor: visitor.Cookies{
			Name:   "visitor",
			Tokens: visitor.NewTokenMaker(strings.Repeat("k", 32)),
		},
		MutationLimitPerMin: mutationLimit,
	}, HTTPDeps{
		Log:            zap.NewNop(),
		Service:        "storefront",
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   metricsToken,
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

// newBrowser keeps cookies like a browser tab. With follow unset, redirects
// are returned to the test instead of being followed.
func newBrowser(t *testing.T, ts *httptest.Server, follow bool) *browser {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	c := &http.Client{Jar: jar, Timeout: 5 * time.Second}
	if !follow {
		c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	}
	return &browser{t: t, base: ts.URL, client: c}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(raw)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()

	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values, headers map[string]string) (*http.Response, string) {
	b.t.Helper()

	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return b.do(req)
}

func (b *browser) htmx(path, target string, form url.Values) (*http.Response, string) {
	b.t.Helper()

	headers := map[string]string{"HX-Request": "true"}
	if target != "" {
		headers["HX-Target"] = target
	}
	return b.post(path, form, headers)
}

func (b *browser) cart() cartSnapshot {
	b.t.Helper()

	resp, body := b.get("/api/cart")
	require.Equal(b.t, http.StatusOK, resp.StatusCode, body)

	var snap cartSnapshot
	require.NoError(b.t, json.Unmarshal([]byte(body), &snap))
	return snap
}

func (b *browser) wishlist() wishlistSnapshot {
	b.t.Helper()

	resp, body := b.get("/api/wishlist")
	require.Equal(b.t, http.StatusOK, resp.StatusCode, body)

	var snap wishlistSnapshot
	require.NoError(b.t, json.Unmarshal([]byte(body), &snap))
	return snap
}

func id(productID string) url.Values {
	return url.Values{"id": {productID}}
}

func TestStorefront_WorkedExample(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), true)

	b.post("/cart/add", id("A"), nil)
	snap := b.cart()
	assert.Equal(t, 1, snap.Count)
	assert.EqualValues(t, 500, snap.Total)

	b.post("/cart/add", id("A"), nil)
	snap = b.cart()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Qty)
	assert.EqualValues(t, 1000, snap.Total)

	b.post("/cart/add", id("B"), nil)
	snap = b.cart()
	assert.Equal(t, 3, snap.Count)
	assert.EqualValues(t, 1300, snap.Total)

	b.post("/cart/remove", id("A"), nil)
	snap = b.cart()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "B", snap.Items[0].ID)
	assert.EqualValues(t, 300, snap.Total)
}

func TestStorefront_EmptyState(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), true)

	snap := b.cart()
	assert.NotNil(t, snap.Items)
	assert.Zero(t, snap.Count)

	resp, body := b.get("/cart")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your cart is empty 💔")
	assert.Contains(t, body, `<span id="cartCount" class="badge">0</span>`)

	_, body = b.get("/checkout")
	assert.Contains(t, body, "No items to checkout.")
	assert.NotContains(t, body, "confirmOrder")
}

func TestStorefront_HTMXAddRefreshesBadges(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), true)

	resp, body := b.htmx("/cart/add", "", id("A"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NotContains(t, body, "<section")
	for _, badge := range view.BadgeIDs {
		assert.Contains(t, body, `<span id="`+badge+`" class="badge" hx-swap-oob="true">1</span>`)
	}
	assert.Contains(t, body, "Alpha added to cart 🛍️")

	// Toasts are delivered once.
	_, body = b.get("/")
	assert.NotContains(t, body, "Alpha added to cart")
}

func TestStorefront_HTMXQuantity(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), true)
	b.post("/cart/add", id("A"), nil)

	_, body := b.htmx("/cart/quantity", view.CartContainer, url.Values{"id": {"A"}, "qty": {"4"}})
	assert.True(t, strings.HasPrefix(body, `<section id="cartContainer">`))
	assert.Contains(t, body, `value="4"`)
	assert.Contains(t, body, `hx-swap-oob="true">4</span>`)

	_, body = b.htmx("/cart/quantity", view.CartContainer, url.Values{"id": {"A"}, "qty": {"0"}})
	assert.Contains(t, body, `value="1"`)
	assert.Equal(t, 1, b.cart().Count)

	resp, body := b.htmx("/cart/quantity", view.CartContainer, url.Values{"id": {"A"}, "qty": {"abc"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Quantity must be a whole number.")
	assert.Contains(t, body, `value="1"`)
	assert.Equal(t, 1, b.cart().Count)

	b.htmx("/cart/quantity", view.CartContainer, url.Values{"id": {"A"}, "qty": {""}})
	assert.Equal(t, 1, b.cart().Count)
}

func TestStorefront_ClearCart(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), true)
	b.post("/cart/add", id("A"), nil)
	b.post("/cart/add", id("B"), nil)

	_, body := b.htmx("/cart/clear", view.CartContainer, nil)
	assert.Contains(t, body, "Your cart is empty 💔")
	assert.Contains(t, body, `hx-swap-oob="true">0</span>`)
	assert.Zero(t, b.cart().Count)
}

func TestStorefront_WishlistToggle(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), true)

	_, body := b.htmx("/wishlist/toggle", view.CatalogContainer, id("B"))
	assert.Contains(t, body, `id="productContainer"`)
	assert.Contains(t, body, "♥")
	assert.Contains(t, body, "Beta added to wishlist ❤️")
	assert.Equal(t, 1, b.wishlist().Count)

	_, body = b.htmx("/wishlist/toggle", view.DetailContainer, id("B"))
	assert.Contains(t, body, `id="productDetail"`)
	assert.Contains(t, body, "Beta removed from wishlist 💔")
	assert.Zero(t, b.wishlist().Count)

	b.post("/wishlist/toggle", id("A"), nil)
	_, body = b.htmx("/wishlist/remove", view.WishlistContainer, id("A"))
	assert.Contains(t, body, "Your wishlist is empty 💔")
}

func TestStorefront_Checkout(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), true)

	resp, body := b.htmx("/checkout/confirm", view.CheckoutContainer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No items to checkout.")

	b.post("/cart/add", id("A"), nil)
	b.post("/cart/add", id("A"), nil)
	_, body = b.get("/checkout")
	assert.Contains(t, body, "Alpha × 2")
	assert.Contains(t, body, "₹1000")

	resp, _ = b.htmx("/checkout/confirm", view.CheckoutContainer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("HX-Redirect"))
	assert.True(t, strings.HasPrefix(resp.Header.Get("X-Order-ID"), "o_"))
	assert.Zero(t, b.cart().Count)

	_, body = b.get("/")
	assert.Contains(t, body, "🎉 Order placed successfully!")
}

func TestStorefront_PlainPostRedirects(t *testing.T) {
	ts := newStorefront(t, 0)
	b := newBrowser(t, ts, false)

	resp, _ := b.post("/cart/add", id("A"), map[string]string{"Referer": ts.URL + "/product?id=A"})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/product?id=A", resp.Header.Get("Location"))

	resp, _ = b.post("/wishlist/toggle", id("A"), map[string]string{"Referer": "https://elsewhere.example/wishlist"})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, _ = b.post("/cart/remove", id("A"), nil)
	assert.Equal(t, "/cart", resp.Header.Get("Location"))
}

func TestStorefront_UnknownProduct(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), false)

	resp, body := b.htmx("/cart/add", "", id("nope"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "none", resp.Header.Get("HX-Reswap"))
	assert.Equal(t, "404", resp.Header.Get("X-Storefront-Status"))
	assert.Contains(t, body, `hx-swap-oob="beforeend:#toasts"`)
	assert.Contains(t, body, "That product is no longer available.")

	resp, _ = b.post("/cart/add", id("nope"), nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = b.get("/product?id=nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = b.get("/product?id=A")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Alpha")

	resp, _ = b.post("/cart/add", nil, map[string]string{"HX-Request": "true"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "400", resp.Header.Get("X-Storefront-Status"))

	resp, _ = b.post("/cart/add", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// outageKV is a MemKV whose reads fail while down is set.
type outageKV struct {
	*store.MemKV
	down atomic.Bool
}

func (o *outageKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if o.down.Load() {
		return nil, false, store.ErrUnavailable
	}
	return o.MemKV.Get(ctx, key)
}

func TestStorefront_StoreOutageKeepsCart(t *testing.T) {
	kv := &outageKV{MemKV: store.NewMemKV()}
	b := newBrowser(t, newStorefrontOn(t, kv, 0), true)

	b.post("/cart/add", id("A"), nil)
	b.post("/cart/add", id("A"), nil)
	b.post("/wishlist/toggle", id("B"), nil)

	kv.down.Store(true)
	resp, body := b.htmx("/cart/add", "", id("B"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "none", resp.Header.Get("HX-Reswap"))
	assert.Equal(t, "503", resp.Header.Get("X-Storefront-Status"))
	assert.Contains(t, body, "We could not save your change")

	b.htmx("/wishlist/toggle", view.CatalogContainer, id("A"))
	kv.down.Store(false)

	snap := b.cart()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "A", snap.Items[0].ID)
	assert.Equal(t, 2, snap.Items[0].Qty)

	wl := b.wishlist()
	require.Len(t, wl.Items, 1)
	assert.Equal(t, "B", wl.Items[0].ID)
}

func TestStorefront_VisitorsAreIsolated(t *testing.T) {
	ts := newStorefront(t, 0)
	alice := newBrowser(t, ts, true)
	bob := newBrowser(t, ts, true)

	alice.post("/cart/add", id("A"), nil)

	assert.Equal(t, 1, alice.cart().Count)
	assert.Zero(t, bob.cart().Count)
}

func TestStorefront_CatalogAPI(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), true)

	resp, body := b.get("/api/products")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []catalog.Product
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	assert.Len(t, list, 2)

	resp, _ = b.get("/api/products/B")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStorefront_RateLimit(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 1), false)

	resp, _ := b.post("/cart/add", id("A"), nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = b.post("/cart/add", id("A"), nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, _ = b.get("/cart")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStorefront_Ops(t *testing.T) {
	b := newBrowser(t, newStorefront(t, 0), true)

	resp, _ := b.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = b.get("/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = b.get("/metrics")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	b.post("/cart/add", id("A"), nil)

	req, err := http.NewRequest(http.MethodGet, b.base+"/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+metricsToken)
	resp, body := b.do(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `storefront_actions_total{action="cart_add"} 1`)
}

func TestBackTo(t *testing.T) {
	cases := []struct {
		name    string
		referer string
		want    string
	}{
		{"empty", "", "/fallback"},
		{"same origin", "http://shop.test/wishlist", "/wishlist"},
		{"keeps query", "http://shop.test/product?id=SK001", "/product?id=SK001"},
		{"relative", "/cart", "/cart"},
		{"other host", "http://evil.test/cart", "/fallback"},
		{"protocol relative path", "http://shop.test//evil.test", "/fallback"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "http://shop.test/cart/add", nil)
			if tc.referer != "" {
				r.Header.Set("Referer", tc.referer)
			}
			assert.Equal(t, tc.want, backTo(r, "/fallback"))
		})
	}
}
