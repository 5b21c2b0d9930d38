// Package view renders storefront state into HTML. Every function is a pure
// function of the state it is given and rebuilds its container from scratch.
package view

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"GlowMint/internal/cart"
	"GlowMint/internal/catalog"
	"GlowMint/internal/checkout"
	"GlowMint/internal/notify"
)

// Container ids a page may expose.
const (
	CatalogContainer  = "productContainer"
	CartContainer     = "cartContainer"
	WishlistContainer = "wishlistContainer"
	CheckoutContainer = "checkoutSummary"
	DetailContainer   = "productDetail"
)

// BadgeIDs are every element showing the cart count.
var BadgeIDs = []string{"cartCount", "cartCountMobile"}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("").Funcs(template.FuncMap{
		"price":  Price,
		"rating": func(r float64) string { return fmt.Sprintf("★ %.1f", r) },
	}).ParseFS(templateFS, "templates/*.html"),
)

func Price(amount int64) string {
	return fmt.Sprintf("₹%d", amount)
}

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}

type productCard struct {
	catalog.Product
	Wished bool
}

// CatalogGrid shows one card per product with view, add-to-cart and wishlist
// actions. wished marks products already on the wishlist.
func CatalogGrid(products []catalog.Product, wished map[string]bool) templ.Component {
	cards := make([]productCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, productCard{Product: p, Wished: wished[p.ID]})
	}
	return component("catalog", struct {
		ContainerID string
		Cards       []productCard
	}{CatalogContainer, cards})
}

// CartTable lists every line with an editable quantity and its subtotal, or
// an empty-state message when there are no lines.
func CartTable(lines []cart.Line) templ.Component {
	total, err := cart.Total(lines)
	return component("cart", struct {
		ContainerID   string
		Lines         []cart.Line
		Total         int64
		TotalOverflow bool
	}{CartContainer, lines, total, err != nil})
}

func WishlistGrid(entries []catalog.Product) templ.Component {
	return component("wishlist", struct {
		ContainerID string
		Entries     []catalog.Product
	}{WishlistContainer, entries})
}

// CheckoutSummary lists "title × qty" lines and the confirm action. The
// confirm action only exists while the cart is under review.
func CheckoutSummary(sum checkout.Summary) templ.Component {
	return component("checkout", struct {
		ContainerID string
		Reviewing   bool
		Items       []checkout.Item
		Total       int64
	}{CheckoutContainer, sum.State == checkout.Reviewing, sum.Items, sum.Total})
}

func ProductDetail(p catalog.Product, wished bool) templ.Component {
	return component("product", struct {
		ContainerID string
		Card        productCard
	}{DetailContainer, productCard{Product: p, Wished: wished}})
}

// Badges renders every cart-count element. With oob set they are marked for
// htmx out-of-band replacement.
func Badges(count int, oob bool) templ.Component {
	return component("badges", struct {
		IDs   []string
		Count int
		OOB   bool
	}{BadgeIDs, count, oob})
}

func Toasts(toasts []notify.Toast, oob bool) templ.Component {
	return component("toasts", struct {
		Toasts []notify.Toast
		OOB    bool
	}{toasts, oob})
}

// Page is a full document. Nil sections are containers the page does not
// expose and are skipped.
type Page struct {
	Title     string
	Active    string
	CartCount int
	Toasts    []notify.Toast
	Sections  []templ.Component
}

func (p Page) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		sections := make([]template.HTML, 0, len(p.Sections))
		for _, s := range p.Sections {
			if s == nil {
				continue
			}
			h, err := renderHTML(ctx, s)
			if err != nil {
				return err
			}
			sections = append(sections, h)
		}

		toasts, err := renderHTML(ctx, Toasts(p.Toasts, false))
		if err != nil {
			return err
		}
		badges, err := renderBadgeMap(p.CartCount)
		if err != nil {
			return err
		}

		return templates.ExecuteTemplate(w, "layout", struct {
			Page
			Body   []template.HTML
			Toast  template.HTML
			Badges map[string]template.HTML
		}{p, sections, toasts, badges})
	})
}

// Fragment renders an htmx response: the rebuilt container (if any) followed
// by out-of-band badges and toasts.
func Fragment(container templ.Component, count int, toasts []notify.Toast) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if container != nil {
			if err := container.Render(ctx, w); err != nil {
				return err
			}
		}
		if err := Badges(count, true).Render(ctx, w); err != nil {
			return err
		}
		if len(toasts) == 0 {
			return nil
		}
		return Toasts(toasts, true).Render(ctx, w)
	})
}

func NotFound(message string) templ.Component {
	return component("notfound", message)
}

func renderBadgeMap(count int) (map[string]template.HTML, error) {
	out := make(map[string]template.HTML, len(BadgeIDs))
	for _, id := range BadgeIDs {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, "badge", struct {
			ID    string
			Count int
			OOB   bool
		}{id, count, false}); err != nil {
			return nil, err
		}
		out[id] = template.HTML(buf.String())
	}
	return out, nil
}

func renderHTML(ctx context.Context, c templ.Component) (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Problem is shown in place of a container that could not be rendered.
func Problem(message string) templ.Component {
	return component("problem", message)
}
