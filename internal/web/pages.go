package web

import (
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"GlowMint/internal/view"
)

func (h *handler) catalogPage(w http.ResponseWriter, r *http.Request) {
	vid := visitorID(r)
	h.page(w, r, http.StatusOK, view.Page{
		Title:  "Shop",
		Active: "catalog",
		Sections: []templ.Component{
			view.CatalogGrid(h.Catalog.List(), h.Wishlist.IDs(r.Context(), vid)),
		},
	})
}

func (h *handler) productPage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	p, ok := h.Catalog.Get(id)
	if !ok {
		h.log.Debug("product page miss", zap.String("id", id))
		h.page(w, r, http.StatusNotFound, view.Page{
			Title:    "Not found",
			Sections: []templ.Component{view.NotFound("We could not find that product.")},
		})
		return
	}

	h.page(w, r, http.StatusOK, view.Page{
		Title:  p.Title,
		Active: "catalog",
		Sections: []templ.Component{
			view.ProductDetail(p, h.Wishlist.Contains(r.Context(), visitorID(r), p.ID)),
		},
	})
}

func (h *handler) cartPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, view.Page{
		Title:    "Cart",
		Active:   "cart",
		Sections: []templ.Component{view.CartTable(h.Cart.Lines(r.Context(), visitorID(r)))},
	})
}

func (h *handler) wishlistPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, view.Page{
		Title:    "Wishlist",
		Active:   "wishlist",
		Sections: []templ.Component{view.WishlistGrid(h.Wishlist.Entries(r.Context(), visitorID(r)))},
	})
}

func (h *handler) checkoutPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, view.Page{
		Title:    "Checkout",
		Active:   "cart",
		Sections: []templ.Component{h.summary(r.Context(), visitorID(r))},
	})
}
