package web

import (
	"net/http"

	"GlowMint/internal/cart"
	"GlowMint/internal/catalog"
	"GlowMint/pkg/kit"
)

type cartSnapshot struct {
	Items []cart.Line `json:"items"`
	Count int         `json:"count"`
	Total int64       `json:"total"`
}

type wishlistSnapshot struct {
	Items []catalog.Product `json:"items"`
	Count int               `json:"count"`
}

func (h *handler) apiCart(w http.ResponseWriter, r *http.Request) {
	lines := h.Cart.Lines(r.Context(), visitorID(r))
	if lines == nil {
		lines = []cart.Line{}
	}

	total, err := cart.Total(lines)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "total overflow", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, cartSnapshot{
		Items: lines,
		Count: cart.Count(lines),
		Total: total,
	})
}

func (h *handler) apiWishlist(w http.ResponseWriter, r *http.Request) {
	entries := h.Wishlist.Entries(r.Context(), visitorID(r))
	if entries == nil {
		entries = []catalog.Product{}
	}

	kit.WriteJSON(w, http.StatusOK, wishlistSnapshot{Items: entries, Count: len(entries)})
}
