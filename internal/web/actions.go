package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"GlowMint/internal/cart"
	"GlowMint/internal/catalog"
	"GlowMint/internal/checkout"
	"GlowMint/internal/notify"
	"GlowMint/internal/store"
	"GlowMint/internal/view"
	"GlowMint/pkg/kit"
)

const maxFormBody = 64 << 10

var errBadForm = errors.New("bad form")

type itemForm struct {
	ID string `validate:"required,max=64"`
}

type quantityForm struct {
	ID  string `validate:"required,max=64"`
	Qty string `validate:"required,max=16"`
}

func readForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", errBadForm, err)
	}
	return nil
}

func (h *handler) itemForm(w http.ResponseWriter, r *http.Request) (itemForm, error) {
	if err := readForm(w, r); err != nil {
		return itemForm{}, err
	}

	f := itemForm{ID: strings.TrimSpace(r.PostForm.Get("id"))}
	if err := h.validate.Struct(f); err != nil {
		return itemForm{}, fmt.Errorf("%w: %v", errBadForm, err)
	}
	return f, nil
}

func (h *handler) quantityForm(w http.ResponseWriter, r *http.Request) (quantityForm, error) {
	if err := readForm(w, r); err != nil {
		return quantityForm{}, err
	}

	f := quantityForm{
		ID:  strings.TrimSpace(r.PostForm.Get("id")),
		Qty: strings.TrimSpace(r.PostForm.Get("qty")),
	}
	if err := h.validate.Struct(f); err != nil {
		// An empty quantity box is a bad number, not a bad request.
		if f.ID != "" && f.Qty == "" {
			return f, cart.ErrInvalidQuantity
		}
		return quantityForm{}, fmt.Errorf("%w: %v", errBadForm, err)
	}
	return f, nil
}

func (h *handler) cartAdd(w http.ResponseWriter, r *http.Request) {
	r = withCountSlot(r)

	f, err := h.itemForm(w, r)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}

	p, err := h.Catalog.Lookup(f.ID)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}

	if _, err := h.Cart.Add(r.Context(), visitorID(r), p); err != nil {
		h.fail(w, r, err, "/")
		return
	}

	h.metrics.Action("cart_add")
	h.respond(w, r, "/")
}

func (h *handler) cartRemove(w http.ResponseWriter, r *http.Request) {
	r = withCountSlot(r)

	f, err := h.itemForm(w, r)
	if err != nil {
		h.fail(w, r, err, "/cart")
		return
	}

	if _, err := h.Cart.Remove(r.Context(), visitorID(r), f.ID); err != nil {
		h.fail(w, r, err, "/cart")
		return
	}

	h.metrics.Action("cart_remove")
	h.respond(w, r, "/cart")
}

func (h *handler) cartQuantity(w http.ResponseWriter, r *http.Request) {
	r = withCountSlot(r)

	f, err := h.quantityForm(w, r)
	if err != nil {
		h.fail(w, r, err, "/cart")
		return
	}

	qty, err := cart.ParseQuantity(f.Qty)
	if err != nil {
		h.fail(w, r, err, "/cart")
		return
	}

	if _, err := h.Cart.SetQuantity(r.Context(), visitorID(r), f.ID, qty); err != nil {
		h.fail(w, r, err, "/cart")
		return
	}

	h.metrics.Action("cart_quantity")
	h.respond(w, r, "/cart")
}

func (h *handler) cartClear(w http.ResponseWriter, r *http.Request) {
	r = withCountSlot(r)

	if err := readForm(w, r); err != nil {
		h.fail(w, r, err, "/cart")
		return
	}

	if err := h.Cart.Clear(r.Context(), visitorID(r)); err != nil {
		h.fail(w, r, err, "/cart")
		return
	}

	h.metrics.Action("cart_clear")
	h.respond(w, r, "/cart")
}

func (h *handler) wishlistToggle(w http.ResponseWriter, r *http.Request) {
	f, err := h.itemForm(w, r)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}

	p, err := h.Catalog.Lookup(f.ID)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}

	added, err := h.Wishlist.Toggle(r.Context(), visitorID(r), p)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}

	if added {
		h.metrics.Action("wishlist_add")
	} else {
		h.metrics.Action("wishlist_remove")
	}
	h.respond(w, r, "/")
}

func (h *handler) wishlistRemove(w http.ResponseWriter, r *http.Request) {
	f, err := h.itemForm(w, r)
	if err != nil {
		h.fail(w, r, err, "/wishlist")
		return
	}

	if _, err := h.Wishlist.Remove(r.Context(), visitorID(r), f.ID); err != nil {
		h.fail(w, r, err, "/wishlist")
		return
	}

	h.metrics.Action("wishlist_remove")
	h.respond(w, r, "/wishlist")
}

func (h *handler) checkoutConfirm(w http.ResponseWriter, r *http.Request) {
	r = withCountSlot(r)

	if err := readForm(w, r); err != nil {
		h.fail(w, r, err, "/checkout")
		return
	}

	receipt, err := h.Checkout.Confirm(r.Context(), visitorID(r))
	if err != nil {
		h.fail(w, r, err, "/checkout")
		return
	}

	h.metrics.Action("checkout_confirm")
	w.Header().Set("X-Order-ID", receipt.ID)

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	kit.SeeOther(w, r, "/")
}

// fail maps an action error to a response. Errors the visitor can fix are
// reported with a toast and the usual re-render; the rest are error pages.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	ctx := r.Context()
	vid := visitorID(r)

	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		h.Toasts.Notify(ctx, vid, "Quantity must be a whole number.")
		h.respond(w, r, fallback)

	case errors.Is(err, checkout.ErrEmptyCart):
		h.Toasts.Notify(ctx, vid, "No items to checkout.")
		h.respond(w, r, fallback)

	case errors.Is(err, catalog.ErrNotFound):
		if isHTMX(r) {
			h.problem(w, r, http.StatusNotFound, "That product is no longer available.")
			return
		}
		h.Toasts.Notify(ctx, vid, "That product is no longer available.")
		kit.SeeOther(w, r, backTo(r, fallback))

	case errors.Is(err, errBadForm):
		h.log.Debug("bad form", zap.String("path", r.URL.Path), zap.Error(err))
		h.problem(w, r, http.StatusBadRequest, "That request could not be read.")

	case errors.Is(err, cart.ErrTotalOverflow):
		h.problem(w, r, http.StatusUnprocessableEntity, "Your order total is too large to place. Please reduce a quantity.")

	case errors.Is(err, store.ErrUnavailable):
		h.log.Warn("store unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		h.problem(w, r, http.StatusServiceUnavailable, "We could not save your change. Please try again shortly.")

	default:
		h.log.Error("storefront action failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.problem(w, r, http.StatusInternalServerError, "We could not save your change. Please try again.")
	}
}

// problem reports msg. htmx leaves 4xx/5xx responses unswapped, so htmx
// requests get a 200 that keeps the page as is and only shows a toast; the
// real status travels in X-Storefront-Status.
func (h *handler) problem(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if isHTMX(r) {
		w.Header().Set("HX-Reswap", "none")
		w.Header().Set("X-Storefront-Status", strconv.Itoa(status))
		h.html(w, r, http.StatusOK, view.Toasts([]notify.Toast{{Message: msg}}, true))
		return
	}
	h.page(w, r, status, view.Page{
		Title:    "Something went wrong",
		Sections: []templ.Component{view.Problem(msg)},
	})
}
