package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"GlowMint/internal/cart"
	"GlowMint/internal/catalog"
	"GlowMint/internal/checkout"
	"GlowMint/internal/notify"
	"GlowMint/internal/store"
	"GlowMint/internal/visitor"
	"GlowMint/internal/wishlist"
	"GlowMint/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry
	Metrics  *kit.Metrics

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Catalog  *catalog.Catalog
	Cart     *cart.Manager
	Wishlist *wishlist.Manager
	Checkout *checkout.Service
	Toasts   *notify.Queue

	// Store is probed by /readyz.
	Store   store.KV
	Visitor visitor.Cookies

	MutationLimitPerMin int
}

const (
	readyTimeout   = 2 * time.Second
	mutationWindow = time.Minute
)

type handler struct {
	Deps
	log      *zap.Logger
	metrics  *kit.Metrics
	validate *validator.Validate
}

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	if httpDeps.Log == nil {
		httpDeps.Log = zap.NewNop()
	}
	if httpDeps.Metrics == nil && httpDeps.Registry != nil {
		httpDeps.Metrics = kit.NewMetrics(httpDeps.Registry)
	}

	h := &handler{
		Deps:     deps,
		log:      httpDeps.Log,
		metrics:  httpDeps.Metrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", h.readyz)

	r.Group(func(pr chi.Router) {
		pr.Use(deps.Visitor.Middleware)

		pr.Get("/", h.catalogPage)
		pr.Get("/product", h.productPage)
		pr.Get("/cart", h.cartPage)
		pr.Get("/wishlist", h.wishlistPage)
		pr.Get("/checkout", h.checkoutPage)

		pr.Group(func(mr chi.Router) {
			mr.Use(kit.NewIPRateLimiter(deps.MutationLimitPerMin, mutationWindow).Middleware)

			mr.Post("/cart/add", h.cartAdd)
			mr.Post("/cart/remove", h.cartRemove)
			mr.Post("/cart/quantity", h.cartQuantity)
			mr.Post("/cart/clear", h.cartClear)
			mr.Post("/wishlist/toggle", h.wishlistToggle)
			mr.Post("/wishlist/remove", h.wishlistRemove)
			mr.Post("/checkout/confirm", h.checkoutConfirm)
		})

		pr.Route("/api", func(api chi.Router) {
			(&catalog.Server{Catalog: deps.Catalog, Log: httpDeps.Log}).Register(api)
			api.Get("/cart", h.apiCart)
			api.Get("/wishlist", h.apiWishlist)
		})
	})

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Metrics == nil {
		return
	}

	r.Use(deps.Metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled || deps.Registry == nil {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		h.log.Warn("readyz failed: store", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "store not ready", nil)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func visitorID(r *http.Request) string {
	id, _ := visitor.FromContext(r.Context())
	return id
}
