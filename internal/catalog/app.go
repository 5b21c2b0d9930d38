package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"GlowMint/pkg/kit"
)

// Server exposes the catalog as read-only JSON.
type Server struct {
	Catalog *Catalog
	Log     *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Register adds the catalog routes to an existing router.
func (s *Server) Register(r chi.Router) {
	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Catalog.List())
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := s.Catalog.Get(id)
	if !ok {
		if s.Log != nil {
			s.Log.Debug("product lookup miss", zap.String("id", id))
		}
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}
