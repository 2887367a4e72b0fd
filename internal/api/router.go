package api

import (
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/framelink/pkg/pipeline"
)

// NewRouter mounts every route. /healthz is never behind auth.
func NewRouter(runner *pipeline.Runner, token string, logger *log.Logger) chi.Router {
	if logger == nil {
		logger = log.Default()
	}
	h := NewHandler(runner, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(token))
		r.Post("/apply", h.Apply)
		r.Post("/validate", h.Validate)
		r.Post("/linked", h.Linked)
		r.Post("/graph", h.Graph)
	})

	return r
}
