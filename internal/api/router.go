package api

import (
	"net/http"

	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/identity"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter собирает маршруты сервиса.
func NewRouter(h *Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: h.log, NoColor: true}))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(identity.Middleware(h.issuer, h.writeError))

		r.Post("/session", h.wrap(h.createSession))
		r.Get("/categories", h.wrap(h.listCategories))
		r.Get("/subscribe", h.subscribe)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.wrap(h.listPosts))
			r.Get("/{id}", h.wrap(h.getPost))

			r.Post("/{id}/approval", h.wrap(h.setApproval))
			r.Post("/{id}/comments", h.wrap(h.addComment))

			r.Group(func(r chi.Router) {
				r.Use(h.requireRole(domain.RoleWriter))
				r.Post("/", h.wrap(h.createPost))
				r.Put("/{id}", h.wrap(h.editPost))
				r.Delete("/{id}", h.wrap(h.deletePost))
			})
		})
	})

	return router
}
