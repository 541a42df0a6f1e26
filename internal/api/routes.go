package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (auth required when an API key is configured)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Route("/journals", func(r chi.Router) {
				r.Get("/", h.ListJournals)
				r.Post("/", h.CreateJournal)
				r.Get("/deleted", h.ListDeletedJournals)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(ResolveID)
					r.Get("/", h.GetJournal)
					r.Put("/", h.UpdateJournal)
					r.Delete("/", h.DeleteJournal)
					r.Post("/trash", h.TrashJournal)
					r.Post("/restore", h.RestoreJournal)
				})
			})

			r.Route("/entries", func(r chi.Router) {
				r.Get("/", h.ListEntries)
				r.Post("/", h.CreateEntry)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(ResolveID)
					r.Get("/", h.GetEntry)
					r.Put("/", h.UpdateEntry)
					r.Delete("/", h.DeleteEntry)
				})
			})

			r.Route("/watch", func(r chi.Router) {
				r.Get("/journals", h.WatchJournals)
				r.Get("/entries", h.WatchEntries)
				r.Get("/selection", h.WatchSelection)
			})

			r.Get("/session/selection", h.GetSelection)
			r.Put("/session/selection", h.PutSelection)
		})
	})

	return r
}
