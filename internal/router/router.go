// Package router sets up all HTTP routes and middleware chains for the
// wiki merge service.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"wikimerge/internal/handlers"
	"wikimerge/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(pages *handlers.Pages, changes *handlers.Changes) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	// Health check.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		// Project-scoped page routes.
		r.Route("/projects/{projectID}/wiki", func(r chi.Router) {
			r.Post("/", pages.Create)
			r.Get("/", pages.List)
			r.Get("/tree", pages.Tree)
			r.Get("/slug/{slug}", pages.GetBySlug)
		})

		// Page routes.
		r.Route("/wiki/{pageID}", func(r chi.Router) {
			r.Get("/", pages.Get)
			r.Put("/", pages.Update)
			r.Delete("/", pages.Delete)
			r.Put("/content", pages.UpdateContent)
			r.Put("/status", pages.UpdateStatus)

			r.Route("/changes", func(r chi.Router) {
				r.Post("/", changes.Create)
				r.Get("/", changes.ListByPage)
				r.Get("/pending", changes.ListPending)
				r.Get("/conflicts", changes.ListConflicts)
			})
		})

		// Change proposal routes.
		r.Route("/changes/{changeID}", func(r chi.Router) {
			r.Get("/", changes.Get)
			r.Put("/", changes.Update)
			r.Delete("/", changes.Delete)
			r.Get("/preview", changes.Preview)
			r.Post("/merge", changes.Merge)
			r.Post("/resolve", changes.Resolve)
			r.Post("/reject", changes.Reject)
		})

		// Work item routes.
		r.Route("/items/{itemType}/{itemID}", func(r chi.Router) {
			r.Get("/changes", changes.ListByItem)
			r.Post("/merge", changes.MergeByItem)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
