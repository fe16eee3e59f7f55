/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the form pages

ROUTE GROUPS:
  /api/employees/*      Roster management
  /api/reports/*        Self-report submission and editing
  /api/cbo/*            CBO CSV upload
  /api/verification/*   Reconciliation runs and check marks
  /api/workdays         Manual workday/holiday overrides
  /api/settings         Notification toggle
  /health               Liveness probe
  /*                    Static files (form and admin pages)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Roster routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Patch("/{id}/toggle", h.ToggleEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
		})

		// Self-report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.ListReports)
			r.Post("/", h.SubmitReports)
			r.Put("/{id}", h.UpdateReport)
			r.Delete("/{id}", h.DeleteReport)
		})

		// Verification routes
		r.Post("/cbo/upload", h.UploadCBO)
		r.Route("/verification", func(r chi.Router) {
			r.Post("/", h.RunVerification)
			r.Post("/checks", h.UpdateCheck)
		})

		// Manual workday overrides
		r.Route("/workdays", func(r chi.Router) {
			r.Get("/", h.ListWorkdays)
			r.Post("/", h.SetWorkday)
			r.Delete("/", h.DeleteWorkday)
		})

		// Notification settings
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Post("/", h.UpdateSettings)
			r.Delete("/", h.ResetSettings)
		})
	})

	r.Get("/health", h.Health)

	// Serve the static form/admin pages when present.
	staticDir := "./public"
	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", fileServer.ServeHTTP)
	}

	return r
}
