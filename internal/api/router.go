package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-electrolux/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.gatherer != nil {
		r.Handle(s.metricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)
			r.With(s.requirePermission(auth.PermSystemAdmin)).Post("/auth/token", s.handleIssueToken)

			r.Route("/appliances", func(r chi.Router) {
				read := s.requirePermission(auth.PermApplianceRead)

				r.With(read).Get("/", s.handleListAppliances)
				r.With(s.requirePermission(auth.PermApplianceRefresh)).Post("/refresh", s.handleRefreshAll)

				r.Route("/{id}", func(r chi.Router) {
					r.With(read).Get("/", s.handleGetAppliance)
					r.With(read).Get("/entities", s.handleListEntities)
					r.With(read).Get("/entities/{entity}", s.handleGetEntity)
					r.With(s.requirePermission(auth.PermApplianceCommand)).Put("/entities/{entity}", s.handleCommand)
					r.With(read).Get("/entities/{entity}/history", s.handleEntityHistory)
					r.With(read).Get("/history", s.handleApplianceHistory)
					r.With(read).Get("/commands", s.handleCommandLog)
					r.With(read).Get("/alerts", s.handleAlerts)
					r.With(s.requirePermission(auth.PermApplianceRefresh)).Post("/refresh", s.handleRefresh)
					r.With(s.requirePermission(auth.PermSystemAdmin)).Get("/diagnostics", s.handleDiagnostics)
				})
			})

			r.With(s.requirePermission(auth.PermSystemAdmin)).Get("/system", s.handleSystem)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"appliances": s.registry.Len(),
	})
}
