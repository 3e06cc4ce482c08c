package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds the probe of each dependency in GET /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "resource not found")
	})
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Get("/info", s.handleInfo)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/me", s.handleMe)
			r.Get("/metrics", s.handleMetrics)
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/departments", func(r chi.Router) {
				r.Get("/", s.handleListDepartments)
				r.Post("/", s.handleCreateDepartment)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDepartment)
					r.Put("/", s.handleUpdateDepartment)
					r.Patch("/", s.handleUpdateDepartment)
					r.Delete("/", s.handleDeleteDepartment)
				})
			})

			r.Route("/roles", func(r chi.Router) {
				r.Get("/", s.handleListRoles)
				r.Post("/", s.handleCreateRole)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetRole)
					r.Patch("/", s.handleUpdateRole)
					r.Delete("/", s.handleDeleteRole)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetUser)
					r.Delete("/", s.handleDeleteUser)
				})
			})

			r.Route("/profiles", func(r chi.Router) {
				r.Get("/", s.handleListProfiles)
				r.Post("/", s.handleCreateProfile)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetProfile)
					r.Put("/", s.handleUpdateProfile)
					r.Patch("/", s.handleUpdateProfile)
					r.Delete("/", s.handleDeleteProfile)
				})
			})

			r.Route("/sensors", func(r chi.Router) {
				r.Get("/", s.handleListSensors)
				r.Post("/", s.handleCreateSensor)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSensor)
					r.Put("/", s.handleUpdateSensor)
					r.Patch("/", s.handleUpdateSensor)
					r.Delete("/", s.handleDeleteSensor)
					r.Patch("/state", s.handleSetSensorState)
				})
			})

			r.Route("/events", func(r chi.Router) {
				r.Get("/", s.handleListEvents)
				r.Post("/", s.handleCreateEvent)
				r.Get("/recent", s.handleRecentEvents)
				r.Get("/by-sensor", s.handleEventsBySensor)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetEvent)
					// The log is append-only.
					r.Put("/", handleMethodNotAllowed)
					r.Patch("/", handleMethodNotAllowed)
					r.Delete("/", handleMethodNotAllowed)
				})
			})

			r.Route("/barriers", func(r chi.Router) {
				r.Get("/", s.handleListBarriers)
				r.Post("/", s.handleCreateBarrier)
				r.Get("/open", s.handleListOpenBarriers)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetBarrier)
					r.Put("/", s.handleUpdateBarrier)
					r.Patch("/", s.handleUpdateBarrier)
					r.Delete("/", s.handleDeleteBarrier)
					r.Patch("/state", s.handleSetBarrierState)
				})
			})

			// WebSocket (auth via ticket, validated in handler)
			r.Get(s.wsPath(), s.handleWebSocket)
		})
	})

	return r
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "", "method not allowed")
}

// handleInfo describes the service. It needs no authentication.
func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"project":     "SmartConnect",
		"description": "RFID sensor management and access control API.",
		"version":     s.version,
	})
}

// handleHealth returns the server health status. Any failing dependency
// turns the response into a 503 naming the component.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	components := make(map[string]string, len(s.checks))

	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check.HealthCheck(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}

// handleMe returns the caller as the service sees them.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	if !p.Authenticated {
		writeUnauthorized(w, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":      p.UserID,
		"role":         p.Role,
		"role_display": p.Role.Display(),
		"resolved":     p.Role.Resolved(),
	})
}

// wsPath returns the configured WebSocket path relative to /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
