// Package api provides the HTTP REST API and WebSocket server for SmartConnect Core.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/smartconnect-core/internal/auth"
	"github.com/nerrad567/smartconnect-core/internal/barrier"
	"github.com/nerrad567/smartconnect-core/internal/department"
	"github.com/nerrad567/smartconnect-core/internal/event"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/config"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/logging"
	"github.com/nerrad567/smartconnect-core/internal/sensor"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// IdentityVerifier turns an Authorization header into an identity.
type IdentityVerifier interface {
	IdentityFromHeader(header string) (auth.Identity, error)
}

// RoleAuthority resolves callers to principals and drops cached roles
// when a profile changes.
type RoleAuthority interface {
	Resolve(ctx context.Context, id auth.Identity) (auth.Principal, error)
	Invalidate(ctx context.Context, userID string) error
}

// EventStore records events and serves the read-only queries over the log.
type EventStore interface {
	Record(ctx context.Context, req event.Request) (*event.Event, error)
	Get(ctx context.Context, id string) (*event.Event, error)
	List(ctx context.Context) ([]event.Event, error)
	Recent(ctx context.Context, n int) ([]event.Event, error)
	ForSensor(ctx context.Context, sensorID string) ([]event.Event, error)
}

// HealthChecker is a component reported by GET /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Logger      *logging.Logger
	Tokens      IdentityVerifier
	Authorizer  RoleAuthority
	Departments department.Repository
	Sensors     sensor.Repository
	Barriers    barrier.Repository
	Events      EventStore
	Users       auth.UserRepository
	Roles       auth.RoleRepository
	Profiles    auth.ProfileRepository
	// DB is optional; it feeds the pool statistics in GET /metrics.
	DB DBStatsProvider
	// Checks are optional; each named component is probed by GET /health.
	Checks  map[string]HealthChecker
	Version string
}

// Server is the HTTP API server for SmartConnect Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	tokens      IdentityVerifier
	authz       RoleAuthority
	departments department.Repository
	sensors     sensor.Repository
	barriers    barrier.Repository
	events      EventStore
	users       auth.UserRepository
	roles       auth.RoleRepository
	profiles    auth.ProfileRepository
	db          DBStatsProvider
	checks      map[string]HealthChecker
	version     string
	startTime   time.Time
	server      *http.Server
	hub         *Hub
	tickets     *ticketStore
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called, but its WebSocket hub
// exists immediately so it can be registered as an event observer.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Tokens == nil || deps.Authorizer == nil:
		return nil, fmt.Errorf("token verifier and authorizer are required")
	case deps.Departments == nil || deps.Sensors == nil || deps.Barriers == nil || deps.Events == nil:
		return nil, fmt.Errorf("domain repositories are required")
	case deps.Users == nil || deps.Roles == nil || deps.Profiles == nil:
		return nil, fmt.Errorf("identity repositories are required")
	}

	return &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		logger:      deps.Logger,
		tokens:      deps.Tokens,
		authz:       deps.Authorizer,
		departments: deps.Departments,
		sensors:     deps.Sensors,
		barriers:    deps.Barriers,
		events:      deps.Events,
		users:       deps.Users,
		roles:       deps.Roles,
		profiles:    deps.Profiles,
		db:          deps.DB,
		checks:      deps.Checks,
		version:     deps.Version,
		startTime:   time.Now(),
		hub:         NewHub(deps.WS, deps.Logger),
		tickets:     newTicketStore(),
	}, nil
}

// Hub returns the live feed hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and the ticket cleanup loop, builds the
// router, and launches the HTTP listener in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.tickets.cleanLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
