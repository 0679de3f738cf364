// Package api provides the HTTP REST API and WebSocket server for the
// Electrolux bridge.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/auth"
	"github.com/nerrad567/gray-logic-electrolux/internal/bridges/electrolux"
	"github.com/nerrad567/gray-logic-electrolux/internal/history"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Controller drives the appliances. *reconciler.Reconciler satisfies it.
type Controller interface {
	SendCommand(ctx context.Context, applianceID, ref string, input any) (map[string]any, error)
	Refresh(ctx context.Context, id string) error
	RefreshAll(ctx context.Context) error
	RefetchPending(id string) bool
}

// BridgeStatus reports MQTT bridge counters. *electrolux.Bridge satisfies it.
type BridgeStatus interface {
	GetMetrics() electrolux.BridgeMetrics
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *appliance.Registry

	// Controller is required; commands and refreshes go through it.
	Controller Controller

	// Hub is optional; when nil the server creates one. Register the hub as
	// a reconciler observer to stream updates.
	Hub *Hub

	History history.Repository // optional: history and command log endpoints
	Keys    *auth.KeyRing      // optional: X-API-Key authentication
	Bridge  BridgeStatus       // optional: bridge counters in /system
	DB      *database.DB       // optional: pool stats in /system

	// Gatherer serves Prometheus metrics at MetricsPath when set.
	Gatherer    prometheus.Gatherer
	MetricsPath string

	NotifyPolicy      appliance.NotifyPolicy
	NotificationTitle string

	Version string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	registry    *appliance.Registry
	control     Controller
	history     history.Repository
	keys        *auth.KeyRing
	bridge      BridgeStatus
	db          *database.DB
	gatherer    prometheus.Gatherer
	metricsPath string
	policy      appliance.NotifyPolicy
	title       string
	version     string
	startedAt   time.Time
	tickets     *ticketStore

	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, registry, controller)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("appliance registry is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}

	title := deps.NotificationTitle
	if title == "" {
		title = appliance.DefaultNotificationTitle
	}
	metricsPath := deps.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	s := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		secCfg:      deps.Security,
		logger:      deps.Logger,
		registry:    deps.Registry,
		control:     deps.Controller,
		history:     deps.History,
		keys:        deps.Keys,
		bridge:      deps.Bridge,
		db:          deps.DB,
		gatherer:    deps.Gatherer,
		metricsPath: metricsPath,
		policy:      deps.NotifyPolicy,
		title:       title,
		version:     deps.Version,
		startedAt:   time.Now(),
		tickets:     newTicketStore(),
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, deps.Logger, deps.Registry)
	}

	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and ticket cleanup, and launches the HTTP
// listener in a background goroutine. The server can be stopped with
// Close().
//
// Parameters:
//   - ctx: Context for background goroutines (not the listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	go s.cleanTicketsLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
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

// HealthCheck verifies the API server is running.
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
