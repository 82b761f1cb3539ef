package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/tracker-core/internal/geofence"
	"github.com/nerrad567/tracker-core/internal/infrastructure/config"
	"github.com/nerrad567/tracker-core/internal/infrastructure/database"
	"github.com/nerrad567/tracker-core/internal/infrastructure/logging"
	"github.com/nerrad567/tracker-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/tracker-core/internal/ingest"
	"github.com/nerrad567/tracker-core/internal/tracking"
	"github.com/nerrad567/tracker-core/internal/visit"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Fixes    config.FixesConfig
	Export   config.ExportConfig
	Logger   *logging.Logger
	DB       *database.DB // optional: status endpoint pool stats
	FixRepo  tracking.Repository
	ZoneRepo geofence.Repository
	Ingest   *ingest.Service
	Visits   *visit.Service
	MQTT     *mqtt.Client // optional: status endpoint only
	Hub      *Hub         // If set, the server uses this hub instead of creating its own
	Version  string
}

// Server is the HTTP API server for Tracker Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	fixesCfg    config.FixesConfig
	exportCfg   config.ExportConfig
	logger      *logging.Logger
	db          *database.DB
	fixRepo     tracking.Repository
	zoneRepo    geofence.Repository
	ingest      *ingest.Service
	visits      *visit.Service
	mqtt        *mqtt.Client
	version     string
	startTime   time.Time
	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.FixRepo == nil || deps.ZoneRepo == nil {
		return nil, fmt.Errorf("fix and zone repositories are required")
	}
	if deps.Ingest == nil || deps.Visits == nil {
		return nil, fmt.Errorf("ingest and visit services are required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		fixesCfg:  deps.Fixes,
		exportCfg: deps.Export,
		logger:    deps.Logger,
		db:        deps.DB,
		fixRepo:   deps.FixRepo,
		zoneRepo:  deps.ZoneRepo,
		ingest:    deps.Ingest,
		visits:    deps.Visits,
		mqtt:      deps.MQTT,
		version:   deps.Version,
		startTime: time.Now(),
	}

	// The ingest service broadcasts through the hub, so main creates it first.
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation of background goroutines
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
