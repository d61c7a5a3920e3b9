package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/addshow"
	"github.com/marquee/marquee/internal/config"
	"github.com/marquee/marquee/internal/defaults"
	"github.com/marquee/marquee/internal/health"
	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/metrics"
	"github.com/marquee/marquee/internal/notification"
	"github.com/marquee/marquee/internal/registry"
	"github.com/marquee/marquee/internal/releasegroup"
	"github.com/marquee/marquee/internal/scheduler"
	"github.com/marquee/marquee/internal/scheduler/tasks"
	"github.com/marquee/marquee/internal/showqueue"
	"github.com/marquee/marquee/internal/websocket"
)

// Server handles HTTP requests for the Marquee API.
type Server struct {
	echo      *echo.Echo
	db        *sql.DB
	hub       *websocket.Hub
	logs      LogsProvider
	logger    zerolog.Logger
	cfg       *config.Config
	startedAt time.Time

	// Services
	defaultsService     *defaults.Service
	registry            *registry.Registry
	metadataService     *metadata.Service
	releaseGroups       *releasegroup.Store
	notificationService *notification.Service
	healthService       *health.Service
	queue               *showqueue.Queue
	resolver            *addshow.Resolver
	metrics             *metrics.Metrics
	scheduler           *scheduler.Scheduler

	stopQueue context.CancelFunc
}

// NewServer creates a new API server instance. Hub and logs may be nil.
func NewServer(db *sql.DB, hub *websocket.Hub, logs LogsProvider, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		hub:       hub,
		logs:      logs,
		logger:    logger,
		cfg:       cfg,
		startedAt: time.Now(),
	}

	seed, err := defaults.SeedFromConfig(cfg.Library)
	if err != nil {
		return nil, fmt.Errorf("invalid library defaults: %w", err)
	}

	s.metrics = metrics.New()
	s.defaultsService = defaults.NewService(db, seed, logger)
	s.registry = registry.New(db, logger)
	s.metadataService = metadata.NewService(cfg.Metadata, logger)
	s.releaseGroups = releasegroup.NewStore(db, logger)
	s.notificationService = notification.NewService(hub, 0, logger)
	s.healthService = health.NewService(hub, logger)

	s.queue = showqueue.New(showqueue.Config{
		Workers:    cfg.Queue.Workers,
		CreateDirs: cfg.Library.CreateShowDirs,
	}, s.registry, s.metadataService, s.notificationService, hub, logger)
	s.queue.SetRecorder(s.metrics)

	s.resolver = addshow.NewResolver(
		s.metadataService,
		s.registry,
		s.metadataService,
		s.releaseGroups,
		s.queue,
		logger,
	)
	s.resolver.SetRecorder(s.metrics)

	s.scheduler, err = scheduler.New(logger)
	if err != nil {
		return nil, err
	}
	if err := tasks.RegisterQueuePruneTask(s.scheduler, s.queue, cfg.Queue.Retention, s.metrics); err != nil {
		return nil, err
	}
	if err := tasks.RegisterCachePurgeTask(s.scheduler, s.metadataService.Cache(), s.metrics); err != nil {
		return nil, err
	}
	checker := health.NewChecker(s.healthService, db, s.defaultsService)
	if err := tasks.RegisterHealthCheckTask(s.scheduler, checker); err != nil {
		return nil, err
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:   5,
		Skipper: isWebSocket,
	}))

	if s.cfg.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.cfg.Server.RequestTimeout,
			Skipper: isWebSocket,
		}))
	}
}

func isWebSocket(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}

// setupRoutes configures the controller and API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket)
	}

	// Legacy UI controller
	addshow.NewHandlers(s.resolver, s.defaultsService, s.notificationService).
		RegisterRoutes(s.echo.Group("/addShows"))

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	registry.NewHandlers(s.registry).RegisterRoutes(api.Group("/shows"))
	showqueue.NewHandlers(s.queue).RegisterRoutes(api.Group("/queue"))
	defaults.NewHandlers(s.defaultsService).RegisterRoutes(api.Group("/defaults"), api.Group("/rootdirs"))
	notification.NewHandlers(s.notificationService).RegisterRoutes(api.Group("/notifications"))
	scheduler.NewHandlers(s.scheduler).RegisterRoutes(api.Group("/tasks"))
	health.NewHandlers(s.healthService).RegisterRoutes(api.Group("/health"))

	if s.logs != nil {
		NewLogsHandlers(s.logs).RegisterRoutes(api.Group("/logs"))
	}
}

// LoadReleaseGroups seeds the alias table from the configured YAML file.
func (s *Server) LoadReleaseGroups(ctx context.Context) error {
	path := s.cfg.Library.ReleaseGroupAliases
	if path == "" {
		return nil
	}
	n, err := s.releaseGroups.LoadFile(ctx, path)
	if err != nil {
		return err
	}
	s.logger.Info().Str("path", path).Int("groups", n).Msg("Loaded release group aliases")
	return nil
}

// StartWorkers starts the show queue and the housekeeping scheduler.
func (s *Server) StartWorkers(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.stopQueue = cancel
	s.queue.Start(ctx)
	s.scheduler.Start()
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")

	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	err := s.echo.Shutdown(ctx)

	if s.stopQueue != nil {
		s.stopQueue()
		s.queue.Stop()
		if serr := s.scheduler.Stop(); serr != nil {
			s.logger.Warn().Err(serr).Msg("Failed to stop scheduler")
		}
	}
	s.metadataService.Close()

	return err
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	ctx := c.Request().Context()

	showCount, err := s.registry.Count(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}

	return c.JSON(http.StatusOK, map[string]any{
		"version":   config.Version,
		"startTime": s.startedAt.Format(time.RFC3339),
		"showCount": showCount,
		"queue":     len(s.queue.List()),
		"clients":   clients,
	})
}
