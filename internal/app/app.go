package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"loglens/internal/config"
	apierrors "loglens/internal/errors"
	"loglens/internal/infrastructure"
	customMiddleware "loglens/internal/middleware"
	"loglens/internal/operations"
	"loglens/internal/services"
	handlers "loglens/internal/transport/http"
	ws "loglens/internal/websocket"
	"loglens/pkg/contracts"
)

// AppName identifies the service in logs and version output
const AppName = "loglens"

// Long-running analysis operations get their own request budget,
// separate from the ordinary API timeout.
const operationTimeout = 30 * time.Minute

// jobQueueWorkers bounds concurrent pipeline executions
const jobQueueWorkers = 4

// Application is the dependency container for the HTTP server
type Application struct {
	Config          *config.Config
	Paths           *config.Paths
	Router          *chi.Mux
	Server          *http.Server
	WebSocketHub    *ws.Hub
	AnalysisService *services.AnalysisService
	DataService     *services.DataService
	EntityService   *services.EntityService
	HealthService   *services.HealthService
	JobQueue        *operations.JobQueue
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	BusinessMetrics *infrastructure.BusinessMetrics
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	applyPathOverrides(paths, cfg)

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	if err := operations.InitGlobalOperationTracer(otelProviders); err != nil {
		return nil, fmt.Errorf("failed to initialize operation tracer: %w", err)
	}

	if err := ws.InitOTelMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize WebSocket metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// applyPathOverrides folds configured path overrides into the
// executable-relative defaults
func applyPathOverrides(paths *config.Paths, cfg *config.Config) {
	if cfg.Paths.DataDir != "" {
		paths.DataDir = cfg.Paths.DataDir
	}
	if cfg.Paths.DatasetsDir != "" {
		paths.DatasetsDir = cfg.Paths.DatasetsDir
	}
	if cfg.Paths.ReportsDir != "" {
		paths.ReportsDir = cfg.Paths.ReportsDir
	}
	if cfg.Paths.DefinitionsFile != "" {
		paths.DefinitionsFile = cfg.Paths.DefinitionsFile
	}
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	businessMetrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		a.Logger.Warn("Business metrics unavailable", slog.String("error", err.Error()))
	}
	a.BusinessMetrics = businessMetrics

	analysisService, err := services.NewAnalysisService(
		a.Paths,
		ws.NewOperationHubAdapter(hub),
		businessMetrics,
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize analysis service: %w", err)
	}
	a.AnalysisService = analysisService

	jobStore := operations.NewMemoryJobStore()
	a.JobQueue = operations.NewJobQueue(jobQueueWorkers, jobStore, analysisService.GetManager(), a.Paths, a.Logger)
	a.JobQueue.Start(context.Background())

	a.DataService = services.NewDataService(a.Paths, a.Logger)

	entityService, err := services.NewEntityService(a.Paths, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize entity service: %w", err)
	}
	a.EntityService = entityService

	a.HealthService = services.NewHealthService(a.Paths, hub, analysisService, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that does not wrap the ResponseWriter may run
	// before the WebSocket upgrade
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		if a.BusinessMetrics != nil {
			r.Use(customMiddleware.BusinessMetricsMiddleware(a.BusinessMetrics))
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if a.Config.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.RateLimit.RPS,
				a.Config.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus exposition stays outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		errorHandler := apierrors.NewErrorHandler(a.Logger, false)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.GetVersion)

			dataHandler := handlers.NewDataHandler(a.DataService, a.Logger, errorHandler)
			dataHandler.SetSheetsConfig(a.Config.Sheets)
			r.Mount("/datasets", dataHandler.DatasetRoutes())
			r.Mount("/reports", dataHandler.ReportRoutes())

			entityHandler := handlers.NewEntityHandler(a.EntityService, a.Logger, errorHandler)
			r.Mount("/entities", entityHandler.Routes())

			signatureHandler := handlers.NewSignatureHandler(a.AnalysisService, a.Logger, errorHandler)
			r.Mount("/signatures", signatureHandler.Routes())
		})

		// Detection and pipeline runs can outlive the standard timeout
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(operationTimeout, a.Logger))

			anomalyHandler := handlers.NewAnomalyHandler(a.AnalysisService, a.Logger, errorHandler)
			r.Mount("/anomalies", anomalyHandler.Routes())

			operationsHandler := handlers.NewOperationsHandler(a.AnalysisService, ws.NewOperationHubAdapter(a.WebSocketHub), a.Logger)
			operationsHandler.SetMetrics(a.BusinessMetrics)
			operationsHandler.SetJobQueue(a.JobQueue)
			r.Mount("/operations", operationsHandler.Routes())
		})
	})
}

// getCORSConfig returns CORS configuration based on environment
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	local := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}

	if a.isDevelopmentMode() {
		cfg.AllowedOrigins = append(local,
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		)
	} else {
		cfg.AllowedOrigins = local
	}

	return cfg
}

// isDevelopmentMode detects if we're running in development mode
func (a *Application) isDevelopmentMode() bool {
	return os.Getenv("GO_ENV") == "development" || os.Getenv("LOGLENS_ENV") == "development"
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Address(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server and background services
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Config.Address()),
		slog.String("level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "Application paths",
		slog.String("datasets_dir", a.Paths.DatasetsDir),
		slog.String("reports_dir", a.Paths.ReportsDir),
		slog.String("definitions_file", a.Paths.DefinitionsFile),
		slog.String("logs_dir", a.Paths.LogsDir))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("url", fmt.Sprintf("http://%s", a.Config.Address())))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.JobQueue != nil {
		a.Logger.InfoContext(ctx, "Stopping job queue")
		if err := a.JobQueue.Stop(30 * time.Second); err != nil {
			a.Logger.ErrorContext(ctx, "Failed to stop job queue gracefully", slog.String("error", err.Error()))
		}
	}

	if err := a.AnalysisService.CancelAll(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Error cancelling operations", slog.String("error", err.Error()))
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// handleWebSocket upgrades the connection and registers the client
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || a.isDevelopmentMode() {
				return true
			}
			for _, allowed := range a.getCORSConfig().AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			a.Logger.WarnContext(ctx, "WebSocket origin rejected", slog.String("origin", origin))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := ws.NewClientWithTrace(a.WebSocketHub, conn, reqID, a.Logger)
	a.WebSocketHub.Register(client)

	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				a.Logger.ErrorContext(ctx, "WebSocket write pump panic",
					slog.Any("panic", rec),
					slog.String("request_id", reqID))
			}
		}()
		client.WritePump()
	}()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				a.Logger.ErrorContext(ctx, "WebSocket read pump panic",
					slog.Any("panic", rec),
					slog.String("request_id", reqID))
			}
		}()
		client.ReadPump()
	}()
}

// performStartupHealthCheck verifies critical paths are usable
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	health := a.HealthService.GetHealth(ctx)
	if health.Status == "healthy" {
		a.Logger.InfoContext(ctx, "Startup health check passed")
		return nil
	}

	var failed []string
	for name, check := range health.Checks {
		if check.Status != "ok" {
			failed = append(failed, fmt.Sprintf("%s: %s", name, check.Message))
		}
	}
	return fmt.Errorf("startup health check degraded: %v", failed)
}
