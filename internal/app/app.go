package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"talkio_backend/database"
	"talkio_backend/internal/auth"
	"talkio_backend/internal/config"
	"talkio_backend/internal/handlers"
	"talkio_backend/internal/logger"
	"talkio_backend/internal/metrics"
	"talkio_backend/internal/middleware"
	"talkio_backend/internal/repositories"
	"talkio_backend/internal/routes"
	"talkio_backend/internal/services"
	"talkio_backend/internal/storage"
	"talkio_backend/internal/validator"
	"talkio_backend/internal/workers"
	"talkio_backend/pkg/apperrors"
	"talkio_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

// App is the wired server: storage, services, websocket hub and router.
type App struct {
	cfg     *config.Config
	db      *gorm.DB
	gateway repositories.Gateway
	hub     *ws.Hub
	router  *gin.Engine
	metrics *metrics.Metrics
}

func New(cfg *config.Config) (*App, error) {
	apperrors.SetDebug(cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{cfg: cfg}

	gw, db, err := openGateway(cfg)
	if err != nil {
		return nil, err
	}
	a.gateway, a.db = gw, db

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.metrics = metrics.New(reg)
	}

	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)
	resolver, err := auth.NewResolver(cfg.WebSocket.AuthMode, tokens)
	if err != nil {
		a.Close()
		return nil, err
	}

	v := validator.New()
	svc := services.NewServiceContainer(cfg, gw, tokens, store)

	a.hub = ws.NewHub(ws.Deps{
		Registry:  ws.NewRegistry(a.metrics),
		Resolver:  resolver,
		Gateway:   gw,
		Messages:  svc.MessageService,
		Reactions: svc.ReactionService,
		Mutations: svc.MutationService,
		Validator: v,
		Metrics:   a.metrics,
		Tracer:    newTracer(cfg.Tracing),
	}, ws.OptionsFromConfig(cfg))

	appHandlers := initializeHandlers(cfg, svc, v, a.hub)
	a.router = a.initializeGinRouter()
	routes.RegisterRoutes(a.router, appHandlers, middleware.AuthMiddleware(tokens))
	routes.SetupWebSocketRoutes(a.router, a.hub)
	if a.metrics != nil {
		routes.RegisterMetrics(a.router, cfg.Metrics.Path, a.metrics.Handler())
	}

	return a, nil
}

func openGateway(cfg *config.Config) (repositories.Gateway, *gorm.DB, error) {
	opts := []repositories.Option{repositories.WithWindows(repositories.Windows{
		Edit:   cfg.Chat.EditWindow.Std(),
		Delete: cfg.Chat.DeleteWindow.Std(),
	})}

	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return repositories.NewMemoryGateway(opts...), nil, nil
	}

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			database.Close(db)
			return nil, nil, err
		}
	}
	logger.Info("Database connected")
	return repositories.NewGormGateway(db, opts...), db, nil
}

func newTracer(cfg config.TracingConfig) trace.Tracer {
	if !cfg.Enabled {
		return noop.NewTracerProvider().Tracer(cfg.ServiceName)
	}
	// the exporter is whatever provider the host installed through otel.SetTracerProvider
	return otel.Tracer(cfg.ServiceName)
}

func initializeHandlers(cfg *config.Config, svc *services.ServiceContainer, v *validator.Validator, hub *ws.Hub) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(v)

	return &handlers.AppHandlers{
		AuthHandler:       handlers.NewAuthHandler(baseHandler, svc.UserService),
		UserHandler:       handlers.NewUserHandler(baseHandler, svc.UserService, svc.BlockService),
		FriendHandler:     handlers.NewFriendHandler(baseHandler, svc.FriendService),
		MessageHandler:    handlers.NewMessageHandler(baseHandler, svc.MessageQueryService),
		PreferenceHandler: handlers.NewPreferenceHandler(baseHandler, svc.PreferenceService),
		MediaHandler:      handlers.NewMediaHandler(baseHandler, svc.MediaService, cfg.Storage.Type == "local"),
		HealthHandler:     handlers.NewHealthHandler(hub),
	}
}

func (a *App) initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(a.cfg.Server.AllowedOrigins))
	if a.metrics != nil {
		router.Use(middleware.MetricsMiddleware(a.metrics))
	}
	return router
}

func (a *App) Router() *gin.Engine { return a.router }

func (a *App) Hub() *ws.Hub { return a.hub }

func (a *App) Gateway() repositories.Gateway { return a.gateway }

// Run serves until ctx is cancelled, then drains HTTP and closes every
// websocket connection.
func (a *App) Run(ctx context.Context) error {
	if err := workers.NewPresenceWorker(a.gateway).ResetStale(ctx); err != nil {
		logger.Warn("Could not reset stale presence", "error", err)
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	workers.NewLivenessWorker(a.hub).Start(workerCtx)

	srv := &http.Server{
		Addr:              a.cfg.Address(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server startup error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.hub.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("websocket shutdown: %w", err))
	}
	a.Close()
	return errors.Join(errs...)
}

func (a *App) Close() {
	if a.db != nil {
		database.Close(a.db)
		a.db = nil
	}
}

// Migrate runs AutoMigrate against the configured database.
func Migrate(cfg *config.Config) error {
	if cfg.Database.Driver == "memory" {
		return errors.New("nothing to migrate for the memory driver")
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return database.AutoMigrate(db)
}
