package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/scorekeeper/app/eventbus"
	"github.com/Black-And-White-Club/scorekeeper/app/modules/session"
	sessionhandlers "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/handlers"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/Black-And-White-Club/scorekeeper/config"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const shutdownTimeout = 10 * time.Second

// App wires config, storage, the event bus and the session module together.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Metrics       *observability.PrometheusMetrics
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	SessionModule *session.Module

	httpServer    *http.Server
	metricsServer *http.Server
	wg            sync.WaitGroup
}

// NewApp builds every component but starts nothing.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := observability.NewLogger(
		cfg.Observability.LogLevel,
		cfg.Observability.LogFormat,
		cfg.Observability.Environment,
	)
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(nil),
	}

	if err := app.initialize(ctx); err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	return app, nil
}

func (app *App) initialize(ctx context.Context) error {
	cfg := app.Config
	logger := app.Logger

	if cfg.Postgres.DSN == "" {
		return errors.New("postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	app.DB = bun.NewDB(sqldb, pgdialect.New())
	logger.Info("Database connected")

	bus, err := eventbus.NewEventBus(ctx, eventbus.Config{NATSURL: cfg.NATS.URL}, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = bus

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create message router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)
	app.Router = router

	deps := session.Dependencies{
		Logger:     logger,
		Metrics:    app.Metrics,
		Tracer:     observability.Tracer("session"),
		DB:         app.DB,
		Publisher:  bus,
		Subscriber: bus,
		Router:     router,
		Spades:     cfg.ToSpadesSettings(),
	}
	if cfg.Exports.Enabled {
		deps.ExportsDSN = cfg.Postgres.DSN
	}
	module, err := session.NewSessionModule(ctx, deps, ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize session module: %w", err)
	}
	app.SessionModule = module

	httpRouter := sessionhandlers.NewRouter(
		sessionhandlers.NewHTTPHandlers(module.SessionService, logger),
		sessionhandlers.RouterOptions{
			RateLimit: cfg.HTTP.RateLimit,
			RateBurst: cfg.HTTP.RateBurst,
			JWTSecret: cfg.JWT.Secret,
		},
	)
	app.httpServer = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           httpRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if addr := cfg.Observability.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics.Handler())
		app.metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return nil
}

// Run starts the router, the module and both HTTP servers, and blocks until
// ctx is cancelled or a server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)

	go func() {
		if err := app.Router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("message router: %w", err)
		}
	}()
	select {
	case <-app.Router.Running():
	case err := <-errCh:
		return errors.Join(err, app.Close())
	case <-ctx.Done():
		return app.Close()
	}

	app.wg.Add(1)
	go app.SessionModule.Run(ctx, &app.wg)

	serve := func(name string, srv *http.Server) {
		app.Logger.Info("HTTP server listening", observability.String("server", name), observability.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}
	go serve("api", app.httpServer)
	if app.metricsServer != nil {
		go serve("metrics", app.metricsServer)
	}

	var runErr error
	select {
	case <-ctx.Done():
		app.Logger.Info("Shutdown requested")
	case runErr = <-errCh:
		app.Logger.Error("Component failed, shutting down", observability.Error(runErr))
	}

	if err := app.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Close stops the servers, the module and the infrastructure in reverse
// start order.
func (app *App) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for _, srv := range []*http.Server{app.httpServer, app.metricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down %s: %w", srv.Addr, err))
		}
	}

	if app.SessionModule != nil {
		if err := app.SessionModule.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.wg.Wait()

	app.closeInfrastructure()
	app.Logger.Info("Application shut down")
	return errors.Join(errs...)
}

func (app *App) closeInfrastructure() {
	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			app.Logger.Error("Error closing message router", observability.Error(err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			app.Logger.Error("Error closing event bus", observability.Error(err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Error closing database", observability.Error(err))
		}
	}
}
