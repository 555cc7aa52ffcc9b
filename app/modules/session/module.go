package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessionservice "github.com/Black-And-White-Club/scorekeeper/app/modules/session/application"
	sessionhandlers "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/handlers"
	sessionqueue "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/queue"
	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
	sessionrouter "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/router"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies carries the shared infrastructure the session module is built on.
type Dependencies struct {
	Logger     *slog.Logger
	Metrics    observability.Metrics
	Tracer     trace.Tracer
	DB         *bun.DB
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Router     *message.Router
	Spades     scoringdomain.SpadesSettings
	// ExportsDSN enables the River export queue when set.
	ExportsDSN string
}

// Module represents the session module.
type Module struct {
	SessionService sessionservice.Service
	SessionRouter  *sessionrouter.SessionRouter
	Exports        *sessionqueue.Service
	cancelFunc     context.CancelFunc
	logger         *slog.Logger
}

// NewSessionModule creates and initializes a new session module.
func NewSessionModule(ctx context.Context, deps Dependencies, routerCtx context.Context) (*Module, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewNoop()
	}
	if deps.Spades == (scoringdomain.SpadesSettings{}) {
		deps.Spades = scoringdomain.DefaultSpadesSettings()
	}
	if deps.Tracer == nil {
		deps.Tracer = observability.Tracer("session")
	}

	logger.InfoContext(ctx, "session.NewSessionModule initializing")

	// 1. Initialize Repository
	repo := sessiondb.NewRepository(deps.DB)

	// 2. Initialize Service
	service := sessionservice.NewSessionService(
		repo,
		logger,
		deps.Metrics,
		deps.Tracer,
		deps.DB,
		deps.Publisher,
		sessionservice.WithSpadesSettings(deps.Spades),
	)

	// 3. Initialize the export queue
	var exports *sessionqueue.Service
	var enqueuer sessionhandlers.ExportEnqueuer
	if deps.ExportsDSN != "" {
		q, err := sessionqueue.NewService(ctx, deps.ExportsDSN, service, logger, deps.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create export queue: %w", err)
		}
		exports = q
		enqueuer = q
	}

	// 4. Initialize Handlers
	handlers := sessionhandlers.NewSessionHandlers(deps.Metrics, enqueuer, logger, deps.Tracer)

	// 5. Initialize Router
	var sessionRouter *sessionrouter.SessionRouter
	if deps.Router != nil {
		sessionRouter = sessionrouter.NewSessionRouter(
			logger,
			deps.Router,
			deps.Subscriber,
			deps.Publisher,
			deps.Tracer,
		)
		if err := sessionRouter.Configure(routerCtx, handlers); err != nil {
			return nil, fmt.Errorf("failed to configure session router: %w", err)
		}
	}

	return &Module{
		SessionService: service,
		SessionRouter:  sessionRouter,
		Exports:        exports,
		logger:         logger,
	}, nil
}

// Run starts the session module and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting session module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.Exports != nil {
		if err := m.Exports.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Export queue failed to start", observability.Error(err))
		}
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Session module goroutine stopped")
}

// Close shuts down the session module.
func (m *Module) Close() error {
	m.logger.Info("Stopping session module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var firstErr error
	if m.Exports != nil {
		if err := m.Exports.Stop(context.Background()); err != nil {
			m.logger.Error("Error stopping export queue", observability.Error(err))
			firstErr = fmt.Errorf("error stopping export queue: %w", err)
		}
	}

	if m.SessionRouter != nil {
		if err := m.SessionRouter.Close(); err != nil {
			m.logger.Error("Error closing SessionRouter from module", observability.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("error closing SessionRouter: %w", err)
			}
		}
	}

	m.logger.Info("Session module stopped")
	return firstErr
}
