package sessionservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
	sessiontime "github.com/Black-And-White-Club/scorekeeper/app/modules/session/time_utils"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/results"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "SessionService"

// SessionService implements the Service interface.
type SessionService struct {
	repo      sessiondb.Repository
	logger    *slog.Logger
	metrics   observability.Metrics
	tracer    trace.Tracer
	db        *bun.DB
	publisher message.Publisher

	spades scoringdomain.SpadesSettings
	rng    scoringdomain.Rand
	clock  sessiontime.Clock
	since  *sessiontime.SinceParser
}

// Option customizes a SessionService.
type Option func(*SessionService)

// WithSpadesSettings overrides the Spades bonus and bag rules.
func WithSpadesSettings(settings scoringdomain.SpadesSettings) Option {
	return func(s *SessionService) { s.spades = settings }
}

// WithRand sets the source used for dealer draws.
func WithRand(rng scoringdomain.Rand) Option {
	return func(s *SessionService) { s.rng = rng }
}

// WithClock sets the clock used for timestamps and since filters.
func WithClock(clock sessiontime.Clock) Option {
	return func(s *SessionService) { s.clock = clock }
}

// NewSessionService creates a new SessionService. publisher may be nil, in
// which case no domain events are emitted.
func NewSessionService(
	repo sessiondb.Repository,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	db *bun.DB,
	publisher message.Publisher,
	opts ...Option,
) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SessionService{
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		publisher: publisher,
		spades:    scoringdomain.DefaultSpadesSettings(),
		rng:       scoringdomain.DefaultRand(),
		clock:     sessiontime.RealClock{},
		since:     sessiontime.NewSinceParser(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

type pendingEvent struct {
	topic   string
	payload any
}

// outbox collects events inside a transaction. They are published only
// after the transaction commits.
type outbox struct {
	events []pendingEvent
}

func (o *outbox) add(topic string, payload any) {
	o.events = append(o.events, pendingEvent{topic: topic, payload: payload})
}

func (o *outbox) reset() {
	o.events = o.events[:0]
}

// publish emits the collected events. Publish failures are logged; the state
// change they describe is already committed.
func (s *SessionService) publish(ctx context.Context, o *outbox) {
	if s.publisher == nil {
		return
	}
	for _, ev := range o.events {
		msg, err := handlerwrapper.NewMessage(ctx, ev.payload)
		if err == nil {
			err = s.publisher.Publish(ev.topic, msg)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish event",
				observability.ExtractCorrelationID(ctx),
				observability.String("topic", ev.topic),
				observability.Error(err),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// execute runs fn in a transaction under telemetry and unwraps the result.
// Events added to ob are published once the transaction has committed.
func execute[S any](
	s *SessionService,
	ctx context.Context,
	operationName string,
	identifier string,
	ob *outbox,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	var zero S
	result, err := withTelemetry(s, ctx, operationName, identifier, func(ctx context.Context) (results.OperationResult[S, error], error) {
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error) {
			if ob != nil {
				ob.reset()
			}
			return fn(ctx, db)
		})
		// A unique violation aborts the Postgres transaction, so it leaves the
		// closure as an error and becomes a failure only after rollback.
		if errors.Is(err, sessiondb.ErrRoundConflict) {
			return results.FailureResult[S, error](sessiondb.ErrRoundConflict), nil
		}
		return result, err
	})
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if ob != nil {
		s.publish(ctx, ob)
	}
	return *result.Success, nil
}

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *SessionService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered",
		observability.ExtractCorrelationID(ctx),
		observability.String("operation", operationName),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				observability.ExtractCorrelationID(ctx),
				observability.String("identifier", identifier),
				observability.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			observability.ExtractCorrelationID(ctx),
			observability.String("operation", operationName),
			observability.String("identifier", identifier),
			observability.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			observability.ExtractCorrelationID(ctx),
			observability.String("operation", operationName),
			observability.String("identifier", identifier),
			observability.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			observability.ExtractCorrelationID(ctx),
			observability.String("operation", operationName),
			observability.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *SessionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
