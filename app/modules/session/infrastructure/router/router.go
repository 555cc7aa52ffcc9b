package sessionrouter

import (
	"context"
	"log/slog"

	sessionevents "github.com/Black-And-White-Club/scorekeeper/app/modules/session/domain/events"
	sessionhandlers "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/handlers"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// SessionRouter binds session event topics to their handlers on a shared
// watermill router.
type SessionRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewSessionRouter creates a new SessionRouter.
func NewSessionRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *SessionRouter {
	return &SessionRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure registers the handlers. The router must not be running yet.
func (r *SessionRouter) Configure(_ context.Context, handlers sessionhandlers.Handlers) error {
	r.registerHandlers(handlers)
	return nil
}

// registerHandlers subscribes each session topic to its handler.
func (r *SessionRouter) registerHandlers(handlers sessionhandlers.Handlers) {
	subscribe(r, sessionevents.SessionCompletedV1, handlers.HandleSessionCompleted)
	subscribe(r, sessionevents.RoundRecordedV1, handlers.HandleRoundRecorded)

	r.logger.Info("Session module handlers registered",
		slog.Int("handler_count", 2),
		slog.String("session_completed_topic", sessionevents.SessionCompletedV1),
		slog.String("round_recorded_topic", sessionevents.RoundRecordedV1),
	)
}

// subscribe adds a consumer-only handler named after its topic. Follow-up
// results, if any, go out on the router's publisher.
func subscribe[T any](r *SessionRouter, topic string, handler func(context.Context, *T) ([]handlerwrapper.Result, error)) {
	name := "session." + topic
	r.router.AddNoPublisherHandler(
		name,
		topic,
		r.subscriber,
		handlerwrapper.WrapTyped(name, r.logger, r.tracer, r.publisher, handler),
	)
}

// Close shuts down the router.
func (r *SessionRouter) Close() error {
	return r.router.Close()
}
