package sessionhandlers

import (
	"context"
	"fmt"
	"log/slog"

	sessionevents "github.com/Black-And-White-Club/scorekeeper/app/modules/session/domain/events"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// SessionHandlers implements the Handlers interface.
type SessionHandlers struct {
	metrics observability.Metrics
	exports ExportEnqueuer
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewSessionHandlers creates a new SessionHandlers instance. exports may be
// nil when background exports are disabled.
func NewSessionHandlers(
	metrics observability.Metrics,
	exports ExportEnqueuer,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	return &SessionHandlers{
		metrics: metrics,
		exports: exports,
		logger:  logger,
		tracer:  tracer,
	}
}

func (h *SessionHandlers) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if h.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return h.tracer.Start(ctx, name)
}

// HandleSessionCompleted handles the end of a game.
func (h *SessionHandlers) HandleSessionCompleted(ctx context.Context, payload *sessionevents.SessionCompletedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.startSpan(ctx, "SessionHandlers.HandleSessionCompleted")
	defer span.End()

	h.logger.InfoContext(ctx, "Session completed",
		observability.ExtractCorrelationID(ctx),
		observability.String("session_id", payload.SessionID),
		observability.String("game_type", payload.GameType),
		observability.Any("winners", payload.Winners),
	)
	h.metrics.RecordGameCompleted(ctx, payload.GameType)

	if h.exports == nil {
		return nil, nil
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid session id in completed event",
			observability.String("session_id", payload.SessionID),
			observability.Error(err),
		)
		return nil, nil
	}
	if err := h.exports.EnqueueExport(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to enqueue scoresheet export: %w", err)
	}
	return nil, nil
}

// HandleRoundRecorded handles an appended round.
func (h *SessionHandlers) HandleRoundRecorded(ctx context.Context, payload *sessionevents.RoundRecordedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.startSpan(ctx, "SessionHandlers.HandleRoundRecorded")
	defer span.End()

	h.logger.DebugContext(ctx, "Round recorded",
		observability.ExtractCorrelationID(ctx),
		observability.String("session_id", payload.SessionID),
		observability.Int("round_index", payload.RoundIndex),
	)
	h.metrics.RecordRoundRecorded(ctx, payload.GameType)
	return nil, nil
}
