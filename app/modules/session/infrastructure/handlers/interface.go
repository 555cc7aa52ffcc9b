package sessionhandlers

import (
	"context"

	sessionevents "github.com/Black-And-White-Club/scorekeeper/app/modules/session/domain/events"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/handlerwrapper"
	"github.com/google/uuid"
)

// Handlers defines the interface for session event handlers.
type Handlers interface {
	// HandleSessionCompleted counts the finished game and queues its scoresheet export.
	HandleSessionCompleted(ctx context.Context, payload *sessionevents.SessionCompletedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleRoundRecorded counts recorded rounds per game type.
	HandleRoundRecorded(ctx context.Context, payload *sessionevents.RoundRecordedPayloadV1) ([]handlerwrapper.Result, error)
}

// ExportEnqueuer schedules background scoresheet exports.
type ExportEnqueuer interface {
	EnqueueExport(ctx context.Context, sessionID uuid.UUID) error
}
