package sessionqueue

import (
	"context"
	"fmt"
	"log/slog"

	sessionservice "github.com/Black-And-White-Club/scorekeeper/app/modules/session/application"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// ScoresheetStorer is the slice of the session service the export worker needs.
type ScoresheetStorer interface {
	StoreScoresheet(ctx context.Context, sessionID uuid.UUID) error
}

// ExportWorker handles export_scoresheet jobs.
type ExportWorker struct {
	river.WorkerDefaults[ExportScoresheetJob]
	logger *slog.Logger
	storer ScoresheetStorer
}

// NewExportWorker creates a new ExportWorker.
func NewExportWorker(logger *slog.Logger, storer ScoresheetStorer) *ExportWorker {
	return &ExportWorker{logger: logger, storer: storer}
}

// Work stores the scoresheet. Jobs for sessions that no longer exist are
// cancelled instead of retried.
func (w *ExportWorker) Work(ctx context.Context, job *river.Job[ExportScoresheetJob]) error {
	logger := w.logger.With(
		observability.String("session_id", job.Args.SessionID),
		observability.Int("attempt", job.Attempt),
	)

	sessionID, err := uuid.Parse(job.Args.SessionID)
	if err != nil {
		logger.Warn("Cancelling export job with invalid session id", observability.Error(err))
		return river.JobCancel(fmt.Errorf("invalid session id %q: %w", job.Args.SessionID, err))
	}

	if err := w.storer.StoreScoresheet(ctx, sessionID); err != nil {
		if sessionservice.IsNotFound(err) {
			logger.Info("Session gone before export, cancelling job")
			return river.JobCancel(err)
		}
		logger.Error("Failed to store scoresheet", observability.Error(err))
		return fmt.Errorf("failed to store scoresheet: %w", err)
	}

	logger.Info("Scoresheet stored")
	return nil
}
