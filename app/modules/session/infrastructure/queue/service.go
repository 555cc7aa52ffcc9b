package sessionqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sessionhandlers "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/handlers"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const (
	// ExportsQueue is the dedicated River queue for scoresheet exports.
	ExportsQueue = "exports"

	serviceName = "river"
)

var errNilClient = errors.New("export queue not initialized")

// Service schedules scoresheet exports on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics observability.Metrics
}

var _ sessionhandlers.ExportEnqueuer = (*Service)(nil)

// NewService connects a pgx pool for River and registers the export worker.
func NewService(ctx context.Context, dsn string, storer ScoresheetStorer, logger *slog.Logger, metrics observability.Metrics) (*Service, error) {
	ctxLogger := logger.With(
		observability.String("operation", "new_session_queue_service"),
		observability.String("component", "river_queue"),
	)
	if metrics == nil {
		metrics = observability.NewNoop()
	}

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", serviceName)

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewExportWorker(ctxLogger, storer))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			ExportsQueue:       {MaxWorkers: 5},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", serviceName)
	metrics.RecordOperationDuration(ctx, "initialize_service", serviceName, time.Since(start))
	ctxLogger.Info("Session queue service initialized")

	return &Service{client: client, pool: pool, logger: ctxLogger, metrics: metrics}, nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errNilClient
	}
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", observability.Error(err))
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Session queue service started")
	return nil
}

// Stop waits for running jobs and releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", observability.Error(err))
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.Info("Session queue service stopped")
	return nil
}

// EnqueueExport schedules one export per session. Duplicate inserts for the
// same session collapse into the existing job.
func (s *Service) EnqueueExport(ctx context.Context, sessionID uuid.UUID) error {
	if s == nil || s.client == nil {
		return errNilClient
	}

	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "enqueue_export", serviceName)

	res, err := s.client.Insert(ctx, ExportScoresheetJob{SessionID: sessionID.String()}, &river.InsertOpts{
		Queue: ExportsQueue,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "enqueue_export", serviceName)
		s.logger.ErrorContext(ctx, "Failed to enqueue export",
			observability.String("session_id", sessionID.String()),
			observability.Error(err),
		)
		return fmt.Errorf("failed to enqueue export: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "enqueue_export", serviceName)
	s.metrics.RecordOperationDuration(ctx, "enqueue_export", serviceName, time.Since(start))
	s.logger.InfoContext(ctx, "Export job enqueued",
		observability.String("session_id", sessionID.String()),
		slog.Int64("job_id", res.Job.ID),
		slog.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	return nil
}
