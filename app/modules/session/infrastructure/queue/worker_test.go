package sessionqueue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorer struct {
	calls []uuid.UUID
	err   error
}

func (f *fakeStorer) StoreScoresheet(_ context.Context, sessionID uuid.UUID) error {
	f.calls = append(f.calls, sessionID)
	return f.err
}

func exportJob(sessionID string) *river.Job[ExportScoresheetJob] {
	return &river.Job[ExportScoresheetJob]{
		JobRow: &rivertype.JobRow{ID: 1, Attempt: 1, Kind: ExportScoresheetJob{}.Kind()},
		Args:   ExportScoresheetJob{SessionID: sessionID},
	}
}

func TestExportScoresheetJob_Kind(t *testing.T) {
	assert.Equal(t, "export_scoresheet", ExportScoresheetJob{}.Kind())
}

func TestExportWorker_Work(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	id := uuid.New()

	tests := []struct {
		name      string
		sessionID string
		storeErr  error
		wantErr   bool
		wantCalls int
	}{
		{name: "stores scoresheet", sessionID: id.String(), wantCalls: 1},
		{name: "invalid id is cancelled", sessionID: "nope", wantErr: true},
		{name: "missing session is cancelled", sessionID: id.String(), storeErr: sessiondb.ErrNotFound, wantErr: true, wantCalls: 1},
		{name: "infrastructure error is retried", sessionID: id.String(), storeErr: errors.New("db down"), wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storer := &fakeStorer{err: tt.storeErr}
			w := NewExportWorker(logger, storer)

			err := w.Work(context.Background(), exportJob(tt.sessionID))
			assert.Len(t, storer.calls, tt.wantCalls)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, id, storer.calls[0])
				return
			}
			require.Error(t, err)
			if tt.storeErr != nil {
				assert.ErrorIs(t, err, tt.storeErr)
			}
		})
	}
}

func TestService_NilClient(t *testing.T) {
	var s *Service
	assert.ErrorIs(t, s.EnqueueExport(context.Background(), uuid.New()), errNilClient)
	assert.NoError(t, s.Stop(context.Background()))
}
