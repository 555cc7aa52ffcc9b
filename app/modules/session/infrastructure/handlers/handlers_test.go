package sessionhandlers

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	sessionevents "github.com/Black-And-White-Club/scorekeeper/app/modules/session/domain/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestHandleSessionCompleted(t *testing.T) {
	sessionID := uuid.New()

	tests := []struct {
		name         string
		exports      *FakeEnqueuer
		payload      *sessionevents.SessionCompletedPayloadV1
		wantEnqueued int
		wantErr      bool
	}{
		{
			name:         "enqueues export",
			exports:      &FakeEnqueuer{},
			payload:      &sessionevents.SessionCompletedPayloadV1{SessionID: sessionID.String(), GameType: "hearts"},
			wantEnqueued: 1,
		},
		{
			name:    "exports disabled",
			payload: &sessionevents.SessionCompletedPayloadV1{SessionID: sessionID.String(), GameType: "hearts"},
		},
		{
			name:    "invalid session id is dropped",
			exports: &FakeEnqueuer{},
			payload: &sessionevents.SessionCompletedPayloadV1{SessionID: "nope", GameType: "hearts"},
		},
		{
			name:    "enqueue failure is returned for redelivery",
			exports: &FakeEnqueuer{err: errors.New("queue unavailable")},
			payload: &sessionevents.SessionCompletedPayloadV1{SessionID: sessionID.String(), GameType: "hearts"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewFakeMetrics()
			var enqueuer ExportEnqueuer
			if tt.exports != nil {
				enqueuer = tt.exports
			}
			h := NewSessionHandlers(metrics, enqueuer, slog.Default(), noop.NewTracerProvider().Tracer("test"))

			results, err := h.HandleSessionCompleted(context.Background(), tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Empty(t, results)
			assert.Equal(t, 1, metrics.gamesCompleted["hearts"])
			if tt.exports != nil {
				assert.Len(t, tt.exports.Enqueued(), tt.wantEnqueued)
			}
		})
	}
}

func TestHandleRoundRecorded(t *testing.T) {
	metrics := NewFakeMetrics()
	h := NewSessionHandlers(metrics, nil, slog.Default(), nil)

	for range 3 {
		_, err := h.HandleRoundRecorded(context.Background(), &sessionevents.RoundRecordedPayloadV1{GameType: "uno"})
		assert.NoError(t, err)
	}
	assert.Equal(t, 3, metrics.roundsRecorded["uno"])
}
