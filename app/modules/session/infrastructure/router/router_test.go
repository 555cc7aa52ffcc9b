package sessionrouter

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	sessionevents "github.com/Black-And-White-Club/scorekeeper/app/modules/session/domain/events"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordingHandlers struct {
	mu        sync.Mutex
	completed []string
	rounds    []int
	done      chan struct{}
}

func (h *recordingHandlers) HandleSessionCompleted(ctx context.Context, payload *sessionevents.SessionCompletedPayloadV1) ([]handlerwrapper.Result, error) {
	h.mu.Lock()
	h.completed = append(h.completed, payload.SessionID)
	h.mu.Unlock()
	h.done <- struct{}{}
	return nil, nil
}

func (h *recordingHandlers) HandleRoundRecorded(ctx context.Context, payload *sessionevents.RoundRecordedPayloadV1) ([]handlerwrapper.Result, error) {
	h.mu.Lock()
	h.rounds = append(h.rounds, payload.RoundIndex)
	h.mu.Unlock()
	h.done <- struct{}{}
	return nil, nil
}

func TestSessionRouter_DispatchesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 500 * time.Millisecond}, watermill.NopLogger{})
	require.NoError(t, err)
	router.AddMiddleware(middleware.CorrelationID, middleware.Recoverer)

	handlers := &recordingHandlers{done: make(chan struct{}, 4)}
	sr := NewSessionRouter(logger, router, pubsub, pubsub, noop.NewTracerProvider().Tracer("test"))
	require.NoError(t, sr.Configure(ctx, handlers))

	go func() { _ = router.Run(ctx) }()
	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	defer sr.Close()

	publish := func(topic string, payload any) {
		msg, err := handlerwrapper.NewMessage(ctx, payload)
		require.NoError(t, err)
		require.NoError(t, pubsub.Publish(topic, msg))
	}
	publish(sessionevents.RoundRecordedV1, sessionevents.RoundRecordedPayloadV1{SessionID: "s1", RoundIndex: 4})
	publish(sessionevents.SessionCompletedV1, sessionevents.SessionCompletedPayloadV1{SessionID: "s1"})

	for range 2 {
		select {
		case <-handlers.done:
		case <-time.After(5 * time.Second):
			t.Fatal("handler not invoked")
		}
	}

	handlers.mu.Lock()
	defer handlers.mu.Unlock()
	assert.Equal(t, []string{"s1"}, handlers.completed)
	assert.Equal(t, []int{4}, handlers.rounds)
}
