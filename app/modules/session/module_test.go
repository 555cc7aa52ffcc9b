package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionModule_RunAndClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 2 * time.Second}, watermill.NopLogger{})
	require.NoError(t, err)

	module, err := NewSessionModule(ctx, Dependencies{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Publisher:  pubsub,
		Subscriber: pubsub,
		Router:     router,
	}, ctx)
	require.NoError(t, err)
	assert.NotNil(t, module.SessionService)
	assert.NotNil(t, module.SessionRouter)
	assert.Nil(t, module.Exports, "exports stay off without a DSN")
	assert.Len(t, router.Handlers(), 2)

	// The router outlives the module context so Close does the shutdown.
	routerCtx, stopRouter := context.WithCancel(context.Background())
	defer stopRouter()
	runErr := make(chan error, 1)
	go func() { runErr <- router.Run(routerCtx) }()
	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go module.Run(ctx, &wg)

	cancel()
	wg.Wait()
	require.NoError(t, module.Close())
	assert.True(t, router.IsClosed())

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop after Close")
	}
}
