//go:build integration

package session_test

import (
	"testing"

	sessionservice "github.com/Black-And-White-Club/scorekeeper/app/modules/session/application"
	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace/noop"
)

// newService builds a SessionService on the shared database. publisher may be nil.
func newService(t *testing.T, publisher message.Publisher) *sessionservice.SessionService {
	t.Helper()
	testEnv.ResetDatabase(t)
	return sessionservice.NewSessionService(
		sessiondb.NewRepository(testEnv.DB),
		testEnv.Logger,
		observability.NewNoop(),
		noop.NewTracerProvider().Tracer("integration"),
		testEnv.DB,
		publisher,
	)
}
