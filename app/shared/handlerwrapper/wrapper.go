// Package handlerwrapper adapts typed event handlers to watermill message
// handlers.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Result is a follow-up event produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// TypedHandler consumes a decoded payload and returns follow-up events.
type TypedHandler[T any] func(ctx context.Context, payload *T) ([]Result, error)

// WrapTyped decodes the JSON payload into T and calls handler. Returned
// results are published on publisher, which may be nil when the handler
// never produces any.
func WrapTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	publisher message.Publisher,
	handler TypedHandler[T],
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := observability.WithCorrelationID(msg.Context(), middleware.MessageCorrelationID(msg))

		var span trace.Span
		if tracer != nil {
			ctx, span = tracer.Start(ctx, handlerName, trace.WithAttributes(
				attribute.String("message.uuid", msg.UUID),
			))
			defer span.End()
		}

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			// A payload that cannot be decoded will never succeed; ack it.
			logger.WarnContext(ctx, "Discarding undecodable message",
				observability.ExtractCorrelationID(ctx),
				observability.String("handler", handlerName),
				observability.Error(err),
			)
			return nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			if span != nil {
				span.RecordError(err)
			}
			return fmt.Errorf("%s: %w", handlerName, err)
		}

		for _, r := range results {
			out, err := NewMessage(ctx, r.Payload)
			if err != nil {
				return fmt.Errorf("%s: %w", handlerName, err)
			}
			for k, v := range r.Metadata {
				out.Metadata.Set(k, v)
			}
			if publisher == nil {
				return fmt.Errorf("%s: no publisher for topic %s", handlerName, r.Topic)
			}
			if err := publisher.Publish(r.Topic, out); err != nil {
				return fmt.Errorf("%s: failed to publish %s: %w", handlerName, r.Topic, err)
			}
		}
		return nil
	}
}

// NewMessage encodes payload as JSON and carries the context's correlation id.
func NewMessage(ctx context.Context, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	if id := observability.CorrelationID(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	return msg, nil
}
