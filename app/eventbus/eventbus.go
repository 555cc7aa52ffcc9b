package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
)

// EventBus publishes and subscribes to scorekeeper topics.
type EventBus interface {
	Publish(topic string, messages ...*message.Message) error
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

// Config selects the transport. An empty NATSURL keeps all events in-process.
type Config struct {
	NATSURL    string
	QueueGroup string
}

type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
	transport  string
}

var _ EventBus = (*eventBus)(nil)

// NewEventBus creates an EventBus over core NATS when a URL is configured and
// over an in-process go channel otherwise.
func NewEventBus(_ context.Context, cfg Config, logger *slog.Logger) (EventBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watermillLogger := watermill.NewSlogLogger(logger)

	if cfg.NATSURL == "" {
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, watermillLogger)
		logger.Info("Event bus using in-process transport")
		return &eventBus{publisher: ch, subscriber: ch, logger: logger, transport: "gochannel"}, nil
	}

	marshaller := &nats.NATSMarshaler{}
	natsOptions := []nc.Option{
		nc.Name("scorekeeper"),
		nc.RetryOnFailedConnect(true),
		nc.ReconnectWait(time.Second),
	}
	// Core NATS only; no JetStream streams are provisioned.
	jetStream := nats.JetStreamConfig{Disabled: true}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         cfg.NATSURL,
			Marshaler:   marshaller,
			NatsOptions: natsOptions,
			JetStream:   jetStream,
		},
		watermillLogger,
	)
	if err != nil {
		logger.Error("Failed to create Watermill publisher", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	queueGroup := cfg.QueueGroup
	if queueGroup == "" {
		queueGroup = "scorekeeper"
	}
	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:              cfg.NATSURL,
			QueueGroupPrefix: queueGroup,
			SubscribersCount: 1,
			CloseTimeout:     10 * time.Second,
			Unmarshaler:      marshaller,
			NatsOptions:      natsOptions,
			JetStream:        jetStream,
		},
		watermillLogger,
	)
	if err != nil {
		publisher.Close()
		logger.Error("Failed to create Watermill subscriber", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	logger.Info("Event bus connected to NATS", slog.String("url", cfg.NATSURL))
	return &eventBus{publisher: publisher, subscriber: subscriber, logger: logger, transport: "nats"}, nil
}

func (eb *eventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
		eb.logger.Debug("Publishing message",
			slog.String("topic", topic),
			slog.String("message_id", msg.UUID),
			slog.String("transport", eb.transport),
		)
	}

	if err := eb.publisher.Publish(topic, messages...); err != nil {
		eb.logger.Error("Failed to publish message", slog.String("topic", topic), slog.Any("error", err))
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (eb *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	eb.logger.Info("Subscribing to topic", slog.String("topic", topic), slog.String("transport", eb.transport))

	messages, err := eb.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return messages, nil
}

// Close closes the publisher and subscriber. The in-process transport shares
// one instance for both and is closed once.
func (eb *eventBus) Close() error {
	var firstErr error
	if eb.publisher != nil {
		if err := eb.publisher.Close(); err != nil {
			eb.logger.Error("Error closing publisher", "error", err)
			firstErr = err
		}
	}
	if eb.subscriber != nil && eb.transport != "gochannel" {
		if err := eb.subscriber.Close(); err != nil {
			eb.logger.Error("Error closing subscriber", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
