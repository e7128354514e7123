package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tusharsharma89566/Edu-Learn/internal/config"
)

// Bus publishes events and dispatches them to registered consumers.
// It runs on an in-process go channel unless Kafka is enabled.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router
	logger     *slog.Logger
	// shared is set when publisher and subscriber are the same go channel
	shared bool
}

// NewBus builds the transport selected by cfg
func NewBus(cfg config.KafkaConfig, logger *slog.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	var (
		pub    message.Publisher
		sub    message.Subscriber
		shared bool
	)
	if cfg.Enabled {
		kafkaPub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		kafkaSub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:               cfg.Brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			ConsumerGroup:         cfg.ConsumerGroup,
			OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		}, wmLogger)
		if err != nil {
			kafkaPub.Close()
			return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
		}
		pub, sub = kafkaPub, kafkaSub
		logger.Info("Event bus using kafka", "brokers", cfg.Brokers)
	} else {
		channel := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		pub, sub, shared = channel, channel, true
		logger.Info("Event bus using in-process channel")
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmLogger,
		}.Middleware,
	)

	return &Bus{publisher: pub, subscriber: sub, router: router, logger: logger, shared: shared}, nil
}

func (b *Bus) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.SetContext(ctx)

	if err := b.publisher.Publish(event.Type, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	b.logger.Debug("Event published", "type", event.Type, "event_id", event.ID, "user_id", event.UserID)
	return nil
}

// Subscribe registers a consumer for a topic. Call before Run.
func (b *Bus) Subscribe(topic, name string, handler HandlerFunc) {
	b.router.AddNoPublisherHandler(name, topic, b.subscriber, func(msg *message.Message) error {
		var event Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			// poison message, ack it
			b.logger.Error("Dropping undecodable event", "topic", topic, "error", err)
			return nil
		}
		return handler(msg.Context(), &event)
	})
}

// Run blocks dispatching events until ctx is done
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once the router has started
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		b.logger.Error("Failed to close event router", "error", err)
	}
	if err := b.publisher.Close(); err != nil {
		return fmt.Errorf("failed to close event publisher: %w", err)
	}
	if b.shared {
		return nil
	}
	if err := b.subscriber.Close(); err != nil {
		return fmt.Errorf("failed to close event subscriber: %w", err)
	}
	return nil
}
