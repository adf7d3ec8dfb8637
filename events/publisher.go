package events

import (
	"context"
	"fmt"
	"time"

	"qr-booking-backend/config"
	"qr-booking-backend/logger"
)

const (
	TopicBookingCreated  = "booking.created"
	TopicVisitorTracked  = "visitor.tracked"
	defaultPublishBudget = 3 * time.Second
)

// Publisher delivers domain events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
	Close() error
}

// Envelope is the JSON body sent for every event.
type Envelope struct {
	Topic      string      `json:"topic"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func newEnvelope(topic, key string, payload interface{}) Envelope {
	return Envelope{Topic: topic, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                            { return nil }

// NewPublisher picks the backend named by EVENTS_BROKER.
func NewPublisher(cfg config.EventsConfig, log *logger.Logger) (Publisher, error) {
	switch cfg.Broker {
	case "", "none":
		return NopPublisher{}, nil
	case "rabbitmq", "amqp":
		return NewRabbitMQPublisher(cfg.RabbitMQURL, log)
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBroker, cfg.TopicPrefix, log), nil
	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.Broker)
	}
}

// PublishBestEffort publishes with a bounded budget and logs failures.
func PublishBestEffort(p Publisher, log *logger.Logger, topic, key string, payload interface{}) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultPublishBudget)
	defer cancel()
	if err := p.Publish(ctx, topic, key, payload); err != nil {
		log.Warn("EVENTS", fmt.Sprintf("publish %s (%s) failed: %v", topic, key, err))
	}
}
