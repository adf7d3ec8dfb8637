package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"qr-booking-backend/logger"
)

const kafkaBatchTimeout = 10 * time.Millisecond

// KafkaPublisher writes every topic through one writer; the message carries
// its own topic, prefixed with the configured namespace.
type KafkaPublisher struct {
	Writer *kafka.Writer
	prefix string
	log    *logger.Logger
}

func NewKafkaPublisher(brokers []string, prefix string, log *logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		// Publishes are synchronous; do not wait for a batch to fill.
		BatchTimeout: kafkaBatchTimeout,
	}
	log.Info("EVENTS", fmt.Sprintf("Kafka publisher using brokers %s", strings.Join(brokers, ",")))
	return &KafkaPublisher{Writer: writer, prefix: prefix, log: log}
}

func (p *KafkaPublisher) topicName(topic string) string {
	if p.prefix == "" {
		return topic
	}
	return p.prefix + "." + topic
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(newEnvelope(topic, key, payload))
	if err != nil {
		return err
	}
	p.log.Debug("EVENTS", fmt.Sprintf("Publishing to Kafka [%s]: %s", p.topicName(topic), key))
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topicName(topic),
		Key:   []byte(key),
		Value: msgBytes,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}
