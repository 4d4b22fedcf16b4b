package kafka

import (
	"context"
	"encoding/json"

	"assessment-gateway/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

// PublishAnalyticsEvent streams an analytics event to the payment-events
// topic, keyed by the entity it concerns.
func (p *Producer) PublishAnalyticsEvent(ctx context.Context, event models.AnalyticsEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.EntityID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
