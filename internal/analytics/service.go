package analytics

import (
	"context"
	"fmt"
	"time"

	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Publisher streams recorded events to the message bus. Nil-able: with Kafka
// disabled, events still land in the analytics table.
type Publisher interface {
	PublishAnalyticsEvent(ctx context.Context, event models.AnalyticsEvent) error
}

// Service appends analytics events. The table row is the source of truth;
// the Kafka publish is best-effort on top of it.
type Service struct {
	db        *bun.DB
	publisher Publisher
	logger    *logger.Logger
}

func NewService(db *bun.DB, publisher Publisher, log *logger.Logger) *Service {
	return &Service{db: db, publisher: publisher, logger: log}
}

// RecordEvent appends one immutable event record. An insert failure is
// returned so the outbox can retry; a publish failure is only logged.
func (s *Service) RecordEvent(ctx context.Context, event models.AnalyticsEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.NewInsert().Model(&event).Exec(ctx); err != nil {
		return fmt.Errorf("record analytics event %s: %w", event.EventType, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishAnalyticsEvent(ctx, event); err != nil {
			s.logger.LogKafka("PUBLISH_FAILED", event.EventType,
				fmt.Sprintf("event %s for %s/%s: %v", event.ID, event.EntityType, event.EntityID, err))
		} else {
			s.logger.LogKafka("PUBLISHED", event.EventType,
				fmt.Sprintf("event %s for %s/%s", event.ID, event.EntityType, event.EntityID))
		}
	}
	return nil
}

// PaymentCompletedEvent builds the analytics record for a completed order.
func PaymentCompletedEvent(order *models.Order) models.AnalyticsEvent {
	return models.AnalyticsEvent{
		EventType:  models.EventPaymentCompleted,
		EntityType: models.EntityOrder,
		EntityID:   order.ID,
		Metadata: map[string]interface{}{
			"amount":          order.TotalAmount,
			"currency":        order.Currency,
			"is_guest_order":  order.IsGuestOrder,
			"assessment_type": order.AssessmentType,
		},
	}
}
