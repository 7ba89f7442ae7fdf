package service

import (
	"context"

	"fastpai-be/internal/pkg/logger"
	"fastpai-be/internal/pkg/metrics"
	"fastpai-be/pkg/events"
)

const bookingConsumerDurable = "booking-intent-recorder"

type IBookingConsumerService interface {
	Consume(ctx context.Context) error
}

// bookingConsumerService records booking intents coming off the event bus.
// Downstream booking systems subscribe to the same subject on their own.
type bookingConsumerService struct {
	subscriber events.Subscriber
	logger     logger.ILogger
	metrics    *metrics.Metrics
}

func NewBookingConsumerService(subscriber events.Subscriber, log logger.ILogger, m *metrics.Metrics) IBookingConsumerService {
	return &bookingConsumerService{
		subscriber: subscriber,
		logger:     log,
		metrics:    m,
	}
}

func (s *bookingConsumerService) Consume(ctx context.Context) error {
	subject := "events." + events.BookingIntentType
	return s.subscriber.Subscribe(ctx, subject, bookingConsumerDurable, s.handle)
}

func (s *bookingConsumerService) handle(_ context.Context, event events.Event) error {
	payload := event.Payload()
	municipality, _ := payload["municipality"].(string)
	if municipality == "" {
		municipality = "unknown"
	}

	s.metrics.BookingIntents.WithLabelValues(municipality).Inc()
	s.logger.Info("BookingConsumer", "Booking intent received", map[string]interface{}{
		"session_id":   payload["session_id"],
		"municipality": municipality,
		"document_id":  payload["document_id"],
	})
	return nil
}
