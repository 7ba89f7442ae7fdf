package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastpai-be/internal/pkg/logger"
	"fastpai-be/internal/pkg/metrics"
	"fastpai-be/pkg/events"
)

type captureSubscriber struct {
	subject string
	durable string
	handler events.Handler
}

func (c *captureSubscriber) Subscribe(_ context.Context, subject, durable string, handler events.Handler) error {
	c.subject, c.durable, c.handler = subject, durable, handler
	return nil
}

func TestBookingConsumerService_Consume(t *testing.T) {
	sub := &captureSubscriber{}
	m := metrics.New()
	log, logs := logger.NewObservedLogger()

	svc := NewBookingConsumerService(sub, log, m)
	require.NoError(t, svc.Consume(context.Background()))
	assert.Equal(t, "events.booking.intent", sub.subject)
	assert.Equal(t, bookingConsumerDurable, sub.durable)

	event := events.NewBookingIntentEvent(events.BookingIntent{SessionID: "s1", Municipality: "rm"}, time.Now())
	require.NoError(t, sub.handler(context.Background(), event))
	require.NoError(t, sub.handler(context.Background(), events.BaseEvent{Type: events.BookingIntentType, Data: map[string]interface{}{}}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingIntents.WithLabelValues("rm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingIntents.WithLabelValues("unknown")))
	assert.Equal(t, 2, logs.FilterMessage("Booking intent received").Len())
}
