package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// GoChannelPublisher publishes events in-process through a watermill GoChannel,
// for single-instance deployments and tests.
type GoChannelPublisher struct {
	pubSub *gochannel.GoChannel
}

var _ Publisher = (*GoChannelPublisher)(nil)

func NewGoChannelPublisher(pubSub *gochannel.GoChannel) *GoChannelPublisher {
	return &GoChannelPublisher{pubSub: pubSub}
}

func (p *GoChannelPublisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("event_type", event.EventType())

	if err := p.pubSub.Publish(Subject(event), msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", Subject(event), err)
	}
	return nil
}

// GoChannelSubscriber consumes from the same in-process GoChannel.
type GoChannelSubscriber struct {
	pubSub *gochannel.GoChannel
}

var _ Subscriber = (*GoChannelSubscriber)(nil)

func NewGoChannelSubscriber(pubSub *gochannel.GoChannel) *GoChannelSubscriber {
	return &GoChannelSubscriber{pubSub: pubSub}
}

func (s *GoChannelSubscriber) Subscribe(ctx context.Context, subject, _ string, handler Handler) error {
	messages, err := s.pubSub.Subscribe(ctx, subject)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var payload map[string]interface{}
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				msg.Ack() // Ack invalid messages to prevent infinite retry
				continue
			}
			event := BaseEvent{
				Type:       TypeFromSubject(subject),
				Data:       payload,
				OccurredAt: time.Now(),
			}
			if err := handler(msg.Context(), event); err != nil {
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()

	return nil
}
