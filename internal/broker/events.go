package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"sizestock-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing inventory domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderPlaced publishes an OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishStockDepleted publishes a StockDepleted event
func (ep *EventPublisher) PublishStockDepleted(ctx context.Context, event *models.StockDepletedEvent) error {
	key := fmt.Sprintf("stock-%d-%s", event.ProductID, event.Size)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSizeRestocked publishes a SizeRestocked event
func (ep *EventPublisher) PublishSizeRestocked(ctx context.Context, event *models.SizeRestockedEvent) error {
	key := fmt.Sprintf("stock-%d-%s", event.ProductID, event.Size)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishTrackingUpdated publishes a TrackingUpdated event
func (ep *EventPublisher) PublishTrackingUpdated(ctx context.Context, event *models.TrackingUpdatedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onTrackingUpdated func(context.Context, *models.TrackingUpdatedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnTrackingUpdated registers a handler for TrackingUpdated events
func (eh *EventHandler) OnTrackingUpdated(handler func(context.Context, *models.TrackingUpdatedEvent) error) {
	eh.onTrackingUpdated = handler
}

// HandleMessage routes messages to the appropriate handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeTrackingUpdated:
		if eh.onTrackingUpdated != nil {
			var event models.TrackingUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal TrackingUpdated event: %w", err)
			}
			return eh.onTrackingUpdated(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
