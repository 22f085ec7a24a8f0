package worker

import (
	"context"
	"log"

	"sizestock-service/internal/broker"
	"sizestock-service/internal/service"
)

// TrackingWorker consumes order tracking-status events published by
// fulfillment systems and feeds them to the delivery-completion hook.
type TrackingWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewTrackingWorker creates a new tracking worker
func NewTrackingWorker(
	consumer *broker.Consumer,
	fulfillment *service.FulfillmentService,
) *TrackingWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnTrackingUpdated(fulfillment.HandleTrackingEvent)

	return &TrackingWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *TrackingWorker) Start(ctx context.Context) error {
	log.Println("Starting tracking worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *TrackingWorker) Stop() error {
	log.Println("Stopping tracking worker...")
	return w.consumer.Close()
}
