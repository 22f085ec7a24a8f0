package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sizestock-service/internal/broker"
	"sizestock-service/internal/models"
	"sizestock-service/internal/store"
	"sizestock-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FulfillmentService owns order tracking-status transitions and the
// delivery-completion restock hook.
type FulfillmentService struct {
	store          *store.Store
	stock          *StockService
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(
	store *store.Store,
	stock *StockService,
	eventPublisher *broker.EventPublisher,
) *FulfillmentService {
	return &FulfillmentService{
		store:          store,
		stock:          stock,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// IsDeliveredTransition reports whether a tracking-status change is a
// transition into a terminal delivered/completed state. A save that leaves
// the status unchanged is never a transition.
func IsDeliveredTransition(previous, next string) bool {
	if previous == next {
		return false
	}
	lowered := strings.ToLower(next)
	return strings.Contains(lowered, "delivered") || strings.Contains(lowered, "completed")
}

// UpdateTrackingStatus persists a new tracking status and invokes the
// status-change hook with the previous value. The hook is an explicit call
// from the component that owns the transition, not a persistence side
// effect.
func (f *FulfillmentService) UpdateTrackingStatus(ctx context.Context, orderID int64, status string) (string, error) {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.UpdateTrackingStatus")
	defer span.End()

	previous, err := f.store.UpdateTrackingStatus(ctx, orderID, status)
	if err != nil {
		return "", err
	}

	f.logger.Info("Tracking status updated",
		zap.Int64("order_id", orderID),
		zap.String("previous", previous),
		zap.String("status", status))

	event := &models.TrackingUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTrackingUpdated,
			Timestamp: time.Now(),
		},
		OrderID:        orderID,
		PreviousStatus: previous,
		NewStatus:      status,
	}
	if err := f.eventPublisher.PublishTrackingUpdated(ctx, event); err != nil {
		f.logger.Error("Failed to publish TrackingUpdated event", zap.Error(err))
	}

	if err := f.OnOrderStatusChanged(ctx, orderID, previous, status); err != nil {
		return previous, err
	}
	return previous, nil
}

// OnOrderStatusChanged replenishes depleted sizes once an order's tracking
// status transitions into delivered/completed. Only size rows currently at
// zero are restocked, each to the product's default restock quantity, so a
// repeated save with an unchanged status never force-restocks.
func (f *FulfillmentService) OnOrderStatusChanged(ctx context.Context, orderID int64, previous, next string) error {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.OnOrderStatusChanged")
	defer span.End()

	if !IsDeliveredTransition(previous, next) {
		return nil
	}

	items, err := f.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := f.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			f.logger.Warn("Skipping restock for missing product",
				zap.Int64("product_id", item.ProductID))
			continue
		}
		defaultQty := f.stock.DefaultQtyFor(product)

		// A missing row is created lazily at the default quantity; an
		// existing row is topped up only when it sits at exactly zero.
		row, created, err := f.store.CreateIfAbsent(ctx, item.ProductID, item.Size, defaultQty)
		if err != nil {
			return fmt.Errorf("failed to restock size %s: %w", item.Size, err)
		}
		if created {
			util.RestocksTotal.WithLabelValues(models.RestockTriggerDelivery).Inc()
			f.stock.refreshSnapshot(ctx, row)
			f.stock.publishRestocked(ctx, row, models.RestockTriggerDelivery)
			continue
		}
		if row.Stock == 0 {
			if _, err := f.stock.RestockTo(ctx, item.ProductID, item.Size, defaultQty, models.RestockTriggerDelivery); err != nil {
				return err
			}
		}
	}

	f.logger.Info("Delivery-completion restock finished",
		zap.Int64("order_id", orderID),
		zap.String("status", next))
	return nil
}

// HandleTrackingEvent processes a tracking update published by an external
// fulfillment system. Events are deduplicated so a redelivered message
// cannot re-trigger the restock.
func (f *FulfillmentService) HandleTrackingEvent(ctx context.Context, event *models.TrackingUpdatedEvent) error {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.HandleTrackingEvent")
	defer span.End()

	processed, err := f.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		f.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := f.OnOrderStatusChanged(ctx, event.OrderID, event.PreviousStatus, event.NewStatus); err != nil {
		return err
	}

	if err := f.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		f.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}
