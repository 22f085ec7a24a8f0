package models

import "time"

// Event types
const (
	EventTypeOrderPlaced     = "ORDER_PLACED"
	EventTypeStockDepleted   = "STOCK_DEPLETED"
	EventTypeSizeRestocked   = "SIZE_RESTOCKED"
	EventTypeTrackingUpdated = "ORDER_TRACKING_UPDATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when a checkout transaction commits
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	TotalAmount int64           `json:"total_amount"`
	Items       []OrderLineData `json:"items"`
}

// StockDepletedEvent published when a checkout decrement drives a size row to zero
type StockDepletedEvent struct {
	BaseEvent
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	OrderID   int64  `json:"order_id"`
}

// SizeRestockedEvent published when a restock changes a size row
type SizeRestockedEvent struct {
	BaseEvent
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Stock     int    `json:"stock"`
	Trigger   string `json:"trigger"`
}

// TrackingUpdatedEvent consumed (and published) when an order's tracking
// status changes; drives the delivery-completion restock hook.
type TrackingUpdatedEvent struct {
	BaseEvent
	OrderID        int64  `json:"order_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

// OrderLineData represents line data carried in events
type OrderLineData struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Restock triggers recorded on SizeRestockedEvent
const (
	RestockTriggerManual    = "manual"
	RestockTriggerDelivery  = "delivery_completion"
	RestockTriggerScheduled = "scheduled"
)
