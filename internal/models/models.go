package models

import "time"

// Sizes is the fixed size set, in the enumeration order used for seeding
// and for deterministic lock ordering during checkout.
var Sizes = []string{"S", "M", "L", "XL", "XXL"}

// Stock statuses
const (
	StatusInStock    = "IN_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"
)

// DeriveStatus maps a stock count to its status. There is no independent
// source of truth for status; every write that changes stock persists this.
func DeriveStatus(stock int) string {
	if stock > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

// SizeRank returns the position of a size in the fixed enumeration order,
// or -1 for an unknown size.
func SizeRank(size string) int {
	for i, s := range Sizes {
		if s == size {
			return i
		}
	}
	return -1
}

// IsValidSize reports whether size belongs to the fixed size set
func IsValidSize(size string) bool {
	return SizeRank(size) >= 0
}

// Product represents a catalog product snapshot
type Product struct {
	ID                int64     `db:"id" json:"id"`
	SKU               string    `db:"sku" json:"sku"`
	Name              string    `db:"name" json:"name"`
	Price             int64     `db:"price" json:"price"`
	InitialTotalStock int       `db:"initial_total_stock" json:"initial_total_stock"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// SizeStock is the per-(product, size) inventory record. Exactly one row
// exists per pair; the store enforces the uniqueness constraint.
type SizeStock struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Size      string    `db:"size" json:"size"`
	Stock     int       `db:"stock" json:"stock"`
	Status    string    `db:"status" json:"status"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Order represents a placed customer order
type Order struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Address        string    `db:"address" json:"address"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	TrackingStatus string    `db:"tracking_status" json:"tracking_status"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem snapshots a line at purchase time. UnitPrice is copied from the
// product so later price changes never alter historical orders.
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   int64  `db:"order_id" json:"order_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Size      string `db:"size" json:"size"`
	Quantity  int    `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
}

// CartLine is a pending cart entry for a user
type CartLine struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Size      string    `db:"size" json:"size"`
	Quantity  int       `db:"quantity" json:"quantity"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}

// TrackingStatusPlaced is the initial tracking status for new orders
const TrackingStatusPlaced = "Order Placed"

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
