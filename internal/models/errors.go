package models

import "fmt"

// Duplicate creation of a (product, size) pair is not represented here:
// the store's upsert-with-increment merge absorbs it before it can become
// an error.

// SizeUnavailableError means no inventory row exists for the requested
// (product, size). This is a configuration/data error, not a sold-out state.
type SizeUnavailableError struct {
	ProductID int64
	Size      string
}

func (e *SizeUnavailableError) Error() string {
	return fmt.Sprintf("size %s not available for product %d", e.Size, e.ProductID)
}

// InsufficientStockError means the requested quantity exceeded the stock
// observed under lock. Recoverable by the shopper; carries enough detail to
// render a precise message.
type InsufficientStockError struct {
	ProductID int64
	Size      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d size %s: requested=%d, available=%d",
		e.ProductID, e.Size, e.Requested, e.Available)
}

// Shortfall returns how many units were missing
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

// InvalidQuantityError rejects a non-positive quantity before any
// transaction is opened.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: %d", e.Quantity)
}
