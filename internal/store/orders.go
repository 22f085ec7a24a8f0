package store

import (
	"context"
	"database/sql"
	"fmt"

	"sizestock-service/internal/models"
)

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key, or nil
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateTrackingStatus sets the order's tracking status and returns the
// previous value. The row is locked while the swap happens so two writers
// cannot both observe the same previous status.
func (s *Store) UpdateTrackingStatus(ctx context.Context, orderID int64, status string) (string, error) {
	var previous string
	err := s.db.GetContext(ctx, &previous, `
		UPDATE orders o
		SET tracking_status = $2, updated_at = NOW()
		FROM (SELECT id, tracking_status FROM orders WHERE id = $1 FOR UPDATE) prev
		WHERE o.id = prev.id
		RETURNING prev.tracking_status`,
		orderID, status)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("order not found: %d", orderID)
	}
	if err != nil {
		return "", err
	}
	return previous, nil
}

// GetCartLines retrieves the cart lines for a user
func (s *Store) GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM cart_lines WHERE user_id = $1 ORDER BY added_at", userID)
	return lines, err
}

// GetCartQuantity returns the quantity already in the user's cart for a
// (product, size), zero if none.
func (s *Store) GetCartQuantity(ctx context.Context, userID, productID int64, size string) (int, error) {
	var qty int
	err := s.db.GetContext(ctx, &qty,
		"SELECT COALESCE(SUM(quantity), 0) FROM cart_lines WHERE user_id = $1 AND product_id = $2 AND size = $3",
		userID, productID, size)
	return qty, err
}

// UpsertCartLine adds a cart line, merging quantity into an existing line
// for the same (user, product, size).
func (s *Store) UpsertCartLine(ctx context.Context, line *models.CartLine) error {
	query := `
		INSERT INTO cart_lines (user_id, product_id, size, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id, size) DO UPDATE
		SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING id, quantity, added_at`

	return s.db.GetContext(ctx, line, query, line.UserID, line.ProductID, line.Size, line.Quantity)
}

// SetCartLineQuantity replaces the quantity on an existing cart line
func (s *Store) SetCartLineQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cart_lines SET quantity = $3 WHERE id = $2 AND user_id = $1",
		userID, lineID, quantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cart line not found: %d", lineID)
	}
	return nil
}

// DeleteCartLine removes a cart line for a user
func (s *Store) DeleteCartLine(ctx context.Context, userID, lineID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_lines WHERE id = $2 AND user_id = $1", userID, lineID)
	return err
}
