package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"sizestock-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CheckoutLine is one (product, size, quantity) line of a checkout
type CheckoutLine struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// CheckoutResult carries everything a committed checkout produced
type CheckoutResult struct {
	Order    *models.Order
	Items    []models.OrderItem
	Updated  []models.SizeStock // final state of every touched row
	Depleted []models.SizeStock // rows this order drove to zero
}

// SortLines returns a copy of lines in ascending (product id, size rank)
// order. Every checkout locks rows in this order, so two concurrent orders
// touching overlapping rows can never form a lock cycle.
func SortLines(lines []CheckoutLine) []CheckoutLine {
	sorted := make([]CheckoutLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return models.SizeRank(sorted[i].Size) < models.SizeRank(sorted[j].Size)
	})
	return sorted
}

// PlaceOrderTx runs the whole multi-line checkout as one transaction.
// Each size row is locked with FOR UPDATE before its availability is
// checked, so check-and-decrement is atomic per row and no concurrent
// transaction can read a stale count. Any failure rolls back every
// decrement, every order item and the order header.
func (s *Store) PlaceOrderTx(ctx context.Context, userID int64, address string, total int64, idemKey string, lines []CheckoutLine) (*CheckoutResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order := &models.Order{
		UserID:         userID,
		Address:        address,
		TotalAmount:    total,
		TrackingStatus: models.TrackingStatusPlaced,
		IdempotencyKey: idemKey,
	}

	var key sql.NullString
	if idemKey != "" {
		key = sql.NullString{String: idemKey, Valid: true}
	}

	err = tx.GetContext(ctx, order, `
		INSERT INTO orders (user_id, address, total_amount, tracking_status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		userID, address, total, models.TrackingStatusPlaced, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	prices, err := productPricesTx(ctx, tx, lines)
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{Order: order}

	for _, line := range SortLines(lines) {
		var row models.SizeStock
		err := tx.GetContext(ctx, &row,
			"SELECT * FROM size_stocks WHERE product_id = $1 AND size = $2 FOR UPDATE",
			line.ProductID, line.Size)
		if err == sql.ErrNoRows {
			return nil, &models.SizeUnavailableError{ProductID: line.ProductID, Size: line.Size}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock size stock: %w", err)
		}

		if row.Stock < line.Quantity {
			return nil, &models.InsufficientStockError{
				ProductID: line.ProductID,
				Size:      line.Size,
				Requested: line.Quantity,
				Available: row.Stock,
			}
		}

		// GREATEST clamps defensively; the check above makes a negative
		// result unreachable, so a clamp firing here is a bug signal.
		var updated models.SizeStock
		err = tx.GetContext(ctx, &updated, `
			UPDATE size_stocks
			SET stock = GREATEST(stock - $2, 0),
			    status = CASE WHEN stock - $2 > 0 THEN 'IN_STOCK' ELSE 'OUT_OF_STOCK' END,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING *`,
			row.ID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}

		price, ok := prices[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("product not found: %d", line.ProductID)
		}

		item := models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
			UnitPrice: price,
		}
		err = tx.GetContext(ctx, &item.ID, `
			INSERT INTO order_items (order_id, product_id, size, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			item.OrderID, item.ProductID, item.Size, item.Quantity, item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}

		result.Items = append(result.Items, item)
		result.Updated = append(result.Updated, updated)
		if updated.Stock == 0 {
			result.Depleted = append(result.Depleted, updated)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_lines WHERE user_id = $1", userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	return result, nil
}

// productPricesTx loads the unit price of every product referenced by lines
// inside the checkout transaction, so the snapshot matches the moment of
// purchase.
func productPricesTx(ctx context.Context, tx *sqlx.Tx, lines []CheckoutLine) (map[int64]int64, error) {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	query, args, err := sqlx.In("SELECT id, price FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	var rows []struct {
		ID    int64 `db:"id"`
		Price int64 `db:"price"`
	}
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	prices := make(map[int64]int64, len(rows))
	for _, r := range rows {
		prices[r.ID] = r.Price
	}
	return prices, nil
}
