package store

import (
	"context"
	"database/sql"

	"sizestock-service/internal/models"
)

// GetSizeStock retrieves the inventory row for a (product, size) pair.
// A missing row is reported as SizeUnavailableError.
func (s *Store) GetSizeStock(ctx context.Context, productID int64, size string) (*models.SizeStock, error) {
	var ss models.SizeStock
	err := s.db.GetContext(ctx, &ss,
		"SELECT * FROM size_stocks WHERE product_id = $1 AND size = $2", productID, size)
	if err == sql.ErrNoRows {
		return nil, &models.SizeUnavailableError{ProductID: productID, Size: size}
	}
	if err != nil {
		return nil, err
	}
	return &ss, nil
}

// ListSizeStocks retrieves all inventory rows for a product
func (s *Store) ListSizeStocks(ctx context.Context, productID int64) ([]models.SizeStock, error) {
	var rows []models.SizeStock
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM size_stocks WHERE product_id = $1 ORDER BY id", productID)
	return rows, err
}

// UpsertWithIncrement creates the (product, size) row with the given stock,
// or, when the row already exists, adds the stock to the current value in a
// single statement. This is the merge path for duplicate creation: the
// uniqueness condition is never raised to the caller. The second return
// value reports whether a new row was inserted (xmax = 0 on an upserted row
// means insert, not update).
func (s *Store) UpsertWithIncrement(ctx context.Context, productID int64, size string, stock int) (*models.SizeStock, bool, error) {
	var row struct {
		models.SizeStock
		Inserted bool `db:"inserted"`
	}
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO size_stocks (product_id, size, stock, status)
		VALUES ($1, $2, $3, CASE WHEN $3 > 0 THEN 'IN_STOCK' ELSE 'OUT_OF_STOCK' END)
		ON CONFLICT (product_id, size) DO UPDATE
		SET stock = size_stocks.stock + EXCLUDED.stock,
		    status = CASE WHEN size_stocks.stock + EXCLUDED.stock > 0 THEN 'IN_STOCK' ELSE 'OUT_OF_STOCK' END,
		    updated_at = NOW()
		RETURNING *, (xmax = 0) AS inserted`,
		productID, size, stock)
	if err != nil {
		return nil, false, err
	}
	return &row.SizeStock, row.Inserted, nil
}

// IncrementStock atomically adds delta to the current stock of an existing
// row. The arithmetic happens in the database, not in the caller, so
// concurrent increments never lose updates.
func (s *Store) IncrementStock(ctx context.Context, productID int64, size string, delta int) (*models.SizeStock, error) {
	var ss models.SizeStock
	err := s.db.GetContext(ctx, &ss, `
		UPDATE size_stocks
		SET stock = stock + $3,
		    status = CASE WHEN stock + $3 > 0 THEN 'IN_STOCK' ELSE 'OUT_OF_STOCK' END,
		    updated_at = NOW()
		WHERE product_id = $1 AND size = $2
		RETURNING *`,
		productID, size, delta)
	if err == sql.ErrNoRows {
		return nil, &models.SizeUnavailableError{ProductID: productID, Size: size}
	}
	if err != nil {
		return nil, err
	}
	return &ss, nil
}

// CreateIfAbsent creates the (product, size) row with the given stock only
// if no row exists yet. Returns the row and whether it was created. Existing
// rows are never modified by this path.
func (s *Store) CreateIfAbsent(ctx context.Context, productID int64, size string, stock int) (*models.SizeStock, bool, error) {
	var ss models.SizeStock
	err := s.db.GetContext(ctx, &ss, `
		INSERT INTO size_stocks (product_id, size, stock, status)
		VALUES ($1, $2, $3, CASE WHEN $3 > 0 THEN 'IN_STOCK' ELSE 'OUT_OF_STOCK' END)
		ON CONFLICT (product_id, size) DO NOTHING
		RETURNING *`,
		productID, size, stock)
	if err == nil {
		return &ss, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, err
	}

	existing, err := s.GetSizeStock(ctx, productID, size)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// SetStock sets the stock of an existing row to an absolute value and
// re-derives status in the same statement.
func (s *Store) SetStock(ctx context.Context, productID int64, size string, stock int) (*models.SizeStock, error) {
	var ss models.SizeStock
	err := s.db.GetContext(ctx, &ss, `
		UPDATE size_stocks
		SET stock = $3,
		    status = CASE WHEN $3 > 0 THEN 'IN_STOCK' ELSE 'OUT_OF_STOCK' END,
		    updated_at = NOW()
		WHERE product_id = $1 AND size = $2
		RETURNING *`,
		productID, size, stock)
	if err == sql.ErrNoRows {
		return nil, &models.SizeUnavailableError{ProductID: productID, Size: size}
	}
	if err != nil {
		return nil, err
	}
	return &ss, nil
}

// ListOutOfStock retrieves every row currently flagged OUT_OF_STOCK
func (s *Store) ListOutOfStock(ctx context.Context) ([]models.SizeStock, error) {
	var rows []models.SizeStock
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM size_stocks WHERE status = 'OUT_OF_STOCK' ORDER BY product_id, size")
	return rows, err
}
