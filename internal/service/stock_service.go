package service

import (
	"context"
	"fmt"
	"time"

	"sizestock-service/internal/broker"
	"sizestock-service/internal/models"
	"sizestock-service/internal/redisclient"
	"sizestock-service/internal/store"
	"sizestock-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockService owns the size-level inventory ledger: seeding, restocking
// and duplicate-creation merging.
type StockService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
	restockDivisor int
	fallbackQty    int
}

// NewStockService creates a new stock service
func NewStockService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	restockDivisor, fallbackQty int,
) *StockService {
	if restockDivisor <= 0 {
		restockDivisor = 5
	}
	if fallbackQty <= 0 {
		fallbackQty = 2
	}
	return &StockService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		restockDivisor: restockDivisor,
		fallbackQty:    fallbackQty,
	}
}

// DefaultRestockQty computes the default replenishment quantity from a
// product's configured initial stock. Every restock call site goes through
// this one function so the formula cannot diverge.
func DefaultRestockQty(initialTotalStock, divisor, fallback int) int {
	if initialTotalStock <= 0 {
		return fallback
	}
	qty := initialTotalStock / divisor
	if qty <= 0 {
		return fallback
	}
	return qty
}

// DefaultQtyFor resolves the default restock quantity for a product using
// the configured divisor and fallback.
func (s *StockService) DefaultQtyFor(p *models.Product) int {
	return DefaultRestockQty(p.InitialTotalStock, s.restockDivisor, s.fallbackQty)
}

// DistributeEvenly splits total across n slots: the first (total mod n)
// slots get one extra unit. The slot order is the fixed size enumeration
// order, so the distribution is stable.
func DistributeEvenly(total, n int) []int {
	if n <= 0 {
		return nil
	}
	if total < 0 {
		total = 0
	}
	base := total / n
	rem := total % n
	out := make([]int, n)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// RestockTo sets a size row's stock to targetQty. Idempotent: when the row
// already holds targetQty nothing is written and false is returned.
func (s *StockService) RestockTo(ctx context.Context, productID int64, size string, targetQty int, trigger string) (bool, error) {
	ctx, span := util.StartSpan(ctx, "StockService.RestockTo")
	defer span.End()

	if targetQty < 0 {
		return false, &models.InvalidQuantityError{Quantity: targetQty}
	}

	current, err := s.store.GetSizeStock(ctx, productID, size)
	if err != nil {
		return false, err
	}
	if current.Stock == targetQty {
		return false, nil
	}

	updated, err := s.store.SetStock(ctx, productID, size, targetQty)
	if err != nil {
		return false, err
	}

	util.RestocksTotal.WithLabelValues(trigger).Inc()
	s.logger.Info("Size restocked",
		zap.Int64("product_id", productID),
		zap.String("size", size),
		zap.Int("stock", updated.Stock),
		zap.String("trigger", trigger))

	s.refreshSnapshot(ctx, updated)
	s.publishRestocked(ctx, updated, trigger)
	return true, nil
}

// CreateSizeStock creates a size row with the given stock. When the
// (product, size) pair already exists the new stock is merged into the
// existing row by an atomic in-place increment; the duplicate is never
// surfaced as an error.
func (s *StockService) CreateSizeStock(ctx context.Context, productID int64, size string, stock int) (*models.SizeStock, error) {
	ctx, span := util.StartSpan(ctx, "StockService.CreateSizeStock")
	defer span.End()

	if !models.IsValidSize(size) {
		return nil, fmt.Errorf("unknown size: %s", size)
	}
	if stock < 0 {
		return nil, &models.InvalidQuantityError{Quantity: stock}
	}

	ss, created, err := s.store.UpsertWithIncrement(ctx, productID, size, stock)
	if err != nil {
		return nil, err
	}

	if !created {
		util.StockMergesTotal.Inc()
		s.logger.Info("Merged duplicate size stock into existing row",
			zap.Int64("product_id", productID),
			zap.String("size", size),
			zap.Int("added", stock),
			zap.Int("stock", ss.Stock))
	}

	s.refreshSnapshot(ctx, ss)
	return ss, nil
}

// SeedSizeStocks ensures a product has a row for every size. A product with
// no rows at all gets its initial total stock distributed evenly across the
// size set; a product with a partial set gets the missing sizes at zero.
// Existing rows are never touched.
func (s *StockService) SeedSizeStocks(ctx context.Context, product *models.Product) ([]models.SizeStock, error) {
	ctx, span := util.StartSpan(ctx, "StockService.SeedSizeStocks")
	defer span.End()

	existing, err := s.store.ListSizeStocks(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list size stocks: %w", err)
	}

	quantities := make([]int, len(models.Sizes))
	if len(existing) == 0 {
		quantities = DistributeEvenly(product.InitialTotalStock, len(models.Sizes))
	}

	rows := make([]models.SizeStock, 0, len(models.Sizes))
	seeded := 0
	for i, size := range models.Sizes {
		ss, created, err := s.store.CreateIfAbsent(ctx, product.ID, size, quantities[i])
		if err != nil {
			return nil, fmt.Errorf("failed to seed size %s: %w", size, err)
		}
		if created {
			seeded++
			s.refreshSnapshot(ctx, ss)
		}
		rows = append(rows, *ss)
	}

	if seeded > 0 {
		util.SizeStocksSeededTotal.Add(float64(seeded))
		s.logger.Info("Seeded size stocks",
			zap.Int64("product_id", product.ID),
			zap.Int("created", seeded),
			zap.Int("initial_total_stock", product.InitialTotalStock))
	}

	return rows, nil
}

// CreateProduct creates a catalog product and immediately seeds its size
// rows. Seeding is an explicit call here, not a persistence side effect, so
// the creation workflow owns the whole sequence.
func (s *StockService) CreateProduct(ctx context.Context, product *models.Product) ([]models.SizeStock, error) {
	ctx, span := util.StartSpan(ctx, "StockService.CreateProduct")
	defer span.End()

	if product.InitialTotalStock < 0 {
		return nil, &models.InvalidQuantityError{Quantity: product.InitialTotalStock}
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("sku", product.SKU))

	return s.SeedSizeStocks(ctx, product)
}

// RestockAllOutOfStock restocks every depleted size row. The resolver maps
// a product to its target quantity; passing nil uses the default formula.
// Returns the number of rows actually changed.
func (s *StockService) RestockAllOutOfStock(ctx context.Context, resolver func(*models.Product) int) (int, error) {
	ctx, span := util.StartSpan(ctx, "StockService.RestockAllOutOfStock")
	defer span.End()

	if resolver == nil {
		resolver = s.DefaultQtyFor
	}

	depleted, err := s.store.ListOutOfStock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list out-of-stock rows: %w", err)
	}
	if len(depleted) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(depleted))
	seen := make(map[int64]struct{}, len(depleted))
	for _, row := range depleted {
		if _, ok := seen[row.ProductID]; ok {
			continue
		}
		seen[row.ProductID] = struct{}{}
		ids = append(ids, row.ProductID)
	}

	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	changed := 0
	for _, row := range depleted {
		product, ok := byID[row.ProductID]
		if !ok {
			s.logger.Warn("Skipping orphaned size stock",
				zap.Int64("product_id", row.ProductID),
				zap.String("size", row.Size))
			continue
		}

		did, err := s.RestockTo(ctx, row.ProductID, row.Size, resolver(product), models.RestockTriggerScheduled)
		if err != nil {
			return changed, err
		}
		if did {
			changed++
		}
	}

	return changed, nil
}

// GetProduct retrieves a catalog product
func (s *StockService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	return s.store.GetProductByID(ctx, productID)
}

// ListSizeStocks retrieves the ledger rows for a product
func (s *StockService) ListSizeStocks(ctx context.Context, productID int64) ([]models.SizeStock, error) {
	return s.store.ListSizeStocks(ctx, productID)
}

// SyncSnapshotToRedis rebuilds the advisory stock snapshot from the database
func (s *StockService) SyncSnapshotToRedis(ctx context.Context) error {
	products, err := s.store.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get products: %w", err)
	}

	for _, product := range products {
		rows, err := s.store.ListSizeStocks(ctx, product.ID)
		if err != nil {
			s.logger.Error("Failed to list size stocks",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
			continue
		}

		stocks := make(map[string]int, len(rows))
		for _, row := range rows {
			stocks[row.Size] = row.Stock
		}
		if err := s.redis.SetProductStocks(ctx, product.ID, stocks); err != nil {
			s.logger.Error("Failed to sync stock snapshot",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("Stock snapshot synced", zap.Int("products", len(products)))
	return nil
}

// refreshSnapshot pushes one row's state into the advisory cache. Failures
// are logged and dropped: the snapshot is never authoritative.
func (s *StockService) refreshSnapshot(ctx context.Context, ss *models.SizeStock) {
	if err := s.redis.SetSizeStock(ctx, ss.ProductID, ss.Size, ss.Stock); err != nil {
		s.logger.Warn("Failed to refresh stock snapshot",
			zap.Int64("product_id", ss.ProductID),
			zap.String("size", ss.Size),
			zap.Error(err))
	}
}

func (s *StockService) publishRestocked(ctx context.Context, ss *models.SizeStock, trigger string) {
	event := &models.SizeRestockedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSizeRestocked,
			Timestamp: time.Now(),
		},
		ProductID: ss.ProductID,
		Size:      ss.Size,
		Stock:     ss.Stock,
		Trigger:   trigger,
	}
	if err := s.eventPublisher.PublishSizeRestocked(ctx, event); err != nil {
		s.logger.Error("Failed to publish SizeRestocked event", zap.Error(err))
	}
}
