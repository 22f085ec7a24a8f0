package service

import (
	"context"
	"errors"
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

// OrderService handles checkout and cart pre-checks
type OrderService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	stock          *StockService
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	stock *StockService,
) *OrderService {
	return &OrderService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		stock:          stock,
		logger:         util.GetLogger(),
	}
}

// PlaceOrderRequest represents a checkout request. Lines and total come
// from the cart service; the ledger does not recompute the header total.
type PlaceOrderRequest struct {
	UserID         int64                `json:"user_id" binding:"required"`
	Address        string               `json:"address" binding:"required"`
	Total          int64                `json:"total"`
	Lines          []store.CheckoutLine `json:"lines" binding:"required,min=1"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
}

// PlaceOrderResponse represents the response after a committed checkout
type PlaceOrderResponse struct {
	OrderID        int64              `json:"order_id"`
	TrackingStatus string             `json:"tracking_status"`
	Items          []models.OrderItem `json:"items,omitempty"`
}

// PlaceOrder validates the request, then runs the all-or-nothing checkout
// transaction. Either every line's stock is decremented and the order with
// its item snapshots is committed, or nothing is.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if err := validateLines(req.Lines); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			s.logger.Info("Duplicate checkout request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("order_id", existing.ID))
			return &PlaceOrderResponse{
				OrderID:        existing.ID,
				TrackingStatus: existing.TrackingStatus,
			}, nil
		}
	}

	start := time.Now()
	result, err := s.store.PlaceOrderTx(ctx, req.UserID, req.Address, req.Total, req.IdempotencyKey, req.Lines)
	util.CheckoutLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		// A concurrent request with the same key can win the insert after
		// the pre-check above; its order is the answer, not an error.
		if req.IdempotencyKey != "" && store.IsUniqueViolation(err, "idempotency_key") {
			existing, lookupErr := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr == nil && existing != nil {
				s.logger.Info("Lost idempotency race to concurrent checkout",
					zap.String("idempotency_key", req.IdempotencyKey),
					zap.Int64("order_id", existing.ID))
				return &PlaceOrderResponse{
					OrderID:        existing.ID,
					TrackingStatus: existing.TrackingStatus,
				}, nil
			}
		}

		var insufficient *models.InsufficientStockError
		var unavailable *models.SizeUnavailableError
		switch {
		case errors.As(err, &insufficient):
			util.InsufficientStockTotal.Inc()
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
			s.logger.Info("Checkout rejected",
				zap.Int64("product_id", insufficient.ProductID),
				zap.String("size", insufficient.Size),
				zap.Int("shortfall", insufficient.Shortfall()))
		case errors.As(err, &unavailable):
			util.OrdersFailedTotal.WithLabelValues("size_unavailable").Inc()
		default:
			util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	util.StockDepletedTotal.Add(float64(len(result.Depleted)))
	s.logger.Info("Order placed",
		zap.Int64("order_id", result.Order.ID),
		zap.Int64("user_id", req.UserID),
		zap.Int("lines", len(result.Items)))

	for _, row := range result.Updated {
		s.stock.refreshSnapshot(ctx, &row)
	}

	if req.IdempotencyKey != "" {
		if err := s.redis.SetIdempotencyKey(ctx, req.IdempotencyKey, result.Order.ID, 24*time.Hour); err != nil {
			s.logger.Warn("Failed to cache idempotency key", zap.Error(err))
		}
	}

	s.publishOrderPlaced(ctx, result)

	return &PlaceOrderResponse{
		OrderID:        result.Order.ID,
		TrackingStatus: result.Order.TrackingStatus,
		Items:          result.Items,
	}, nil
}

// validateLines rejects malformed lines before any transaction starts
func validateLines(lines []store.CheckoutLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("order has no lines")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return &models.InvalidQuantityError{Quantity: line.Quantity}
		}
		if !models.IsValidSize(line.Size) {
			return &models.SizeUnavailableError{ProductID: line.ProductID, Size: line.Size}
		}
	}
	return nil
}

// CheckAvailability is the optimistic pre-check used when adding to cart:
// the size must cover the quantity already carted plus the new request. It
// reads the advisory snapshot when possible and is re-verified under lock
// at checkout, so a stale answer here can never oversell.
func (s *OrderService) CheckAvailability(ctx context.Context, userID, productID int64, size string, quantity int) error {
	if quantity <= 0 {
		return &models.InvalidQuantityError{Quantity: quantity}
	}
	if !models.IsValidSize(size) {
		return &models.SizeUnavailableError{ProductID: productID, Size: size}
	}

	carted, err := s.store.GetCartQuantity(ctx, userID, productID, size)
	if err != nil {
		return err
	}

	available, ok, err := s.redis.GetSizeStock(ctx, productID, size)
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn("Stock snapshot read failed, falling back to DB",
				zap.Int64("product_id", productID),
				zap.Error(err))
		}
		row, err := s.store.GetSizeStock(ctx, productID, size)
		if err != nil {
			return err
		}
		available = row.Stock
	}

	if available < carted+quantity {
		util.CartPrecheckRejectedTotal.Inc()
		return &models.InsufficientStockError{
			ProductID: productID,
			Size:      size,
			Requested: carted + quantity,
			Available: available,
		}
	}
	return nil
}

// AddToCart records a cart line after the availability pre-check passes
func (s *OrderService) AddToCart(ctx context.Context, userID, productID int64, size string, quantity int) (*models.CartLine, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AddToCart")
	defer span.End()

	if err := s.CheckAvailability(ctx, userID, productID, size, quantity); err != nil {
		return nil, err
	}

	line := &models.CartLine{
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Quantity:  quantity,
	}
	if err := s.store.UpsertCartLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}
	return line, nil
}

// UpdateCartQuantity changes a cart line's quantity. Increasing it requires
// the stock to cover the difference; reducing always succeeds.
func (s *OrderService) UpdateCartQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	if quantity <= 0 {
		return &models.InvalidQuantityError{Quantity: quantity}
	}

	lines, err := s.store.GetCartLines(ctx, userID)
	if err != nil {
		return err
	}
	var line *models.CartLine
	for i := range lines {
		if lines[i].ID == lineID {
			line = &lines[i]
			break
		}
	}
	if line == nil {
		return fmt.Errorf("cart line not found: %d", lineID)
	}

	if quantity > line.Quantity {
		if err := s.CheckAvailability(ctx, userID, line.ProductID, line.Size, quantity-line.Quantity); err != nil {
			return err
		}
	}

	return s.store.SetCartLineQuantity(ctx, userID, lineID, quantity)
}

// GetOrder retrieves an order with its item snapshots
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, result *store.CheckoutResult) {
	items := make([]models.OrderLineData, 0, len(result.Items))
	for _, it := range result.Items {
		items = append(items, models.OrderLineData{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     result.Order.ID,
		UserID:      result.Order.UserID,
		TotalAmount: result.Order.TotalAmount,
		Items:       items,
	}
	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	for _, row := range result.Depleted {
		depleted := &models.StockDepletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeStockDepleted,
				Timestamp: time.Now(),
			},
			ProductID: row.ProductID,
			Size:      row.Size,
			OrderID:   result.Order.ID,
		}
		if err := s.eventPublisher.PublishStockDepleted(ctx, depleted); err != nil {
			s.logger.Error("Failed to publish StockDepleted event", zap.Error(err))
		}
	}
}
