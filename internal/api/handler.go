package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sizestock-service/internal/models"
	"sizestock-service/internal/service"
	"sizestock-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orderService       *service.OrderService
	stockService       *service.StockService
	fulfillmentService *service.FulfillmentService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orderService *service.OrderService,
	stockService *service.StockService,
	fulfillmentService *service.FulfillmentService,
) *Handler {
	return &Handler{
		orderService:       orderService,
		stockService:       stockService,
		fulfillmentService: fulfillmentService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/products", h.createProduct)
		v1.GET("/products/:id/sizes", h.getProductSizes)

		v1.POST("/orders", h.placeOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.PUT("/orders/:id/tracking", h.updateTracking)

		v1.POST("/cart", h.addToCart)
		v1.PUT("/cart/:id", h.updateCartLine)

		v1.POST("/inventory/sizes", h.createSizeStock)
		v1.POST("/inventory/restock", h.restock)
		v1.POST("/inventory/restock-depleted", h.restockDepleted)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

type createProductRequest struct {
	SKU               string `json:"sku" binding:"required"`
	Name              string `json:"name" binding:"required"`
	Price             int64  `json:"price" binding:"required"`
	InitialTotalStock int    `json:"initial_total_stock"`
}

// createProduct creates a product and seeds its size rows
func (h *Handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product := &models.Product{
		SKU:               req.SKU,
		Name:              req.Name,
		Price:             req.Price,
		InitialTotalStock: req.InitialTotalStock,
	}

	sizes, err := h.stockService.CreateProduct(c.Request.Context(), product)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product, "sizes": sizes})
}

// getProductSizes returns the ledger rows for a product
func (h *Handler) getProductSizes(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	product, err := h.stockService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "details": err.Error()})
		return
	}

	sizes, err := h.stockService.ListSizeStocks(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product, "sizes": sizes})
}

// placeOrder runs the checkout transaction
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.orderService.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getOrder returns an order with its item snapshots
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, items, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

type updateTrackingRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateTracking sets a new tracking status and fires the status-change hook
func (h *Handler) updateTracking(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req updateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	previous, err := h.fulfillmentService.UpdateTrackingStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"previous": previous,
		"status":   req.Status,
	})
}

type addToCartRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// addToCart records a cart line after the availability pre-check
func (h *Handler) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	line, err := h.orderService.AddToCart(c.Request.Context(), req.UserID, req.ProductID, req.Size, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, line)
}

type updateCartLineRequest struct {
	UserID   int64 `json:"user_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required"`
}

// updateCartLine changes a cart line's quantity
func (h *Handler) updateCartLine(c *gin.Context) {
	lineID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req updateCartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orderService.UpdateCartQuantity(c.Request.Context(), req.UserID, lineID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart_line_id": lineID, "quantity": req.Quantity})
}

type createSizeStockRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Stock     int    `json:"stock"`
}

// createSizeStock creates a size row, merging into an existing one
func (h *Handler) createSizeStock(c *gin.Context) {
	var req createSizeStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ss, err := h.stockService.CreateSizeStock(c.Request.Context(), req.ProductID, req.Size, req.Stock)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ss)
}

type restockRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

// restock sets a size row to a target quantity; without an explicit
// quantity the product's default restock quantity is used.
func (h *Handler) restock(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	qty := 0
	if req.Quantity != nil {
		qty = *req.Quantity
	} else {
		product, err := h.stockService.GetProduct(c.Request.Context(), req.ProductID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "details": err.Error()})
			return
		}
		qty = h.stockService.DefaultQtyFor(product)
	}

	changed, err := h.stockService.RestockTo(c.Request.Context(), req.ProductID, req.Size, qty, models.RestockTriggerManual)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": req.ProductID,
		"size":       req.Size,
		"stock":      qty,
		"changed":    changed,
	})
}

// restockDepleted restocks every out-of-stock size row to its product's default
func (h *Handler) restockDepleted(c *gin.Context) {
	changed, err := h.stockService.RestockAllOutOfStock(c.Request.Context(), nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"restocked": changed})
}

// respondError maps ledger error types onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var insufficient *models.InsufficientStockError
	var unavailable *models.SizeUnavailableError
	var invalid *models.InvalidQuantityError

	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Insufficient stock",
			"product_id": insufficient.ProductID,
			"size":       insufficient.Size,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
			"shortfall":  insufficient.Shortfall(),
		})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "Size not available",
			"product_id": unavailable.ProductID,
			"size":       unavailable.Size,
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "Invalid quantity",
			"quantity": invalid.Quantity,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Request failed",
			"details": err.Error(),
		})
	}
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
