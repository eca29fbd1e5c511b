package handlers

import (
	"context"
	"net/http"
	"strconv"

	"store-service/internal/domain"
	apperrors "store-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderManager is the order lifecycle surface the handler needs.
type OrderManager interface {
	CreateOrder(ctx context.Context, lines []domain.StockLine) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, page, pageSize int) ([]domain.Order, int, error)
	PayOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type OrderHandler struct {
	logger *zap.Logger
	orders OrderManager
}

func NewOrderHandler(logger *zap.Logger, orders OrderManager) *OrderHandler {
	return &OrderHandler{
		logger: logger,
		orders: orders,
	}
}

// CreateOrder handles POST /api/v1/orders
// @Summary      Create a new order
// @Description  Reserves stock for every line atomically and creates the order in CREATED state with an expiry deadline. Repeated product ids are merged by summing quantities.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateOrderRequest  true  "Order lines"
// @Success      201      {object}  OrderResponse
// @Failure      400      {object}  ErrorResponse  "Empty order or invalid quantities"
// @Failure      404      {object}  ErrorResponse  "Unknown product"
// @Failure      409      {object}  ErrorResponse  "Insufficient stock"
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return
	}

	lines := make([]domain.StockLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apperrors.NewValidationError("invalid product id", "product_id"))
			return
		}
		lines = append(lines, domain.StockLine{ProductID: productID, Quantity: line.Quantity})
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), lines)
	if err != nil {
		h.respondOrderError(c, "", err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// GetOrder handles GET /api/v1/orders/:id
// @Summary      Fetch an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID (UUID)"
// @Success      200  {object}  OrderResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("invalid order id", "id"))
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.respondOrderError(c, id.String(), err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// ListOrders handles GET /api/v1/orders
// @Summary      List orders, newest first
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int  false  "Page number (default 1)"
// @Param        page_size  query     int  false  "Page size (default 20, max 100)"
// @Success      200        {object}  OrderListResponse
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, pageSize := pagination(c)

	orders, total, err := h.orders.ListOrders(c.Request.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apperrors.NewDatabaseError("list orders", err))
		return
	}

	resp := OrderListResponse{
		Orders:   make([]OrderResponse, len(orders)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range orders {
		resp.Orders[i] = toOrderResponse(&orders[i])
	}
	c.JSON(http.StatusOK, resp)
}

// PayOrder handles POST /api/v1/orders/:id/pay
// @Summary      Pay an order
// @Description  Transitions the order CREATED -> PAID. The reservation becomes a committed sale; no stock is released. A lost race reports the precise current state.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID (UUID)"
// @Success      200  {object}  OrderResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse  "Already paid, expired or cancelled"
// @Router       /orders/{id}/pay [post]
func (h *OrderHandler) PayOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("invalid order id", "id"))
		return
	}

	order, err := h.orders.PayOrder(c.Request.Context(), id)
	if err != nil {
		h.respondOrderError(c, id.String(), err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// CancelOrder handles DELETE /api/v1/orders/:id
// @Summary      Cancel an order
// @Description  Transitions the order CREATED -> CANCELLED and restores its reserved stock. Cancellation is a state, not a deletion.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID (UUID)"
// @Success      200  {object}  OrderResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse  "Already paid, expired or cancelled"
// @Router       /orders/{id} [delete]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("invalid order id", "id"))
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), id)
	if err != nil {
		h.respondOrderError(c, id.String(), err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) respondOrderError(c *gin.Context, orderID string, err error) {
	var appErr *apperrors.StandardError

	switch e := err.(type) {
	case *domain.InsufficientStockError:
		appErr = apperrors.NewInsufficientStock(e.ProductID.String(), e.Available, e.Requested)
	default:
		switch err {
		case domain.ErrEmptyOrder:
			appErr = apperrors.NewEmptyOrder()
		case domain.ErrOrderNotFound:
			appErr = apperrors.NewOrderNotFound(orderID)
		case domain.ErrProductNotFound:
			appErr = apperrors.NewProductNotFound("")
		case domain.ErrAlreadyPaid:
			appErr = apperrors.NewAlreadyPaid(orderID)
		case domain.ErrOrderExpired:
			appErr = apperrors.NewOrderExpired(orderID)
		case domain.ErrOrderCancelled:
			appErr = apperrors.NewOrderCancelled(orderID)
		default:
			h.logger.Error("Order operation failed", zap.String("order_id", orderID), zap.Error(err))
			appErr = apperrors.NewInternalError("order operation failed", err)
		}
	}

	c.JSON(appErr.HTTPStatus(), appErr)
}

func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
