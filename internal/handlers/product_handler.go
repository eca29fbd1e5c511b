package handlers

import (
	"context"
	"net/http"

	"store-service/internal/domain"
	"store-service/internal/service"
	apperrors "store-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog is the product catalog surface the handler needs.
type Catalog interface {
	ListProducts(ctx context.Context, nameFilter string, page, pageSize int) ([]domain.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, req service.ProductRequest) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req service.ProductRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

type ProductHandler struct {
	logger  *zap.Logger
	catalog Catalog
}

func NewProductHandler(logger *zap.Logger, catalog Catalog) *ProductHandler {
	return &ProductHandler{
		logger:  logger,
		catalog: catalog,
	}
}

// ListProducts handles GET /api/v1/products
// @Summary      List products
// @Description  Returns a page of products, newest first, optionally filtered by name substring.
// @Tags         products
// @Produce      json
// @Param        name       query     string  false  "Name filter (substring, case-insensitive)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        page_size  query     int     false  "Page size (default 20, max 100)"
// @Success      200        {object}  ProductListResponse
// @Router       /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, pageSize := pagination(c)

	products, total, err := h.catalog.ListProducts(c.Request.Context(), c.Query("name"), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apperrors.NewDatabaseError("list products", err))
		return
	}

	resp := ProductListResponse{
		Products: make([]ProductResponse, len(products)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range products {
		resp.Products[i] = toProductResponse(&products[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct handles GET /api/v1/products/:id
// @Summary      Fetch a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID (UUID)"
// @Success      200  {object}  ProductResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("invalid product id", "id"))
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondProductError(c, id.String(), err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

// CreateProduct handles POST /api/v1/products
// @Summary      Create a product (admin)
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ProductRequest  true  "Product payload"
// @Success      201      {object}  ProductResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse  "Duplicate name"
// @Router       /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), service.ProductRequest{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Stock:     req.Stock,
	})
	if err != nil {
		h.respondProductError(c, "", err)
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(product))
}

// UpdateProduct handles PUT /api/v1/products/:id
// @Summary      Update a product (admin)
// @Description  Overwrites name, unit price and stock. Setting stock here is an administrative override, not a reservation.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string          true  "Product ID (UUID)"
// @Param        request  body      ProductRequest  true  "Product payload"
// @Success      200      {object}  ProductResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("invalid product id", "id"))
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, service.ProductRequest{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Stock:     req.Stock,
	})
	if err != nil {
		h.respondProductError(c, id.String(), err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

// DeleteProduct handles DELETE /api/v1/products/:id
// @Summary      Delete a product (admin)
// @Description  Rejected while the product is referenced by an order in CREATED state.
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID (UUID)"
// @Success      200  {object}  ProductResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse  "Product in active order"
// @Router       /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("invalid product id", "id"))
		return
	}

	product, err := h.catalog.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		h.respondProductError(c, id.String(), err)
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

func (h *ProductHandler) respondProductError(c *gin.Context, productID string, err error) {
	var appErr *apperrors.StandardError

	switch err {
	case domain.ErrProductNotFound:
		appErr = apperrors.NewProductNotFound(productID)
	case service.ErrInvalidProduct:
		appErr = apperrors.NewValidationError(err.Error(), "name, unit_price, stock")
	case service.ErrDuplicateName:
		appErr = apperrors.NewDuplicateName("")
	case service.ErrProductInOrder:
		appErr = apperrors.NewStandardError("Conflict", err.Error(), "Product ID: "+productID)
	default:
		h.logger.Error("Product operation failed", zap.String("product_id", productID), zap.Error(err))
		appErr = apperrors.NewInternalError("product operation failed", err)
	}

	c.JSON(appErr.HTTPStatus(), appErr)
}
