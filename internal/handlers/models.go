package handlers

import (
	"time"

	"store-service/internal/domain"
)

// ErrorResponse represents an error response
// @Description Error response with code, message and details
type ErrorResponse struct {
	Error   string `json:"error" example:"InsufficientStock"`
	Message string `json:"message" example:"insufficient stock available"`
	Details string `json:"details" example:"Product: 550e8400-e29b-41d4-a716-446655440000, Available: 2, Requested: 3"`
}

// ProductRequest is the body for creating or updating a product
// @Description Product payload. Prices are integer cents.
type ProductRequest struct {
	// Product name, unique across the catalog
	Name string `json:"name" binding:"required" example:"Milk"`

	// Unit price in cents (must be >= 0)
	UnitPrice int64 `json:"unit_price" binding:"min=0" example:"249"`

	// Available stock (must be >= 0)
	Stock int `json:"stock" binding:"min=0" example:"100"`
}

// ProductResponse represents a catalog product
type ProductResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string    `json:"name" example:"Milk"`
	UnitPrice int64     `json:"unit_price" example:"249"`
	Stock     int       `json:"stock" example:"100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductListResponse is a paginated product listing
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total" example:"42"`
	Page     int               `json:"page" example:"1"`
	PageSize int               `json:"page_size" example:"20"`
}

// OrderLineRequest is one position of a create-order request
type OrderLineRequest struct {
	ProductID string `json:"product_id" binding:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity  int    `json:"quantity" binding:"required,min=1" example:"3"`
}

// CreateOrderRequest is the body for creating an order
type CreateOrderRequest struct {
	Lines []OrderLineRequest `json:"lines" binding:"required"`
}

// OrderLineResponse is one displayed order position with its snapshots
type OrderLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name" example:"Milk"`
	UnitPrice int64  `json:"unit_price" example:"249"`
	Quantity  int    `json:"quantity" example:"3"`
	LineTotal int64  `json:"line_total" example:"747"`
}

// OrderResponse represents an order for display
type OrderResponse struct {
	ID        string              `json:"id"`
	Status    string              `json:"status" example:"CREATED"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
	PaidAt    *time.Time          `json:"paid_at,omitempty"`
	Lines     []OrderLineResponse `json:"lines"`
	Total     int64               `json:"total" example:"747"`
}

// OrderListResponse is a paginated order listing
type OrderListResponse struct {
	Orders   []OrderResponse `json:"orders"`
	Total    int             `json:"total" example:"7"`
	Page     int             `json:"page" example:"1"`
	PageSize int             `json:"page_size" example:"20"`
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toOrderResponse(o *domain.Order) OrderResponse {
	lines := make([]OrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineResponse{
			ProductID: l.ProductID.String(),
			Name:      l.ProductName,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal(),
		}
	}
	return OrderResponse{
		ID:        o.ID.String(),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		ExpiresAt: o.ExpiresAt,
		PaidAt:    o.PaidAt,
		Lines:     lines,
		Total:     o.Total(),
	}
}
