package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog product with its available stock.
// Prices are stored in cents to avoid floating point drift.
type Product struct {
	ID        uuid.UUID
	Name      string
	UnitPrice int64
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int // For optimistic locking
}

// NewProduct creates a new product
func NewProduct(name string, unitPrice int64, stock int) *Product {
	return &Product{
		ID:        uuid.New(),
		Name:      name,
		UnitPrice: unitPrice,
		Stock:     stock,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Version:   1,
	}
}

// StockLine is a (product, quantity) pair used by reserve and release.
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}
