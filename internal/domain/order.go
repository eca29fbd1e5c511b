package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusPaid      OrderStatus = "PAID"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusExpired   OrderStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed from the status.
// Every transition originates from CREATED; PAID, CANCELLED and EXPIRED are
// one-way.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled || s == StatusExpired
}

// OrderLine is a single order position. Name and unit price are snapshots
// captured at order creation, so later catalog changes do not alter the order.
type OrderLine struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   int64
	Quantity    int
}

// LineTotal returns quantity times the snapshotted unit price.
func (l OrderLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order is the aggregate tracking an order and the stock it holds.
// The order's lines are the only record of what was reserved: releasing the
// reservation replays the line quantities against the products.
type Order struct {
	ID        uuid.UUID
	Status    OrderStatus
	Lines     []OrderLine
	CreatedAt time.Time
	ExpiresAt time.Time
	PaidAt    *time.Time
}

// NewOrder creates an order in CREATED state expiring after ttl.
func NewOrder(lines []OrderLine, ttl time.Duration) *Order {
	now := time.Now()
	return &Order{
		ID:        uuid.New(),
		Status:    StatusCreated,
		Lines:     lines,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Total returns the grand total over all lines.
func (o *Order) Total() int64 {
	var total int64
	for _, line := range o.Lines {
		total += line.LineTotal()
	}
	return total
}

// StockLines returns the order's line quantities for reserve/release calls.
func (o *Order) StockLines() []StockLine {
	lines := make([]StockLine, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = StockLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return lines
}

// Domain errors
var (
	ErrEmptyOrder      = &DomainError{Message: "order must contain at least one line"}
	ErrOrderNotFound   = &DomainError{Message: "order not found"}
	ErrProductNotFound = &DomainError{Message: "product not found"}
	ErrStatusConflict  = &DomainError{Message: "order status changed concurrently"}
	ErrAlreadyPaid     = &DomainError{Message: "order was already paid"}
	ErrOrderExpired    = &DomainError{Message: "order has expired"}
	ErrOrderCancelled  = &DomainError{Message: "order was cancelled"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// InsufficientStockError identifies the first product of a reserve batch
// whose available quantity was short, in line order.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}
