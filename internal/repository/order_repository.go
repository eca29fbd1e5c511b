package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"store-service/internal/domain"

	"github.com/google/uuid"
)

// OrderRepository owns order records and their line snapshots. UpdateStatus
// is a compare-and-swap on the status column; it is the mechanism that
// arbitrates concurrent pay, cancel and expire attempts.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Order, int, error)

	// FindExpired returns CREATED orders whose expiry deadline passed before
	// the given cutoff. Each call re-queries current state.
	FindExpired(ctx context.Context, before time.Time) ([]domain.Order, error)

	// UpdateStatus transitions the order from one status to another. It
	// returns ErrStatusConflict when the current status does not match from,
	// and ErrOrderNotFound when the order does not exist. paidAt is stored
	// only when non-nil.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, paidAt *time.Time) error

	// ProductInActiveOrder reports whether the product appears in any order
	// still in CREATED state. Used to guard catalog deletes.
	ProductInActiveOrder(ctx context.Context, productID uuid.UUID) (bool, error)
}

// InMemoryOrderRepository keeps orders in a map guarded by a mutex. The
// UpdateStatus check-and-set runs under the lock, which linearizes all
// transitions on a given order.
type InMemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{
		orders: make(map[uuid.UUID]*domain.Order),
	}
}

func (r *InMemoryOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *InMemoryOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, exists := r.orders[id]
	if !exists {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *InMemoryOrderRepository) List(ctx context.Context, page, pageSize int) ([]domain.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		all = append(all, *cloneOrder(order))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return []domain.Order{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *InMemoryOrderRepository) FindExpired(ctx context.Context, before time.Time) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expired := make([]domain.Order, 0)
	for _, order := range r.orders {
		if order.Status == domain.StatusCreated && order.ExpiresAt.Before(before) {
			expired = append(expired, *cloneOrder(order))
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	return expired, nil
}

func (r *InMemoryOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, paidAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, exists := r.orders[id]
	if !exists {
		return domain.ErrOrderNotFound
	}
	if order.Status != from {
		return domain.ErrStatusConflict
	}
	order.Status = to
	if paidAt != nil {
		t := *paidAt
		order.PaidAt = &t
	}
	return nil
}

func (r *InMemoryOrderRepository) ProductInActiveOrder(ctx context.Context, productID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.Status != domain.StatusCreated {
			continue
		}
		for _, line := range order.Lines {
			if line.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	copy := *order
	copy.Lines = append([]domain.OrderLine(nil), order.Lines...)
	if order.PaidAt != nil {
		t := *order.PaidAt
		copy.PaidAt = &t
	}
	return &copy
}
