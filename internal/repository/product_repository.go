package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"store-service/internal/domain"

	"github.com/google/uuid"
)

// ProductRepository owns the catalog and the stock ledger. Reserve and
// Release are the only paths that may change stock on behalf of an order.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	List(ctx context.Context, nameFilter string, page, pageSize int) ([]domain.Product, int, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Reserve atomically decrements stock for the whole batch. If any line's
	// available quantity is short the batch is rejected, nothing changes and
	// an InsufficientStockError names the first failing line.
	Reserve(ctx context.Context, lines []domain.StockLine) error
	// Release increments stock by the given line quantities. The caller
	// guarantees a single release per order via the terminal-state CAS.
	Release(ctx context.Context, lines []domain.StockLine) error
}

// InMemoryProductRepository keeps the catalog in a map guarded by a single
// mutex, which makes Reserve a serialized all-or-nothing unit.
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*domain.Product
}

func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
	}
}

func (r *InMemoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *product
	r.products[product.ID] = &copy
	return nil
}

func (r *InMemoryProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[product.ID]; !exists {
		return domain.ErrProductNotFound
	}
	copy := *product
	copy.UpdatedAt = time.Now()
	copy.Version++
	r.products[product.ID] = &copy
	return nil
}

func (r *InMemoryProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, exists := r.products[id]
	if !exists {
		return nil, domain.ErrProductNotFound
	}
	copy := *product
	return &copy, nil
}

func (r *InMemoryProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, product := range r.products {
		if strings.EqualFold(product.Name, name) {
			copy := *product
			return &copy, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (r *InMemoryProductRepository) List(ctx context.Context, nameFilter string, page, pageSize int) ([]domain.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := make([]domain.Product, 0, len(r.products))
	for _, product := range r.products {
		if nameFilter != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(nameFilter)) {
			continue
		}
		filtered = append(filtered, *product)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	start := (page - 1) * pageSize
	if start >= total {
		return []domain.Product{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (r *InMemoryProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[id]; !exists {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *InMemoryProductRepository) Reserve(ctx context.Context, lines []domain.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check the whole batch before touching anything.
	for _, line := range lines {
		product, exists := r.products[line.ProductID]
		if !exists {
			return domain.ErrProductNotFound
		}
		if product.Stock < line.Quantity {
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Available: product.Stock,
				Requested: line.Quantity,
			}
		}
	}

	for _, line := range lines {
		product := r.products[line.ProductID]
		product.Stock -= line.Quantity
		product.UpdatedAt = time.Now()
		product.Version++
	}
	return nil
}

func (r *InMemoryProductRepository) Release(ctx context.Context, lines []domain.StockLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range lines {
		product, exists := r.products[line.ProductID]
		if !exists {
			// Product deleted after the order was created; nothing to restore.
			continue
		}
		product.Stock += line.Quantity
		product.UpdatedAt = time.Now()
		product.Version++
	}
	return nil
}
