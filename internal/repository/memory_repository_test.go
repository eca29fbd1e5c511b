package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"store-service/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func seedProduct(t *testing.T, repo ProductRepository, name string, price int64, stock int) *domain.Product {
	t.Helper()
	product := domain.NewProduct(name, price, stock)
	err := repo.Create(context.Background(), product)
	assert.NoError(t, err)
	return product
}

func TestInMemoryProductCRUD(t *testing.T) {
	repo := NewInMemoryProductRepository()
	ctx := context.Background()

	product := seedProduct(t, repo, "Milk", 249, 10)

	found, err := repo.FindByID(ctx, product.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Milk", found.Name)
	assert.Equal(t, int64(249), found.UnitPrice)
	assert.Equal(t, 10, found.Stock)

	found.Name = "Whole Milk"
	err = repo.Update(ctx, found)
	assert.NoError(t, err)

	byName, err := repo.FindByName(ctx, "whole milk")
	assert.NoError(t, err)
	assert.Equal(t, product.ID, byName.ID)

	err = repo.Delete(ctx, product.ID)
	assert.NoError(t, err)

	_, err = repo.FindByID(ctx, product.ID)
	assert.Equal(t, domain.ErrProductNotFound, err)
}

func TestInMemoryProductList(t *testing.T) {
	repo := NewInMemoryProductRepository()
	ctx := context.Background()

	seedProduct(t, repo, "Milk", 249, 10)
	seedProduct(t, repo, "Almond Milk", 399, 5)
	seedProduct(t, repo, "Bread", 120, 8)

	all, total, err := repo.List(ctx, "", 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	milk, total, err := repo.List(ctx, "milk", 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, milk, 2)

	page, total, err := repo.List(ctx, "", 2, 2)
	assert.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 1)
}

func TestReserveDecrementsWholeBatch(t *testing.T) {
	repo := NewInMemoryProductRepository()
	ctx := context.Background()

	milk := seedProduct(t, repo, "Milk", 249, 10)
	bread := seedProduct(t, repo, "Bread", 120, 8)

	err := repo.Reserve(ctx, []domain.StockLine{
		{ProductID: milk.ID, Quantity: 4},
		{ProductID: bread.ID, Quantity: 3},
	})
	assert.NoError(t, err)

	m, _ := repo.FindByID(ctx, milk.ID)
	b, _ := repo.FindByID(ctx, bread.ID)
	assert.Equal(t, 6, m.Stock)
	assert.Equal(t, 5, b.Stock)
}

func TestReserveShortLineLeavesBatchUntouched(t *testing.T) {
	repo := NewInMemoryProductRepository()
	ctx := context.Background()

	milk := seedProduct(t, repo, "Milk", 249, 10)
	bread := seedProduct(t, repo, "Bread", 120, 2)

	err := repo.Reserve(ctx, []domain.StockLine{
		{ProductID: milk.ID, Quantity: 4},
		{ProductID: bread.ID, Quantity: 3},
	})

	var short *domain.InsufficientStockError
	assert.ErrorAs(t, err, &short)
	assert.Equal(t, bread.ID, short.ProductID)
	assert.Equal(t, 2, short.Available)
	assert.Equal(t, 3, short.Requested)

	// The milk line must not have been decremented.
	m, _ := repo.FindByID(ctx, milk.ID)
	b, _ := repo.FindByID(ctx, bread.ID)
	assert.Equal(t, 10, m.Stock)
	assert.Equal(t, 2, b.Stock)
}

func TestReserveUnknownProduct(t *testing.T) {
	repo := NewInMemoryProductRepository()

	err := repo.Reserve(context.Background(), []domain.StockLine{
		{ProductID: uuid.New(), Quantity: 1},
	})

	assert.Equal(t, domain.ErrProductNotFound, err)
}

func TestConcurrentReserveNeverOversells(t *testing.T) {
	repo := NewInMemoryProductRepository()
	ctx := context.Background()

	product := seedProduct(t, repo, "Milk", 249, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Reserve(ctx, []domain.StockLine{{ProductID: product.ID, Quantity: 2}})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	p, _ := repo.FindByID(ctx, product.ID)
	assert.Equal(t, 1, p.Stock)
}

func TestReleaseRestoresStock(t *testing.T) {
	repo := NewInMemoryProductRepository()
	ctx := context.Background()

	product := seedProduct(t, repo, "Milk", 249, 10)
	lines := []domain.StockLine{{ProductID: product.ID, Quantity: 4}}

	assert.NoError(t, repo.Reserve(ctx, lines))
	assert.NoError(t, repo.Release(ctx, lines))

	p, _ := repo.FindByID(ctx, product.ID)
	assert.Equal(t, 10, p.Stock)
}

func TestReleaseSkipsDeletedProduct(t *testing.T) {
	repo := NewInMemoryProductRepository()
	ctx := context.Background()

	product := seedProduct(t, repo, "Milk", 249, 10)
	assert.NoError(t, repo.Delete(ctx, product.ID))

	err := repo.Release(ctx, []domain.StockLine{{ProductID: product.ID, Quantity: 4}})
	assert.NoError(t, err)
}

func seedOrder(t *testing.T, repo OrderRepository, ttl time.Duration, lines ...domain.OrderLine) *domain.Order {
	t.Helper()
	if len(lines) == 0 {
		lines = []domain.OrderLine{
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "Milk", UnitPrice: 249, Quantity: 2},
		}
	}
	order := domain.NewOrder(lines, ttl)
	err := repo.Create(context.Background(), order)
	assert.NoError(t, err)
	return order
}

func TestInMemoryOrderCreateAndFind(t *testing.T) {
	repo := NewInMemoryOrderRepository()
	ctx := context.Background()

	order := seedOrder(t, repo, 15*time.Minute)

	found, err := repo.FindByID(ctx, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, found.Status)
	assert.Len(t, found.Lines, 1)

	// The repository hands back copies; mutating them must not leak.
	found.Status = domain.StatusPaid
	found.Lines[0].Quantity = 99
	again, _ := repo.FindByID(ctx, order.ID)
	assert.Equal(t, domain.StatusCreated, again.Status)
	assert.Equal(t, 2, again.Lines[0].Quantity)
}

func TestInMemoryOrderFindMissing(t *testing.T) {
	repo := NewInMemoryOrderRepository()

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.Equal(t, domain.ErrOrderNotFound, err)
}

func TestUpdateStatusCAS(t *testing.T) {
	repo := NewInMemoryOrderRepository()
	ctx := context.Background()

	order := seedOrder(t, repo, 15*time.Minute)

	now := time.Now()
	err := repo.UpdateStatus(ctx, order.ID, domain.StatusCreated, domain.StatusPaid, &now)
	assert.NoError(t, err)

	found, _ := repo.FindByID(ctx, order.ID)
	assert.Equal(t, domain.StatusPaid, found.Status)
	assert.NotNil(t, found.PaidAt)

	// Second transition from CREATED loses the swap.
	err = repo.UpdateStatus(ctx, order.ID, domain.StatusCreated, domain.StatusCancelled, nil)
	assert.Equal(t, domain.ErrStatusConflict, err)

	found, _ = repo.FindByID(ctx, order.ID)
	assert.Equal(t, domain.StatusPaid, found.Status)
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	repo := NewInMemoryOrderRepository()

	err := repo.UpdateStatus(context.Background(), uuid.New(), domain.StatusCreated, domain.StatusPaid, nil)

	assert.Equal(t, domain.ErrOrderNotFound, err)
}

func TestConcurrentCASHasSingleWinner(t *testing.T) {
	repo := NewInMemoryOrderRepository()
	ctx := context.Background()

	order := seedOrder(t, repo, 15*time.Minute)

	targets := []domain.OrderStatus{domain.StatusPaid, domain.StatusCancelled, domain.StatusExpired}
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for _, to := range targets {
		wg.Add(1)
		go func(to domain.OrderStatus) {
			defer wg.Done()
			if err := repo.UpdateStatus(ctx, order.ID, domain.StatusCreated, to, nil); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(to)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	found, _ := repo.FindByID(ctx, order.ID)
	assert.True(t, found.Status.Terminal())
}

func TestFindExpiredFiltersStatusAndDeadline(t *testing.T) {
	repo := NewInMemoryOrderRepository()
	ctx := context.Background()

	past := seedOrder(t, repo, -time.Minute)
	seedOrder(t, repo, 15*time.Minute)
	paid := seedOrder(t, repo, -time.Minute)
	now := time.Now()
	assert.NoError(t, repo.UpdateStatus(ctx, paid.ID, domain.StatusCreated, domain.StatusPaid, &now))

	expired, err := repo.FindExpired(ctx, time.Now())
	assert.NoError(t, err)
	assert.Len(t, expired, 1)
	assert.Equal(t, past.ID, expired[0].ID)
}

func TestProductInActiveOrder(t *testing.T) {
	repo := NewInMemoryOrderRepository()
	ctx := context.Background()

	productID := uuid.New()
	order := seedOrder(t, repo, 15*time.Minute, domain.OrderLine{
		ID: uuid.New(), ProductID: productID, ProductName: "Milk", UnitPrice: 249, Quantity: 1,
	})

	active, err := repo.ProductInActiveOrder(ctx, productID)
	assert.NoError(t, err)
	assert.True(t, active)

	active, err = repo.ProductInActiveOrder(ctx, uuid.New())
	assert.NoError(t, err)
	assert.False(t, active)

	// Terminal orders no longer hold the product.
	assert.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.StatusCreated, domain.StatusCancelled, nil))
	active, err = repo.ProductInActiveOrder(ctx, productID)
	assert.NoError(t, err)
	assert.False(t, active)
}

func TestInMemoryOrderList(t *testing.T) {
	repo := NewInMemoryOrderRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedOrder(t, repo, 15*time.Minute)
	}

	page, total, err := repo.List(ctx, 1, 3)
	assert.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 3)

	page, total, err = repo.List(ctx, 2, 3)
	assert.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)
}
