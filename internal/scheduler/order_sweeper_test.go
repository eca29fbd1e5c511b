package scheduler

import (
	"context"
	"testing"
	"time"

	"store-service/internal/domain"
	"store-service/internal/events"
	"store-service/internal/repository"
	"store-service/internal/service"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newSweeperFixture(t *testing.T, ttl time.Duration, interval time.Duration) (*OrderSweeper, *service.OrderService, *repository.InMemoryProductRepository) {
	t.Helper()
	logger := zap.NewNop()
	products := repository.NewInMemoryProductRepository()
	orders := repository.NewInMemoryOrderRepository()
	svc := service.NewOrderService(products, orders, service.NewPaymentService(logger), events.NewEventPublisher(), logger, ttl)
	sweeper := NewOrderSweeper(svc, NewLocalSweepLock(), logger, interval)
	return sweeper, svc, products
}

func TestSweepExpiresOverdueOrders(t *testing.T) {
	sweeper, svc, products := newSweeperFixture(t, -time.Minute, time.Second)
	ctx := context.Background()

	product := domain.NewProduct("Milk", 249, 10)
	assert.NoError(t, products.Create(ctx, product))

	order, err := svc.CreateOrder(ctx, []domain.StockLine{{ProductID: product.ID, Quantity: 4}})
	assert.NoError(t, err)

	sweeper.Sweep(ctx)

	found, err := svc.GetOrder(ctx, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, found.Status)

	restored, _ := products.FindByID(ctx, product.ID)
	assert.Equal(t, 10, restored.Stock)
}

func TestSweepLeavesFreshOrdersAlone(t *testing.T) {
	sweeper, svc, products := newSweeperFixture(t, 15*time.Minute, time.Second)
	ctx := context.Background()

	product := domain.NewProduct("Milk", 249, 10)
	assert.NoError(t, products.Create(ctx, product))

	order, err := svc.CreateOrder(ctx, []domain.StockLine{{ProductID: product.ID, Quantity: 4}})
	assert.NoError(t, err)

	sweeper.Sweep(ctx)

	found, _ := svc.GetOrder(ctx, order.ID)
	assert.Equal(t, domain.StatusCreated, found.Status)
	held, _ := products.FindByID(ctx, product.ID)
	assert.Equal(t, 6, held.Stock)
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	lock := NewLocalSweepLock()
	sweeper, svc, products := newSweeperFixture(t, -time.Minute, time.Second)
	sweeper.lock = lock
	ctx := context.Background()

	product := domain.NewProduct("Milk", 249, 10)
	assert.NoError(t, products.Create(ctx, product))
	order, err := svc.CreateOrder(ctx, []domain.StockLine{{ProductID: product.ID, Quantity: 4}})
	assert.NoError(t, err)

	assert.True(t, lock.TryLock(ctx, sweepLockKey, time.Second))
	sweeper.Sweep(ctx)

	// The lock holder blocked the tick; nothing expired.
	found, _ := svc.GetOrder(ctx, order.ID)
	assert.Equal(t, domain.StatusCreated, found.Status)

	lock.Unlock(ctx, sweepLockKey)
	sweeper.Sweep(ctx)
	found, _ = svc.GetOrder(ctx, order.ID)
	assert.Equal(t, domain.StatusExpired, found.Status)
}

func TestRunTicksUntilCancelled(t *testing.T) {
	sweeper, svc, products := newSweeperFixture(t, -time.Minute, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	product := domain.NewProduct("Milk", 249, 10)
	assert.NoError(t, products.Create(context.Background(), product))
	order, err := svc.CreateOrder(context.Background(), []domain.StockLine{{ProductID: product.ID, Quantity: 4}})
	assert.NoError(t, err)

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		found, err := svc.GetOrder(context.Background(), order.ID)
		return err == nil && found.Status == domain.StatusExpired
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestLocalSweepLock(t *testing.T) {
	lock := NewLocalSweepLock()
	ctx := context.Background()

	assert.True(t, lock.TryLock(ctx, "k", time.Second))
	assert.False(t, lock.TryLock(ctx, "k", time.Second))
	assert.True(t, lock.TryLock(ctx, "other", time.Second))

	lock.Unlock(ctx, "k")
	assert.True(t, lock.TryLock(ctx, "k", time.Second))
}
