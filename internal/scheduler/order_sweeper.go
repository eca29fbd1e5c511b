package scheduler

import (
	"context"
	"time"

	"store-service/internal/service"

	"go.uber.org/zap"
)

const sweepLockKey = "order-expiry-sweep"

// OrderSweeper periodically expires unpaid orders past their deadline and
// releases their reservations. Ticks are independent: a slow or failed tick
// does not block the next one, and the status CAS makes overlapping sweeps
// harmless.
type OrderSweeper struct {
	orders   *service.OrderService
	lock     SweepLock
	logger   *zap.Logger
	interval time.Duration
}

func NewOrderSweeper(orders *service.OrderService, lock SweepLock, logger *zap.Logger, interval time.Duration) *OrderSweeper {
	return &OrderSweeper{
		orders:   orders,
		lock:     lock,
		logger:   logger,
		interval: interval,
	}
}

// Run ticks until the context is cancelled. Blocking; callers run it in its
// own goroutine.
func (s *OrderSweeper) Run(ctx context.Context) {
	s.logger.Info("Order sweeper started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Order sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single tick under the sweep lock.
func (s *OrderSweeper) Sweep(ctx context.Context) {
	if !s.lock.TryLock(ctx, sweepLockKey, s.interval) {
		s.logger.Debug("Another instance is already running the sweep")
		return
	}
	defer s.lock.Unlock(ctx, sweepLockKey)

	start := time.Now()
	expired, units, err := s.orders.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("Sweep failed", zap.Error(err))
		return
	}

	if expired > 0 {
		s.logger.Info("Sweep finished",
			zap.Int("orders_expired", expired),
			zap.Int("units_released", units),
			zap.Duration("took", time.Since(start)),
		)
	}
}
