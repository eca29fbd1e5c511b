package service

import (
	"context"
	"fmt"
	"time"

	"store-service/internal/domain"
	"store-service/internal/events"
	"store-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService orchestrates the order lifecycle: reservation plus order
// creation, the pay/cancel transitions and the expiry sweep. All terminal
// transitions go through the order store's compare-and-swap, so concurrent
// pay, cancel and expire attempts on the same order resolve to exactly one
// winner and stock is released at most once.
// PaymentProcessor charges an order before it transitions to PAID.
type PaymentProcessor interface {
	Pay(ctx context.Context, order *domain.Order) error
}

type OrderService struct {
	products  repository.ProductRepository
	orders    repository.OrderRepository
	payments  PaymentProcessor
	publisher events.EventPublisher
	logger    *zap.Logger
	ttl       time.Duration
}

func NewOrderService(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	payments PaymentProcessor,
	publisher events.EventPublisher,
	logger *zap.Logger,
	ttl time.Duration,
) *OrderService {
	return &OrderService{
		products:  products,
		orders:    orders,
		payments:  payments,
		publisher: publisher,
		logger:    logger,
		ttl:       ttl,
	}
}

// CreateOrder reserves stock for the requested lines and persists a new
// CREATED order with name/price snapshots. This is the only path that
// decrements stock. On InsufficientStock nothing is written anywhere.
func (s *OrderService) CreateOrder(ctx context.Context, lines []domain.StockLine) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, domain.ErrEmptyOrder
		}
	}

	// Repeated product ids in one request collapse into a single larger line.
	merged := mergeLines(lines)

	// Snapshot names and prices before reserving; existence is validated here.
	orderLines := make([]domain.OrderLine, 0, len(merged))
	for _, line := range merged {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		orderLines = append(orderLines, domain.OrderLine{
			ID:          uuid.New(),
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.UnitPrice,
			Quantity:    line.Quantity,
		})
	}

	if err := s.products.Reserve(ctx, merged); err != nil {
		return nil, err
	}

	order := domain.NewOrder(orderLines, s.ttl)
	if err := s.orders.Create(ctx, order); err != nil {
		// The reservation would leak without the order record holding it.
		if relErr := s.products.Release(ctx, merged); relErr != nil {
			s.logger.Error("Failed to roll back reservation",
				zap.String("order_id", order.ID.String()),
				zap.Error(relErr),
			)
		}
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.Int("lines", len(order.Lines)),
		zap.Int64("total", order.Total()),
		zap.Time("expires_at", order.ExpiresAt),
	)

	s.publish(ctx, events.StockReservedEvent{
		OrderID:    order.ID,
		Lines:      len(merged),
		Units:      totalUnits(merged),
		OccurredAt: order.CreatedAt,
	})
	s.publish(ctx, events.OrderCreatedEvent{
		OrderID:    order.ID,
		LineCount:  len(order.Lines),
		Total:      order.Total(),
		ExpiresAt:  order.ExpiresAt,
		OccurredAt: order.CreatedAt,
	})

	return order, nil
}

// GetOrder fetches a single order.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

// ListOrders returns a page of orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, page, pageSize int) ([]domain.Order, int, error) {
	return s.orders.List(ctx, page, pageSize)
}

// PayOrder transitions the order CREATED -> PAID. Payment converts the
// reservation into a committed sale, so no stock is released. A lost race
// reports the precise current state instead of a bare conflict.
func (s *OrderService) PayOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Never charge an order that is already terminal. The CAS below still
	// guards against a transition landing between this check and the swap.
	if order.Status != domain.StatusCreated {
		return nil, statusError(order.Status)
	}

	if err := s.payments.Pay(ctx, order); err != nil {
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	now := time.Now()
	err = s.orders.UpdateStatus(ctx, id, domain.StatusCreated, domain.StatusPaid, &now)
	if err == domain.ErrStatusConflict {
		return nil, s.conflictError(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	order.Status = domain.StatusPaid
	order.PaidAt = &now

	s.logger.Info("Order paid",
		zap.String("order_id", id.String()),
		zap.Int64("total", order.Total()),
	)
	s.publish(ctx, events.OrderPaidEvent{
		OrderID:    id,
		Total:      order.Total(),
		OccurredAt: now,
	})

	return order, nil
}

// CancelOrder transitions the order CREATED -> CANCELLED and restores its
// reserved quantities. The release happens only when this call wins the CAS,
// which is what keeps the release exactly-once.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.orders.UpdateStatus(ctx, id, domain.StatusCreated, domain.StatusCancelled, nil)
	if err == domain.ErrStatusConflict {
		return nil, s.conflictError(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	if err := s.products.Release(ctx, order.StockLines()); err != nil {
		// Put the order back to CREATED so the reservation is not orphaned;
		// the caller can retry and the sweeper will pick it up eventually.
		s.revertTransition(ctx, id, domain.StatusCancelled)
		return nil, fmt.Errorf("failed to release stock for cancelled order %s: %w", id, err)
	}
	order.Status = domain.StatusCancelled

	s.logger.Info("Order cancelled", zap.String("order_id", id.String()))
	s.publish(ctx, events.OrderCancelledEvent{OrderID: id, OccurredAt: time.Now()})
	s.publish(ctx, events.StockReleasedEvent{
		OrderID:    id,
		Lines:      len(order.Lines),
		Units:      totalUnits(order.StockLines()),
		OccurredAt: time.Now(),
	})

	return order, nil
}

// ExpireOrder transitions an order CREATED -> EXPIRED and restores its stock.
// When a concurrent pay or cancel wins the CAS first the transition reports
// ErrStatusConflict and no release happens here.
func (s *OrderService) ExpireOrder(ctx context.Context, order *domain.Order) error {
	err := s.orders.UpdateStatus(ctx, order.ID, domain.StatusCreated, domain.StatusExpired, nil)
	if err != nil {
		return err
	}

	if err := s.products.Release(ctx, order.StockLines()); err != nil {
		// Revert to CREATED so the next sweep retries the release; leaving the
		// order EXPIRED here would strand the reserved units forever.
		s.revertTransition(ctx, order.ID, domain.StatusExpired)
		return fmt.Errorf("failed to release stock for expired order %s: %w", order.ID, err)
	}

	s.logger.Info("Order expired",
		zap.String("order_id", order.ID.String()),
		zap.Time("expired_at", order.ExpiresAt),
	)
	s.publish(ctx, events.OrderExpiredEvent{OrderID: order.ID, OccurredAt: time.Now()})
	s.publish(ctx, events.StockReleasedEvent{
		OrderID:    order.ID,
		Lines:      len(order.Lines),
		Units:      totalUnits(order.StockLines()),
		OccurredAt: time.Now(),
	})

	return nil
}

// SweepExpired expires every CREATED order whose deadline has passed and
// returns how many orders were expired and how many units released. Failures
// on one order do not abort the rest; the order stays CREATED and is retried
// on the next tick.
func (s *OrderService) SweepExpired(ctx context.Context) (int, int, error) {
	expired, err := s.orders.FindExpired(ctx, time.Now())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list expired orders: %w", err)
	}

	var orders, units int
	for i := range expired {
		order := &expired[i]
		if err := s.ExpireOrder(ctx, order); err != nil {
			// A lost CAS means a pay or cancel landed first; nothing to do.
			if err != domain.ErrStatusConflict {
				s.logger.Error("Failed to expire order",
					zap.String("order_id", order.ID.String()),
					zap.Error(err),
				)
			}
			continue
		}
		orders++
		units += totalUnits(order.StockLines())
	}
	return orders, units, nil
}

// revertTransition swaps a just-won terminal status back to CREATED after a
// failed release. The order still owns its reservation, so undoing the
// transition keeps it visible to retries and to the expiry sweep.
func (s *OrderService) revertTransition(ctx context.Context, id uuid.UUID, from domain.OrderStatus) {
	if err := s.orders.UpdateStatus(ctx, id, from, domain.StatusCreated, nil); err != nil {
		s.logger.Error("Failed to revert order transition after release failure",
			zap.String("order_id", id.String()),
			zap.String("from", string(from)),
			zap.Error(err),
		)
	}
}

// conflictError re-reads the order after a lost CAS to report the precise
// reason the transition was rejected.
func (s *OrderService) conflictError(ctx context.Context, id uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return statusError(order.Status)
}

// statusError maps a non-CREATED status to the error naming it.
func statusError(status domain.OrderStatus) error {
	switch status {
	case domain.StatusPaid:
		return domain.ErrAlreadyPaid
	case domain.StatusExpired:
		return domain.ErrOrderExpired
	case domain.StatusCancelled:
		return domain.ErrOrderCancelled
	default:
		return domain.ErrStatusConflict
	}
}

func (s *OrderService) publish(ctx context.Context, event interface{}) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", zap.Error(err))
	}
}

// mergeLines sums quantities of repeated product ids, keeping the position of
// each product's first occurrence.
func mergeLines(lines []domain.StockLine) []domain.StockLine {
	merged := make([]domain.StockLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if i, seen := index[line.ProductID]; seen {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func totalUnits(lines []domain.StockLine) int {
	var units int
	for _, line := range lines {
		units += line.Quantity
	}
	return units
}
