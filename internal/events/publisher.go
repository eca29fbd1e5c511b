package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
}

// Order lifecycle events
type OrderCreatedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	LineCount  int       `json:"line_count"`
	Total      int64     `json:"total"`
	ExpiresAt  time.Time `json:"expires_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

type OrderPaidEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	Total      int64     `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

type OrderCancelledEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type OrderExpiredEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Stock events
type StockReservedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	Lines      int       `json:"lines"`
	Units      int       `json:"units"`
	OccurredAt time.Time `json:"occurred_at"`
}

type StockReleasedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	Lines      int       `json:"lines"`
	Units      int       `json:"units"`
	OccurredAt time.Time `json:"occurred_at"`
}

// InMemoryEventPublisher records events locally. Used as a fallback when the
// broker is unreachable and as a probe in tests.
type InMemoryEventPublisher struct {
	logger *zap.Logger
	mu     sync.Mutex
	events []interface{}
}

func NewEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		logger: zap.NewNop(),
		events: make([]interface{}, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.logger.Info("Event published (in-memory)", zap.Any("event", event))
	return nil
}

// Events returns a snapshot of everything published so far.
func (p *InMemoryEventPublisher) Events() []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]interface{}(nil), p.events...)
}
