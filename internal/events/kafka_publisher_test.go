package events

import (
	"context"
	"testing"
	"time"

	"store-service/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testPublisher() *KafkaEventPublisher {
	return &KafkaEventPublisher{
		logger: zap.NewNop(),
		config: &config.Config{
			KafkaTopicOrders: "store.orders",
			KafkaTopicStock:  "store.stock",
		},
	}
}

func TestGetEventTypeAllTypes(t *testing.T) {
	publisher := testPublisher()

	testCases := []struct {
		name     string
		event    interface{}
		expected string
	}{
		{"OrderCreated", OrderCreatedEvent{}, "OrderCreated"},
		{"OrderPaid", OrderPaidEvent{}, "OrderPaid"},
		{"OrderCancelled", OrderCancelledEvent{}, "OrderCancelled"},
		{"OrderExpired", OrderExpiredEvent{}, "OrderExpired"},
		{"StockReserved", StockReservedEvent{}, "StockReserved"},
		{"StockReleased", StockReleasedEvent{}, "StockReleased"},
		{"Unknown", "unknown", "Unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, publisher.getEventType(tc.event))
		})
	}
}

func TestGetTopicForEventAllTypes(t *testing.T) {
	publisher := testPublisher()

	testCases := []struct {
		name        string
		event       interface{}
		expected    string
		expectError bool
	}{
		{"OrderCreated", OrderCreatedEvent{}, "store.orders", false},
		{"OrderPaid", OrderPaidEvent{}, "store.orders", false},
		{"OrderCancelled", OrderCancelledEvent{}, "store.orders", false},
		{"OrderExpired", OrderExpiredEvent{}, "store.orders", false},
		{"StockReserved", StockReservedEvent{}, "store.stock", false},
		{"StockReleased", StockReleasedEvent{}, "store.stock", false},
		{"Unknown", "unknown", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			topic, err := publisher.getTopicForEvent(tc.event)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, topic)
			}
		})
	}
}

func TestGetPartitionKeyIsOrderID(t *testing.T) {
	publisher := testPublisher()
	orderID := uuid.New()

	assert.Equal(t, orderID.String(), publisher.getPartitionKey(OrderCreatedEvent{OrderID: orderID}))
	assert.Equal(t, orderID.String(), publisher.getPartitionKey(StockReleasedEvent{OrderID: orderID}))
	assert.Equal(t, "", publisher.getPartitionKey("unknown"))
}

func TestInMemoryPublisherRecordsEvents(t *testing.T) {
	publisher := NewEventPublisher()

	event := OrderCreatedEvent{
		OrderID:    uuid.New(),
		LineCount:  2,
		Total:      987,
		ExpiresAt:  time.Now().Add(15 * time.Minute),
		OccurredAt: time.Now(),
	}

	assert.NoError(t, publisher.Publish(context.Background(), event))
	recorded := publisher.Events()
	assert.Len(t, recorded, 1)
	assert.Equal(t, event, recorded[0])
}
