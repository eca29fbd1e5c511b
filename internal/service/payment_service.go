package service

import (
	"context"

	"store-service/internal/domain"

	"go.uber.org/zap"
)

// PaymentService models payment as a boolean state transition. It is the
// seam where a real gateway integration would go.
type PaymentService struct {
	logger *zap.Logger
}

func NewPaymentService(logger *zap.Logger) *PaymentService {
	return &PaymentService{logger: logger}
}

// Pay charges the order. The demo implementation always succeeds.
func (s *PaymentService) Pay(ctx context.Context, order *domain.Order) error {
	s.logger.Debug("Processing payment",
		zap.String("order_id", order.ID.String()),
		zap.Int64("amount", order.Total()),
	)
	return nil
}
