package service

import (
	"context"
	"fmt"
	"strings"

	"store-service/internal/domain"
	"store-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog validation errors.
var (
	ErrInvalidProduct = &domain.DomainError{Message: "product name is required and price/stock must be non-negative"}
	ErrDuplicateName  = &domain.DomainError{Message: "product with this name already exists"}
	ErrProductInOrder = &domain.DomainError{Message: "product is referenced by an active order"}
)

// ProductRequest carries the writable catalog fields.
type ProductRequest struct {
	Name      string
	UnitPrice int64
	Stock     int
}

// ProductService implements plain catalog CRUD. Stock set here is an
// administrative override; order-driven stock changes go through the
// reservation paths only.
type ProductService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	logger   *zap.Logger
}

func NewProductService(products repository.ProductRepository, orders repository.OrderRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		orders:   orders,
		logger:   logger,
	}
}

// ListProducts returns a page of products, optionally filtered by name.
func (s *ProductService) ListProducts(ctx context.Context, nameFilter string, page, pageSize int) ([]domain.Product, int, error) {
	return s.products.List(ctx, nameFilter, page, pageSize)
}

// GetProduct fetches a single product.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// CreateProduct adds a new product. Names are unique across the catalog.
func (s *ProductService) CreateProduct(ctx context.Context, req ProductRequest) (*domain.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	if _, err := s.products.FindByName(ctx, req.Name); err == nil {
		s.logger.Warn("Product name already exists", zap.String("name", req.Name))
		return nil, ErrDuplicateName
	} else if err != domain.ErrProductNotFound {
		return nil, err
	}

	product := domain.NewProduct(strings.TrimSpace(req.Name), req.UnitPrice, req.Stock)
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
		zap.Int("stock", product.Stock),
	)
	return product, nil
}

// UpdateProduct overwrites name, price and stock of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*domain.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing, err := s.products.FindByName(ctx, req.Name); err == nil && existing.ID != id {
		return nil, ErrDuplicateName
	} else if err != nil && err != domain.ErrProductNotFound {
		return nil, err
	}

	product.Name = strings.TrimSpace(req.Name)
	product.UnitPrice = req.UnitPrice
	product.Stock = req.Stock
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product updated",
		zap.String("product_id", id.String()),
		zap.String("name", product.Name),
	)
	return product, nil
}

// DeleteProduct removes a product unless it is still referenced by an order
// in CREATED state, whose release would otherwise have nothing to restore.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	active, err := s.orders.ProductInActiveOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check active orders: %w", err)
	}
	if active {
		return nil, ErrProductInOrder
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("Product deleted",
		zap.String("product_id", id.String()),
		zap.String("name", product.Name),
	)
	return product, nil
}

func validateProduct(req ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" || req.UnitPrice < 0 || req.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}
