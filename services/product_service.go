package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopd-io/shopd/domain"
	serrors "github.com/shopd-io/shopd/errors"
	"github.com/shopd-io/shopd/internal/metrics"
)

const (
	defaultPageSize int64 = 20
	maxPageSize     int64 = 100
)

// ProductService implements the product CRUD operations on top of the
// repository, adding field validation and paging bounds.
type ProductService struct {
	repo domain.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo domain.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

func validateProduct(p *domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return serrors.NewInvalidRequest("product name is required")
	}
	if p.Price < 0 {
		return serrors.NewInvalidRequest("price must not be negative")
	}
	if p.Quantity < 0 {
		return serrors.NewInvalidRequest("quantity must not be negative")
	}
	return nil
}

// CreateProduct validates and persists a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	metrics.ProductsCreatedTotal.Inc()
	return nil
}

// GetProduct returns a product by ID, or ErrNotFound.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	if product == nil {
		return nil, serrors.ErrNotFound
	}
	return product, nil
}

// ListProducts returns a page of products and the total count. Limit and
// offset are clamped to sane bounds.
func (s *ProductService) ListProducts(ctx context.Context, limit, offset int64) ([]*domain.Product, int64, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListProducts(ctx, limit, offset)
}

// UpdateProduct validates and updates an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, product)
}

// DeleteProduct removes a product by ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.DeleteProduct(ctx, id)
}
