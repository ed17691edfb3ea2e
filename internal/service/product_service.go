package service

import (
	"context"

	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/logging"
	"github.com/tienda-escolar/shop-service/internal/models"
	"github.com/tienda-escolar/shop-service/internal/repository"
)

// ProductService exposes catalog reads plus the admin stock controls.
type ProductService struct {
	products repository.ProductRepository
	logger   *logging.Logger
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{
		products: products,
		logger:   logging.New("product-service"),
	}
}

// List returns the active catalog.
func (s *ProductService) List(ctx context.Context) ([]*models.Product, error) {
	return s.products.ListActive(ctx)
}

// Get returns a product by ID, active or not.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

// SetStock replaces a product's stock level.
func (s *ProductService) SetStock(ctx context.Context, id string, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, errs.NewValidation("stock", "stock cannot be negative")
	}
	if err := s.products.SetStock(ctx, id, stock); err != nil {
		return nil, err
	}

	s.logger.Info("Product stock set", logging.Fields{
		"product_id": id,
		"stock":      stock,
	})
	return s.products.GetByID(ctx, id)
}

// SetActive publishes or retires a product. Retired products stay
// resolvable by ID so existing orders keep their references.
func (s *ProductService) SetActive(ctx context.Context, id string, active bool) (*models.Product, error) {
	if err := s.products.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, id)
}
