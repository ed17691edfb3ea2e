package repository

import (
	"context"

	"github.com/tienda-escolar/shop-service/internal/models"
)

// ProductRepository is the catalog store. Stock mutations are atomic at
// the row level; DecrementStock is the only stock-checking write.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	ListActive(ctx context.Context) ([]*models.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]*models.Product, error)
	SetStock(ctx context.Context, id string, stock int) error
	SetActive(ctx context.Context, id string, active bool) error

	// DecrementStock subtracts qty from the product's stock in a single
	// conditional update and fails with a StockError when the remaining
	// stock does not cover qty. Stock can never go negative through this
	// call, even under concurrent checkouts.
	DecrementStock(ctx context.Context, id string, qty int) error

	// IncrementStock returns previously committed stock to the catalog.
	IncrementStock(ctx context.Context, id string, qty int) error
}

// CartRepository persists one cart document per buyer. Writes replace the
// whole document; last write wins under concurrent mutation.
type CartRepository interface {
	// GetByBuyer returns the buyer's cart or errs.ErrNotFound.
	GetByBuyer(ctx context.Context, buyerID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
}

// OrderRepository persists orders and runs the checkout transaction.
type OrderRepository interface {
	// Create inserts the order, decrements stock for every line and
	// empties the buyer's cart in one transaction. Any stock failure
	// rolls the whole checkout back; no order ever exists without its
	// stock committed.
	Create(ctx context.Context, order *models.Order) error

	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*models.Order, error)
	ListAll(ctx context.Context) ([]*models.Order, error)

	// Update persists the order's lifecycle fields.
	Update(ctx context.Context, order *models.Order) error

	CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error)
	PaidRevenue(ctx context.Context) (float64, error)
}

// OrderCache defines the read-through cache in front of OrderRepository.
type OrderCache interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string) error
	GetByBuyer(ctx context.Context, buyerID string) ([]*models.Order, error)
	SetByBuyer(ctx context.Context, buyerID string, orders []*models.Order) error
	InvalidateByBuyer(ctx context.Context, buyerID string) error
}
