package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/logging"
	"github.com/tienda-escolar/shop-service/internal/models"
)

var _ ProductRepository = (*PostgresProductRepository)(nil)

// PostgresProductRepository implements ProductRepository on PostgreSQL.
type PostgresProductRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logging.Logger) *PostgresProductRepository {
	return &PostgresProductRepository{db: db, logger: logger}
}

const productColumns = `id, name, sku, description, base_price, wholesale_tiers, stock, image, active, created_at, updated_at`

// GetByID retrieves a product by its identifier.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch product", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return product, nil
}

// ListActive returns all products visible to buyers.
func (r *PostgresProductRepository) ListActive(ctx context.Context) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active ORDER BY name`
	return r.queryProducts(ctx, query)
}

// ListLowStock returns products at or below the threshold, lowest stock
// first.
func (r *PostgresProductRepository) ListLowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active AND stock <= $1 ORDER BY stock`
	return r.queryProducts(ctx, query, threshold)
}

// SetStock sets an absolute stock value (admin operation).
func (r *PostgresProductRepository) SetStock(ctx context.Context, id string, stock int) error {
	query := `UPDATE products SET stock = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, stock, time.Now())
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errs.ErrNotFound
	}

	r.logger.Info("Product stock set", logging.Fields{
		"product_id": id,
		"stock":      stock,
	})
	return nil
}

// SetActive toggles a product's public visibility.
func (r *PostgresProductRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE products SET active = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, active, time.Now())
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DecrementStock subtracts qty in a single conditional update. The WHERE
// clause is the stock check: zero rows affected means the product is
// missing or the stock does not cover qty, and a follow-up read tells the
// two apart.
func (r *PostgresProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	return decrementStock(ctx, r.db, id, qty)
}

// IncrementStock returns qty units to the product's stock.
func (r *PostgresProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	query := `UPDATE products SET stock = stock + $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, qty, time.Now())
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errs.ErrNotFound
	}

	r.logger.Info("Stock reintegrated", logging.Fields{
		"product_id": id,
		"quantity":   qty,
	})
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so stock mutations can
// run inside the checkout transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func decrementStock(ctx context.Context, q querier, id string, qty int) error {
	query := `UPDATE products SET stock = stock - $2, updated_at = $3 WHERE id = $1 AND stock >= $2`

	result, err := q.ExecContext(ctx, query, id, qty, time.Now())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var name string
	var stock int
	err = q.QueryRowContext(ctx, `SELECT name, stock FROM products WHERE id = $1`, id).Scan(&name, &stock)
	if err == sql.ErrNoRows {
		return errs.ErrNotFound
	}
	if err != nil {
		return err
	}
	return errs.NewStock(id, name, qty, stock)
}

func (r *PostgresProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var product models.Product
	var tiersJSON []byte
	var description, image sql.NullString

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&description,
		&product.BasePrice,
		&tiersJSON,
		&product.Stock,
		&image,
		&product.Active,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tiersJSON) > 0 {
		if err := json.Unmarshal(tiersJSON, &product.WholesaleTiers); err != nil {
			return nil, err
		}
	}
	if description.Valid {
		product.Description = description.String
	}
	if image.Valid {
		product.Image = image.String
	}
	return &product, nil
}
