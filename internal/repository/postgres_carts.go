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

var _ CartRepository = (*PostgresCartRepository)(nil)

// PostgresCartRepository keeps one cart row per buyer, items as a JSONB
// document. Saves replace the whole document, so concurrent mutations of
// the same cart are last-write-wins.
type PostgresCartRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewPostgresCartRepository(db *sql.DB, logger *logging.Logger) *PostgresCartRepository {
	return &PostgresCartRepository{db: db, logger: logger}
}

// GetByBuyer returns the buyer's cart or errs.ErrNotFound.
func (r *PostgresCartRepository) GetByBuyer(ctx context.Context, buyerID string) (*models.Cart, error) {
	query := `SELECT buyer_id, items, created_at, updated_at FROM carts WHERE buyer_id = $1`

	var cart models.Cart
	var itemsJSON []byte

	err := r.db.QueryRowContext(ctx, query, buyerID).Scan(
		&cart.BuyerID,
		&itemsJSON,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch cart", logging.Fields{
			"buyer_id": buyerID,
			"error":    err.Error(),
		})
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = make([]models.CartItem, 0)
	}
	return &cart, nil
}

// Save upserts the buyer's cart document.
func (r *PostgresCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	items := cart.Items
	if items == nil {
		items = make([]models.CartItem, 0)
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return err
	}

	now := time.Now()
	cart.UpdatedAt = now
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}

	query := `
		INSERT INTO carts (buyer_id, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (buyer_id)
		DO UPDATE SET items = $2, updated_at = $4
	`

	_, err = r.db.ExecContext(ctx, query, cart.BuyerID, itemsJSON, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to save cart", logging.Fields{
			"buyer_id": cart.BuyerID,
			"error":    err.Error(),
		})
		return err
	}
	return nil
}
