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

var _ OrderRepository = (*PostgresOrderRepository)(nil)

// PostgresOrderRepository implements OrderRepository on PostgreSQL.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewPostgresOrderRepository(db *sql.DB, logger *logging.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db, logger: logger}
}

const orderColumns = `id, buyer_id, buyer_name, buyer_email, items, shipping_address, payment_method, payment_result,
	items_total, tax_total, shipping_total, grand_total,
	status, paid, paid_at, delivered, delivered_at, created_at, updated_at`

// Create runs the whole checkout in one transaction: decrement stock for
// every line, insert the order, empty the buyer's cart. Stock moves
// first so a conflict aborts before anything else is written; the order
// can never exist without its stock committed.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range order.Items {
		if err := decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			r.logger.Warn("Checkout rolled back on stock", logging.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
				"error":      err.Error(),
			})
			return err
		}
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (
			id, buyer_id, buyer_name, buyer_email, items, shipping_address, payment_method,
			items_total, tax_total, shipping_total, grand_total,
			status, paid, delivered, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = tx.ExecContext(ctx, query,
		order.ID,
		order.BuyerID,
		order.BuyerName,
		order.BuyerEmail,
		itemsJSON,
		addressJSON,
		order.PaymentMethod,
		order.ItemsTotal,
		order.TaxTotal,
		order.ShippingTotal,
		order.GrandTotal,
		order.Status,
		order.Paid,
		order.Delivered,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert order", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return err
	}

	// Emptying, not deleting: the cart row survives the checkout.
	_, err = tx.ExecContext(ctx,
		`UPDATE carts SET items = '[]'::jsonb, updated_at = $2 WHERE buyer_id = $1`,
		order.BuyerID, time.Now())
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	r.logger.Info("Order created", logging.Fields{
		"order_id":    order.ID,
		"buyer_id":    order.BuyerID,
		"grand_total": order.GrandTotal,
	})
	return nil
}

// GetByID retrieves an order by its identifier.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}
	return order, nil
}

// ListByBuyer returns a buyer's orders, newest first.
func (r *PostgresOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, buyerID)
}

// ListAll returns every order, newest first.
func (r *PostgresOrderRepository) ListAll(ctx context.Context) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.queryOrders(ctx, query)
}

// Update persists the order's lifecycle fields.
func (r *PostgresOrderRepository) Update(ctx context.Context, order *models.Order) error {
	var resultJSON []byte
	if order.PaymentResult != nil {
		var err error
		resultJSON, err = json.Marshal(order.PaymentResult)
		if err != nil {
			return err
		}
	}

	query := `
		UPDATE orders
		SET status = $2, paid = $3, paid_at = $4, delivered = $5, delivered_at = $6,
		    payment_result = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.Status,
		order.Paid,
		nullTime(order.PaidAt),
		order.Delivered,
		nullTime(order.DeliveredAt),
		resultJSON,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update order", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// CountByStatus groups order counts by lifecycle status.
func (r *PostgresOrderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.OrderStatus]int)
	for rows.Next() {
		var status models.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// PaidRevenue sums the grand totals of paid orders.
func (r *PostgresOrderRepository) PaidRevenue(ctx context.Context) (float64, error) {
	var revenue float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(grand_total), 0) FROM orders WHERE paid`).Scan(&revenue)
	return revenue, err
}

func (r *PostgresOrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var itemsJSON, addressJSON, resultJSON []byte
	var paidAt, deliveredAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.BuyerID,
		&order.BuyerName,
		&order.BuyerEmail,
		&itemsJSON,
		&addressJSON,
		&order.PaymentMethod,
		&resultJSON,
		&order.ItemsTotal,
		&order.TaxTotal,
		&order.ShippingTotal,
		&order.GrandTotal,
		&order.Status,
		&order.Paid,
		&paidAt,
		&order.Delivered,
		&deliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, err
	}
	if len(resultJSON) > 0 {
		order.PaymentResult = &models.PaymentResult{}
		if err := json.Unmarshal(resultJSON, order.PaymentResult); err != nil {
			return nil, err
		}
	}
	if paidAt.Valid {
		order.PaidAt = &paidAt.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = &deliveredAt.Time
	}
	return &order, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
