package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tienda-escolar/shop-service/internal/clients"
	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/events"
	"github.com/tienda-escolar/shop-service/internal/logging"
	"github.com/tienda-escolar/shop-service/internal/metrics"
	"github.com/tienda-escolar/shop-service/internal/models"
	"github.com/tienda-escolar/shop-service/internal/repository"
)

// OrderService drives the order lifecycle: checkout, payment marking,
// delivery and status transitions. Transition legality lives on the
// model; this service adds the side effects around it, stock movement,
// cache invalidation, events and buyer notifications.
type OrderService struct {
	orders   repository.OrderRepository
	carts    repository.CartRepository
	products repository.ProductRepository
	cache    repository.OrderCache
	notifier clients.EmailSender
	events   events.OrderEventPublisher
	metrics  *metrics.Metrics
	cfg      *config.Config
	logger   *logging.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
	cache repository.OrderCache,
	notifier clients.EmailSender,
	publisher events.OrderEventPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		products: products,
		cache:    cache,
		notifier: notifier,
		events:   publisher,
		metrics:  m,
		cfg:      cfg,
		logger:   logging.New("order-service"),
	}
}

// CreateFromCart turns the buyer's current cart into a pending order.
// Line items and unit prices are snapshotted from the cart; the catalog
// is only consulted to reject inactive products early. Stock is
// decremented inside the same transaction that inserts the order, so a
// concurrent checkout can fail here with a StockError even when the
// cart was added without conflict.
func (s *OrderService) CreateFromCart(ctx context.Context, buyer models.Identity, in CreateOrderInput) (*models.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetByBuyer(ctx, buyer.BuyerID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, errs.ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s is no longer in the catalog",
					errs.ErrNotFound, line.ProductID)
			}
			return nil, err
		}
		if !product.Active {
			return nil, errs.NewValidation("items",
				fmt.Sprintf("product %s is no longer available", product.Name))
		}
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Image:     line.Image,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	now := time.Now()
	order := &models.Order{
		ID:              "ord_" + uuid.New().String(),
		BuyerID:         buyer.BuyerID,
		BuyerName:       buyer.Name,
		BuyerEmail:      buyer.Email,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsTotal:      cart.Total(),
		TaxTotal:        in.TaxTotal,
		ShippingTotal:   in.ShippingTotal,
		GrandTotal:      cart.Total() + in.TaxTotal + in.ShippingTotal,
		Status:          models.StatusPendingPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errs.IsStock(err) {
			s.metrics.StockConflicts.Inc()
		}
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	s.invalidateCache(order)
	s.publish(func(ctx context.Context) error {
		return s.events.PublishOrderCreated(ctx, order)
	}, order.ID)
	s.notify(order, "Recibimos tu pedido",
		fmt.Sprintf("Tu pedido %s fue registrado por %s %.2f. Te avisamos cuando se acredite el pago.",
			order.ID, s.cfg.Store.Currency, order.GrandTotal))

	s.logger.Info("Order created from cart", logging.Fields{
		"order_id":    order.ID,
		"buyer_id":    buyer.BuyerID,
		"items":       len(order.Items),
		"grand_total": order.GrandTotal,
	})
	return order, nil
}

// GetOrder returns the order if the caller owns it or is an admin.
func (s *OrderService) GetOrder(ctx context.Context, caller models.Identity, orderID string) (*models.Order, error) {
	if s.cfg.Features.EnableOrderCaching {
		if cached, err := s.cache.Get(ctx, orderID); err == nil && cached != nil {
			if err := s.authorize(caller, cached); err != nil {
				return nil, err
			}
			return cached, nil
		}
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, order); err != nil {
		return nil, err
	}

	if s.cfg.Features.EnableOrderCaching {
		if err := s.cache.Set(ctx, order); err != nil {
			s.logger.Warn("Failed to cache order", logging.Fields{
				"order_id": orderID,
				"error":    err.Error(),
			})
		}
	}
	return order, nil
}

// ListMine returns the caller's own orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, caller models.Identity) ([]*models.Order, error) {
	if s.cfg.Features.EnableOrderCaching {
		if cached, err := s.cache.GetByBuyer(ctx, caller.BuyerID); err == nil && cached != nil {
			return cached, nil
		}
	}

	orders, err := s.orders.ListByBuyer(ctx, caller.BuyerID)
	if err != nil {
		return nil, err
	}

	if s.cfg.Features.EnableOrderCaching {
		if err := s.cache.SetByBuyer(ctx, caller.BuyerID, orders); err != nil {
			s.logger.Warn("Failed to cache buyer orders", logging.Fields{
				"buyer_id": caller.BuyerID,
				"error":    err.Error(),
			})
		}
	}
	return orders, nil
}

// ListAll returns every order. Callers must already be authorized as
// admins; the service does not re-check here.
func (s *OrderService) ListAll(ctx context.Context) ([]*models.Order, error) {
	return s.orders.ListAll(ctx)
}

// MarkPaid records a confirmed payment on the order. The call is
// idempotent at the caller's discretion: an already-paid order returns
// errs.ErrAlreadyPaid and changes nothing. With forceProcessing the
// order is moved to processing regardless of its previous non-terminal
// status; payment confirmations arriving after a payment_failed mark
// recover the order this way.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string, result *models.PaymentResult, forceProcessing bool) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.StatusCancelled {
		// A payment landing after cancellation must not resurrect the
		// order; the operator reconciles the charge out of band.
		return nil, errs.ErrInvalidTransition
	}

	now := time.Now()
	if err := order.MarkPaid(result, now); err != nil {
		return order, err
	}
	if forceProcessing && order.Status != models.StatusProcessing && !order.Status.Terminal() {
		order.Status = models.StatusProcessing
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.metrics.OrdersPaid.Inc()
	s.invalidateCache(order)
	s.publish(func(ctx context.Context) error {
		return s.events.PublishOrderPaid(ctx, order)
	}, order.ID)
	s.notify(order, "Pago acreditado",
		fmt.Sprintf("El pago de tu pedido %s fue acreditado. Ya lo estamos preparando.", order.ID))

	s.logger.Info("Order marked paid", logging.Fields{
		"order_id": order.ID,
		"status":   string(order.Status),
	})
	return order, nil
}

// MarkDelivered flags a paid order as handed to the buyer.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if err := order.MarkDelivered(time.Now()); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.invalidateCache(order)
	s.publish(func(ctx context.Context) error {
		return s.events.PublishOrderStatusChanged(ctx, order, previous)
	}, order.ID)
	s.notify(order, "Pedido entregado",
		fmt.Sprintf("Tu pedido %s fue entregado. Gracias por tu compra.", order.ID))

	return order, nil
}

// SetStatus moves the order to target, applying the side effects the
// transition demands. Cancelling puts every line's quantity back in the
// catalog, since checkout committed it; a line whose product has since
// disappeared is logged and skipped rather than blocking the
// cancellation.
func (s *OrderService) SetStatus(ctx context.Context, orderID string, target models.OrderStatus) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	reintegrate, err := order.Transition(target, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	if reintegrate {
		s.reintegrateStock(ctx, order)
	}

	s.invalidateCache(order)
	switch target {
	case models.StatusCancelled:
		s.metrics.OrdersCancelled.Inc()
		s.publish(func(ctx context.Context) error {
			return s.events.PublishOrderCancelled(ctx, order)
		}, order.ID)
		s.notify(order, "Pedido cancelado",
			fmt.Sprintf("Tu pedido %s fue cancelado.", order.ID))
	default:
		s.publish(func(ctx context.Context) error {
			return s.events.PublishOrderStatusChanged(ctx, order, previous)
		}, order.ID)
		s.notify(order, "Tu pedido cambió de estado",
			fmt.Sprintf("Tu pedido %s ahora está en estado %s.", order.ID, statusLabel(order.Status)))
	}

	s.logger.Info("Order status changed", logging.Fields{
		"order_id": order.ID,
		"from":     string(previous),
		"to":       string(order.Status),
	})
	return order, nil
}

func (s *OrderService) reintegrateStock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			// A deleted product cannot take its stock back; the
			// cancellation stands either way.
			s.logger.Warn("Failed to reintegrate stock", logging.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
				"error":      err.Error(),
			})
		}
	}
}

func (s *OrderService) authorize(caller models.Identity, order *models.Order) error {
	if caller.IsAdmin() || caller.BuyerID == order.BuyerID {
		return nil
	}
	return errs.ErrForbidden
}

func (s *OrderService) invalidateCache(order *models.Order) {
	if !s.cfg.Features.EnableOrderCaching {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, order.ID); err != nil {
		s.logger.Warn("Failed to invalidate order cache", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
	if err := s.cache.InvalidateByBuyer(ctx, order.BuyerID); err != nil {
		s.logger.Warn("Failed to invalidate buyer cache", logging.Fields{
			"buyer_id": order.BuyerID,
			"error":    err.Error(),
		})
	}
}

// publish sends an order event without letting broker trouble surface
// to the caller.
func (s *OrderService) publish(fn func(context.Context) error, orderID string) {
	if !s.cfg.Features.EnableOrderEvents {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.logger.Warn("Failed to publish order event", logging.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		})
	}
}

// notify emails the buyer in the background. Notification failures are
// logged and never affect the order.
func (s *OrderService) notify(order *models.Order, subject, body string) {
	if order.BuyerEmail == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.notifier.SendEmail(ctx, &clients.SendEmailRequest{
			To:      order.BuyerEmail,
			Subject: fmt.Sprintf("%s - %s", s.cfg.Store.Name, subject),
			Body:    body,
		})
		if err != nil {
			s.logger.Warn("Failed to send order notification", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}()
}

func statusLabel(status models.OrderStatus) string {
	switch status {
	case models.StatusPendingPayment:
		return "pendiente de pago"
	case models.StatusProcessing:
		return "en preparación"
	case models.StatusShipped:
		return "enviado"
	case models.StatusDelivered:
		return "entregado"
	case models.StatusCancelled:
		return "cancelado"
	case models.StatusPaymentFailed:
		return "pago rechazado"
	default:
		return string(status)
	}
}
