package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tienda-escolar/shop-service/internal/clients"
	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/logging"
	"github.com/tienda-escolar/shop-service/internal/metrics"
	"github.com/tienda-escolar/shop-service/internal/models"
)

// PaymentService bridges the external payment provider to the order
// lifecycle. Webhook handling is acknowledge-always: any failure after
// receipt is logged and swallowed so the provider never retries into a
// storm, and out-of-order or duplicate callbacks land as no-ops.
type PaymentService struct {
	orders   *OrderService
	provider clients.PaymentProviderClient
	metrics  *metrics.Metrics
	cfg      *config.Config
	logger   *logging.Logger
}

func NewPaymentService(orders *OrderService, provider clients.PaymentProviderClient, m *metrics.Metrics, cfg *config.Config) *PaymentService {
	return &PaymentService{
		orders:   orders,
		provider: provider,
		metrics:  m,
		cfg:      cfg,
		logger:   logging.New("payment-service"),
	}
}

// CreatePreference opens a provider checkout session for a pending
// order. Only the order's owner may start one, and a paid order can
// not be paid again.
func (s *PaymentService) CreatePreference(ctx context.Context, caller models.Identity, orderID string) (*clients.Preference, error) {
	order, err := s.orders.GetOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	if order.Paid {
		return nil, errs.ErrAlreadyPaid
	}

	items := make([]clients.PreferenceItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, clients.PreferenceItem{
			ID:         item.ProductID,
			Title:      item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			CurrencyID: s.cfg.Store.Currency,
			PictureURL: item.Image,
		})
	}
	if order.ShippingTotal > 0 {
		items = append(items, clients.PreferenceItem{
			ID:         "shipping",
			Title:      "Envío",
			Quantity:   1,
			UnitPrice:  order.ShippingTotal,
			CurrencyID: s.cfg.Store.Currency,
		})
	}

	req := &clients.PreferenceRequest{
		Items:             items,
		PayerEmail:        order.BuyerEmail,
		ExternalReference: order.ID,
		BackURLs: map[string]string{
			"success": fmt.Sprintf("%s/orders/%s", s.cfg.Store.FrontendURL, order.ID),
			"failure": fmt.Sprintf("%s/orders/%s", s.cfg.Store.FrontendURL, order.ID),
			"pending": fmt.Sprintf("%s/orders/%s", s.cfg.Store.FrontendURL, order.ID),
		},
		NotificationURL: fmt.Sprintf("%s/api/payments/webhook", s.cfg.Store.BackendURL),
	}

	pref, err := s.provider.CreatePreference(ctx, req)
	if err != nil {
		s.logger.Error("Failed to create payment preference", logging.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Payment preference created", logging.Fields{
		"order_id":      orderID,
		"preference_id": pref.ID,
	})
	return pref, nil
}

// ConfirmFromProvider resolves a provider payment ID against the
// provider's API and, when approved, marks the referenced order paid.
// Every outcome returns nil so the caller always acknowledges.
func (s *PaymentService) ConfirmFromProvider(ctx context.Context, providerPaymentID string) error {
	payment, err := s.provider.GetPayment(ctx, providerPaymentID)
	if err != nil {
		s.metrics.PaymentWebhooks.WithLabelValues("lookup_failed").Inc()
		s.logger.Error("Payment lookup failed, acknowledging anyway", logging.Fields{
			"provider_payment_id": providerPaymentID,
			"error":               err.Error(),
		})
		return nil
	}

	if payment.Status != clients.PaymentStatusApproved {
		s.metrics.PaymentWebhooks.WithLabelValues("not_approved").Inc()
		s.logger.Info("Ignoring non-approved payment callback", logging.Fields{
			"provider_payment_id": providerPaymentID,
			"status":              payment.Status,
		})
		return nil
	}

	orderID := payment.ExternalReference
	if orderID == "" {
		s.metrics.PaymentWebhooks.WithLabelValues("no_reference").Inc()
		s.logger.Warn("Approved payment carries no order reference", logging.Fields{
			"provider_payment_id": providerPaymentID,
		})
		return nil
	}

	result := &models.PaymentResult{
		ProviderID: payment.ID,
		Status:     payment.Status,
		UpdateTime: payment.DateLastUpdated,
		PayerEmail: payment.PayerEmail,
	}

	_, err = s.orders.MarkPaid(ctx, orderID, result, true)
	switch {
	case err == nil:
		s.metrics.PaymentWebhooks.WithLabelValues("confirmed").Inc()
		s.logger.Info("Payment confirmed from provider", logging.Fields{
			"order_id":            orderID,
			"provider_payment_id": providerPaymentID,
		})
	case errors.Is(err, errs.ErrAlreadyPaid):
		s.metrics.PaymentWebhooks.WithLabelValues("duplicate").Inc()
		s.logger.Info("Duplicate payment callback, order already paid", logging.Fields{
			"order_id":            orderID,
			"provider_payment_id": providerPaymentID,
		})
	case errors.Is(err, errs.ErrNotFound):
		s.metrics.PaymentWebhooks.WithLabelValues("unknown_order").Inc()
		s.logger.Warn("Approved payment references unknown order", logging.Fields{
			"order_id":            orderID,
			"provider_payment_id": providerPaymentID,
		})
	default:
		s.metrics.PaymentWebhooks.WithLabelValues("failed").Inc()
		s.logger.Error("Failed to mark order paid, acknowledging anyway", logging.Fields{
			"order_id":            orderID,
			"provider_payment_id": providerPaymentID,
			"error":               err.Error(),
		})
	}
	return nil
}
