package models

import (
	"errors"
	"testing"
	"time"

	"github.com/tienda-escolar/shop-service/internal/errs"
)

func pendingOrder() *Order {
	return &Order{
		ID:      "ord_test",
		BuyerID: "buyer_1",
		Items: []OrderItem{
			{ProductID: "prod_1", Name: "Cuaderno", Quantity: 3, UnitPrice: 500},
		},
		Status: StatusPendingPayment,
	}
}

func TestMarkPaid(t *testing.T) {
	now := time.Now()
	order := pendingOrder()
	result := &PaymentResult{ProviderID: "pay_1", Status: "approved"}

	if err := order.MarkPaid(result, now); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if !order.Paid {
		t.Error("Expected paid=true")
	}
	if order.PaidAt == nil || !order.PaidAt.Equal(now) {
		t.Errorf("Expected paidAt=%v, got %v", now, order.PaidAt)
	}
	if order.Status != StatusProcessing {
		t.Errorf("Expected status processing, got %s", order.Status)
	}
	if order.PaymentResult != result {
		t.Error("Expected payment result to be recorded")
	}
}

func TestMarkPaidTwice(t *testing.T) {
	now := time.Now()
	order := pendingOrder()
	if err := order.MarkPaid(nil, now); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	firstPaidAt := *order.PaidAt
	err := order.MarkPaid(nil, now.Add(time.Hour))
	if !errors.Is(err, errs.ErrAlreadyPaid) {
		t.Fatalf("Expected ErrAlreadyPaid, got %v", err)
	}
	if !order.PaidAt.Equal(firstPaidAt) {
		t.Error("Second MarkPaid must not move paidAt")
	}
}

func TestMarkPaidKeepsLaterStatus(t *testing.T) {
	order := pendingOrder()
	order.Status = StatusShipped

	if err := order.MarkPaid(nil, time.Now()); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if order.Status != StatusShipped {
		t.Errorf("Expected status shipped to be kept, got %s", order.Status)
	}
	if !order.Paid {
		t.Error("Expected paid=true")
	}
}

func TestMarkDelivered(t *testing.T) {
	now := time.Now()
	order := pendingOrder()

	if err := order.MarkDelivered(now); !errors.Is(err, errs.ErrNotPaid) {
		t.Fatalf("Expected ErrNotPaid for unpaid order, got %v", err)
	}

	if err := order.MarkPaid(nil, now); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if err := order.MarkDelivered(now); err != nil {
		t.Fatalf("MarkDelivered failed: %v", err)
	}
	if !order.Delivered || order.DeliveredAt == nil {
		t.Error("Expected delivered=true with timestamp")
	}
	if order.Status != StatusDelivered {
		t.Errorf("Expected status delivered, got %s", order.Status)
	}

	if err := order.MarkDelivered(now); !errors.Is(err, errs.ErrAlreadyDelivered) {
		t.Fatalf("Expected ErrAlreadyDelivered, got %v", err)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	order := pendingOrder()
	_, err := order.Transition(OrderStatus("lost_in_mail"), time.Now())
	if !errs.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if order.Status != StatusPendingPayment {
		t.Errorf("Status must not change on rejected transition, got %s", order.Status)
	}
}

func TestTerminalOrdersRejectEveryTransition(t *testing.T) {
	targets := []OrderStatus{
		StatusPendingPayment, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusPaymentFailed,
	}

	for _, terminal := range []OrderStatus{StatusDelivered, StatusCancelled} {
		for _, target := range targets {
			order := pendingOrder()
			order.Status = terminal

			_, err := order.Transition(target, time.Now())
			if !errors.Is(err, errs.ErrInvalidTransition) {
				t.Errorf("Transition(%s -> %s): expected ErrInvalidTransition, got %v",
					terminal, target, err)
			}
		}
	}
}

func TestCancelFromPendingPaymentReintegrates(t *testing.T) {
	order := pendingOrder()

	reintegrate, err := order.Transition(StatusCancelled, time.Now())
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if !reintegrate {
		t.Error("Creation committed the stock; cancelling a pending order must return it")
	}
	if order.Status != StatusCancelled {
		t.Errorf("Expected status cancelled, got %s", order.Status)
	}
}

func TestCancelAfterPaymentReintegratesAndClearsFlags(t *testing.T) {
	now := time.Now()
	order := pendingOrder()
	if err := order.MarkPaid(nil, now); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	reintegrate, err := order.Transition(StatusCancelled, now)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if !reintegrate {
		t.Error("Cancelling a processing order must reintegrate stock")
	}
	if order.Paid || order.Delivered {
		t.Error("Cancellation must clear paid and delivered flags")
	}
}

func TestPaymentFailedClearsFlags(t *testing.T) {
	now := time.Now()
	order := pendingOrder()
	if err := order.MarkPaid(nil, now); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	reintegrate, err := order.Transition(StatusPaymentFailed, now)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if reintegrate {
		t.Error("Payment failure does not move stock")
	}
	if order.Paid {
		t.Error("Payment failure must clear the paid flag")
	}
}

func TestTransitionToDeliveredForcesFlags(t *testing.T) {
	order := pendingOrder()

	if _, err := order.Transition(StatusDelivered, time.Now()); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if !order.Delivered || order.DeliveredAt == nil {
		t.Error("Expected delivered=true with timestamp")
	}
	if !order.Paid || order.PaidAt == nil {
		t.Error("Delivered implies paid; both must be forced")
	}
}

func TestTransitionToProcessingImpliesPayment(t *testing.T) {
	order := pendingOrder()

	if _, err := order.Transition(StatusProcessing, time.Now()); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if !order.Paid || order.PaidAt == nil {
		t.Error("Manual move to processing must record payment")
	}
}
