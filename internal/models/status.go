package models

import (
	"time"

	"github.com/tienda-escolar/shop-service/internal/errs"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusProcessing     OrderStatus = "processing"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusPaymentFailed  OrderStatus = "payment_failed"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusPaymentFailed:
		return true
	}
	return false
}

// Terminal reports whether an order in this status accepts no further
// transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// All paid/delivered flag patching lives in this file, on purpose. The
// historical system kept the status string and the two booleans as
// parallel representations patched ad hoc at every call site, and they
// drifted; here every mutation of the pair goes through MarkPaid,
// MarkDelivered or Transition so the invariants hold everywhere:
// paid implies PaidAt set, delivered implies paid.

// MarkPaid records payment on the order. If the order is still awaiting
// payment it advances to processing; any other non-terminal status is
// left alone, since payment can be recorded without forcing a specific
// downstream state. A second call is an error; webhook-level idempotence
// is the caller's concern.
func (o *Order) MarkPaid(result *PaymentResult, now time.Time) error {
	if o.Paid {
		return errs.ErrAlreadyPaid
	}
	o.Paid = true
	o.PaidAt = &now
	if result != nil {
		o.PaymentResult = result
	}
	if o.Status == StatusPendingPayment {
		o.Status = StatusProcessing
	}
	o.UpdatedAt = now
	return nil
}

// MarkDelivered records delivery and moves the order to its terminal
// delivered status. An unpaid order cannot be delivered.
func (o *Order) MarkDelivered(now time.Time) error {
	if !o.Paid {
		return errs.ErrNotPaid
	}
	if o.Delivered {
		return errs.ErrAlreadyDelivered
	}
	o.Delivered = true
	o.DeliveredAt = &now
	if o.PaidAt == nil {
		// Paid orders always carry a timestamp; repair legacy rows that
		// predate that invariant.
		o.PaidAt = &now
	}
	o.Status = StatusDelivered
	o.UpdatedAt = now
	return nil
}

// Transition forces the order into target (operator override) and applies
// that target's flag effects. Terminal orders reject every transition.
// It returns reintegrate=true when the caller must return the order's
// stock to the catalog: every cancellation, because creating the order
// committed its stock inside the checkout transaction.
func (o *Order) Transition(target OrderStatus, now time.Time) (reintegrate bool, err error) {
	if !target.Valid() {
		return false, errs.NewValidation("status", "unknown order status: "+string(target))
	}
	if o.Status.Terminal() {
		return false, errs.ErrInvalidTransition
	}

	o.Status = target
	o.UpdatedAt = now

	switch target {
	case StatusCancelled:
		reintegrate = true
		o.Paid = false
		o.Delivered = false
	case StatusPaymentFailed:
		o.Paid = false
		o.Delivered = false
	case StatusDelivered:
		o.Delivered = true
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
		if !o.Paid {
			o.Paid = true
			if o.PaidAt == nil {
				o.PaidAt = &now
			}
		}
	case StatusProcessing:
		// A manual move to processing implies payment was handled out
		// of band.
		if !o.Paid {
			o.Paid = true
			if o.PaidAt == nil {
				o.PaidAt = &now
			}
		}
	}

	return reintegrate, nil
}
