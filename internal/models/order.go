package models

import "time"

// Address is copied onto the order at creation so later edits to the
// buyer's saved addresses never change past orders.
type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Floor      string `json:"floor,omitempty"`
	Apartment  string `json:"apartment,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// OrderItem is an immutable snapshot of a cart line at order creation.
// Name, image and unit price are copied, never re-read from the catalog.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// PaymentResult records what the payment provider reported for the order.
type PaymentResult struct {
	ProviderID string    `json:"providerId"`
	Status     string    `json:"status"`
	UpdateTime time.Time `json:"updateTime"`
	PayerEmail string    `json:"payerEmail,omitempty"`
}

// Order is an immutable snapshot of a checkout, except for the lifecycle
// fields (Status, Paid/PaidAt, Delivered/DeliveredAt, PaymentResult,
// UpdatedAt) which move through the transition table in status.go.
type Order struct {
	ID              string         `json:"id"`
	BuyerID         string         `json:"buyerId"`
	BuyerName       string         `json:"buyerName,omitempty"`
	BuyerEmail      string         `json:"buyerEmail,omitempty"`
	Items           []OrderItem    `json:"items"`
	ShippingAddress Address        `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	PaymentResult   *PaymentResult `json:"paymentResult,omitempty"`
	ItemsTotal      float64        `json:"itemsTotal"`
	TaxTotal        float64        `json:"taxTotal"`
	ShippingTotal   float64        `json:"shippingTotal"`
	GrandTotal      float64        `json:"grandTotal"`
	Status          OrderStatus    `json:"status"`
	Paid            bool           `json:"paid"`
	PaidAt          *time.Time     `json:"paidAt,omitempty"`
	Delivered       bool           `json:"delivered"`
	DeliveredAt     *time.Time     `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}
