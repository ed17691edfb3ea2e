package models

import "time"

// WholesaleTier is a volume-pricing rule. The highest MinQuantity rule
// satisfied by the requested quantity wins.
type WholesaleTier struct {
	MinQuantity int     `json:"minQuantity"`
	Price       float64 `json:"price"`
}

// Product is a catalog entry. Stock is mutated by admin edits and by the
// order lifecycle (decrement on creation, increment on cancellation) and
// must never go negative.
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	Description    string          `json:"description,omitempty"`
	BasePrice      float64         `json:"basePrice"`
	WholesaleTiers []WholesaleTier `json:"wholesaleTiers,omitempty"`
	Stock          int             `json:"stock"`
	Image          string          `json:"image,omitempty"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
