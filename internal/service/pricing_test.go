package service

import (
	"testing"

	"github.com/tienda-escolar/shop-service/internal/models"
)

func wholesaleBuyer() models.Identity {
	return models.Identity{
		BuyerID:      "buyer_w",
		Tier:         models.TierWholesale,
		TierApproved: true,
	}
}

func tieredProduct() *models.Product {
	return &models.Product{
		ID:        "prod_1",
		Name:      "Lápiz HB",
		BasePrice: 100,
		// Deliberately unsorted; resolution must not depend on storage
		// order.
		WholesaleTiers: []models.WholesaleTier{
			{MinQuantity: 50, Price: 70},
			{MinQuantity: 10, Price: 90},
			{MinQuantity: 25, Price: 80},
		},
	}
}

func TestResolvePriceTiers(t *testing.T) {
	product := tieredProduct()
	buyer := wholesaleBuyer()

	tests := []struct {
		name     string
		quantity int
		want     float64
	}{
		{"below every tier", 9, 100},
		{"exactly first tier", 10, 90},
		{"inside first tier", 24, 90},
		{"exactly middle tier", 25, 80},
		{"exactly top tier", 50, 70},
		{"far above top tier", 500, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePrice(product, tt.quantity, buyer)
			if got != tt.want {
				t.Errorf("ResolvePrice(qty=%d) = %v, want %v", tt.quantity, got, tt.want)
			}
		})
	}
}

func TestResolvePriceRetailBuyerIgnoresTiers(t *testing.T) {
	product := tieredProduct()

	retail := models.Identity{BuyerID: "buyer_r", Tier: models.TierRetail}
	if got := ResolvePrice(product, 100, retail); got != 100 {
		t.Errorf("Retail buyer got tier price %v, want base price 100", got)
	}

	unapproved := models.Identity{BuyerID: "buyer_u", Tier: models.TierWholesale}
	if got := ResolvePrice(product, 100, unapproved); got != 100 {
		t.Errorf("Unapproved wholesale buyer got tier price %v, want base price 100", got)
	}
}

func TestResolvePriceNoTiers(t *testing.T) {
	product := &models.Product{ID: "prod_2", BasePrice: 250}
	if got := ResolvePrice(product, 1000, wholesaleBuyer()); got != 250 {
		t.Errorf("ResolvePrice = %v, want base price 250", got)
	}
}

func TestResolvePriceMonotonic(t *testing.T) {
	product := tieredProduct()
	buyer := wholesaleBuyer()

	prev := ResolvePrice(product, 1, buyer)
	for qty := 2; qty <= 120; qty++ {
		price := ResolvePrice(product, qty, buyer)
		if price > prev {
			t.Fatalf("Unit price rose from %v to %v at quantity %d", prev, price, qty)
		}
		prev = price
	}
}

func TestResolvePriceDoesNotMutateProduct(t *testing.T) {
	product := tieredProduct()
	ResolvePrice(product, 60, wholesaleBuyer())

	want := []int{50, 10, 25}
	for i, tier := range product.WholesaleTiers {
		if tier.MinQuantity != want[i] {
			t.Fatalf("Tier order changed: got %d at index %d, want %d",
				tier.MinQuantity, i, want[i])
		}
	}
}
