package service

import (
	"sort"

	"github.com/tienda-escolar/shop-service/internal/models"
)

// ResolvePrice computes the unit price for a product at a given quantity.
// Approved wholesale buyers get the best wholesale tier their quantity
// satisfies: tiers are ranked by MinQuantity descending and the first one
// whose MinQuantity the quantity reaches wins. Everyone else, and any
// quantity below every tier, pays the base price.
//
// Pure function. It always returns a usable price.
func ResolvePrice(product *models.Product, quantity int, buyer models.Identity) float64 {
	if !buyer.WholesaleEligible() || len(product.WholesaleTiers) == 0 {
		return product.BasePrice
	}

	tiers := make([]models.WholesaleTier, len(product.WholesaleTiers))
	copy(tiers, product.WholesaleTiers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MinQuantity > tiers[j].MinQuantity
	})

	for _, tier := range tiers {
		if quantity >= tier.MinQuantity {
			return tier.Price
		}
	}
	return product.BasePrice
}
