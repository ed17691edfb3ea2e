package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/metrics"
	"github.com/tienda-escolar/shop-service/internal/models"
	"github.com/tienda-escolar/shop-service/internal/repository"
)

func newCartFixture() (*CartService, *repository.MockCartRepository, *repository.MockProductRepository) {
	carts := repository.NewMockCartRepository()
	products := repository.NewMockProductRepository()
	products.Put(&models.Product{
		ID:        "prod_pencil",
		Name:      "Lápiz HB",
		BasePrice: 100,
		WholesaleTiers: []models.WholesaleTier{
			{MinQuantity: 10, Price: 90},
		},
		Stock:  50,
		Active: true,
	})
	products.Put(&models.Product{
		ID:        "prod_retired",
		Name:      "Regla vieja",
		BasePrice: 80,
		Stock:     5,
		Active:    false,
	})
	return NewCartService(carts, products, metrics.New()), carts, products
}

func retailBuyer() models.Identity {
	return models.Identity{BuyerID: "buyer_1", Email: "buyer@example.com", Role: models.RoleCustomer, Tier: models.TierRetail}
}

func TestGetOrCreateLazy(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	cart, err := svc.GetOrCreate(ctx, retailBuyer())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if cart.BuyerID != "buyer_1" {
		t.Errorf("Expected buyer_1 cart, got %s", cart.BuyerID)
	}
	if len(cart.Items) != 0 {
		t.Errorf("Expected empty cart, got %d items", len(cart.Items))
	}

	again, err := svc.GetOrCreate(ctx, retailBuyer())
	if err != nil {
		t.Fatalf("Second GetOrCreate failed: %v", err)
	}
	if again.BuyerID != cart.BuyerID {
		t.Error("Expected the same cart on repeat access")
	}
}

func TestAddItem(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 3)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 || cart.Items[0].UnitPrice != 100 {
		t.Errorf("Expected qty=3 price=100, got qty=%d price=%v",
			cart.Items[0].Quantity, cart.Items[0].UnitPrice)
	}
}

func TestAddItemValidation(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 0); !errs.IsValidation(err) {
		t.Errorf("Expected validation error for zero quantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, retailBuyer(), "prod_missing", 1); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown product, got %v", err)
	}
	if _, err := svc.AddItem(ctx, retailBuyer(), "prod_retired", 1); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for inactive product, got %v", err)
	}
	if _, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 51); !errs.IsStock(err) {
		t.Errorf("Expected stock error over available stock, got %v", err)
	}
}

func TestAddItemMergesAndReprices(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()
	buyer := models.Identity{BuyerID: "buyer_w", Tier: models.TierWholesale, TierApproved: true}

	if _, err := svc.AddItem(ctx, buyer, "prod_pencil", 6); err != nil {
		t.Fatalf("First AddItem failed: %v", err)
	}

	// 6 + 6 crosses the 10-unit tier; the whole line re-prices.
	cart, err := svc.AddItem(ctx, buyer, "prod_pencil", 6)
	if err != nil {
		t.Fatalf("Second AddItem failed: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("Expected a single merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 12 {
		t.Errorf("Expected merged quantity 12, got %d", cart.Items[0].Quantity)
	}
	if cart.Items[0].UnitPrice != 90 {
		t.Errorf("Expected tier price 90 after merge, got %v", cart.Items[0].UnitPrice)
	}
}

func TestStockRejectionsCountConflicts(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 51); !errs.IsStock(err) {
		t.Fatalf("Expected stock error, got %v", err)
	}
	if got := testutil.ToFloat64(svc.metrics.StockConflicts); got != 1 {
		t.Errorf("Expected 1 stock conflict after rejected AddItem, got %v", got)
	}

	cart, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 10)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := svc.UpdateItemQuantity(ctx, retailBuyer(), cart.Items[0].ID, 51); !errs.IsStock(err) {
		t.Fatalf("Expected stock error on update, got %v", err)
	}
	if got := testutil.ToFloat64(svc.metrics.StockConflicts); got != 2 {
		t.Errorf("Expected 2 stock conflicts after rejected update, got %v", got)
	}
}

func TestAddItemMergeChecksTotalStock(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 30); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 25); !errs.IsStock(err) {
		t.Errorf("Expected stock error at merged quantity 55 over stock 50, got %v", err)
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 2)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateItemQuantity(ctx, retailBuyer(), itemID, 5)
	if err != nil {
		t.Fatalf("UpdateItemQuantity failed: %v", err)
	}
	if cart.Items[0].Quantity != 5 {
		t.Errorf("Expected quantity 5, got %d", cart.Items[0].Quantity)
	}

	if _, err := svc.UpdateItemQuantity(ctx, retailBuyer(), "itm_unknown", 2); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestUpdateItemQuantityRemovesOrphanedLine(t *testing.T) {
	svc, carts, products := newCartFixture()
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 2)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	itemID := cart.Items[0].ID

	// The product disappears from the catalog; the line is now orphaned.
	delete(products.Products, "prod_pencil")

	_, err = svc.UpdateItemQuantity(ctx, retailBuyer(), itemID, 5)
	if !errs.IsValidation(err) {
		t.Fatalf("Expected validation error for orphaned line, got %v", err)
	}

	saved, err := carts.GetByBuyer(ctx, "buyer_1")
	if err != nil {
		t.Fatalf("GetByBuyer failed: %v", err)
	}
	if len(saved.Items) != 0 {
		t.Errorf("Expected the orphaned line to be removed, cart still has %d items", len(saved.Items))
	}
}

func TestRemoveItem(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, retailBuyer(), "prod_pencil", 2)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	cart, err = svc.RemoveItem(ctx, retailBuyer(), cart.Items[0].ID)
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("Expected empty cart, got %d items", len(cart.Items))
	}

	if _, err := svc.RemoveItem(ctx, retailBuyer(), "itm_unknown"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestClearAbsentCartIsNoop(t *testing.T) {
	svc, _, _ := newCartFixture()

	cart, err := svc.Clear(context.Background(), retailBuyer())
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("Expected empty cart, got %d items", len(cart.Items))
	}
}
