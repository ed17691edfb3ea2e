package service

import (
	"context"
	"testing"

	"github.com/tienda-escolar/shop-service/internal/models"
	"github.com/tienda-escolar/shop-service/internal/repository"
)

func TestOrderSummary(t *testing.T) {
	orders := repository.NewMockOrderRepository()
	ctx := context.Background()

	seed := []*models.Order{
		{ID: "ord_1", Status: models.StatusPendingPayment, GrandTotal: 1000},
		{ID: "ord_2", Status: models.StatusProcessing, GrandTotal: 2000, Paid: true},
		{ID: "ord_3", Status: models.StatusDelivered, GrandTotal: 3500, Paid: true, Delivered: true},
		{ID: "ord_4", Status: models.StatusCancelled, GrandTotal: 800},
	}
	for _, o := range seed {
		if err := orders.Create(ctx, o); err != nil {
			t.Fatalf("Failed to seed order: %v", err)
		}
	}

	svc := NewStatsService(orders, repository.NewMockProductRepository(), testConfig())
	stats, err := svc.OrderSummary(ctx)
	if err != nil {
		t.Fatalf("OrderSummary failed: %v", err)
	}

	if stats.TotalOrders != 4 {
		t.Errorf("Expected 4 orders, got %d", stats.TotalOrders)
	}
	if stats.CountsByStatus[models.StatusProcessing] != 1 {
		t.Errorf("Expected 1 processing order, got %d", stats.CountsByStatus[models.StatusProcessing])
	}
	// Only paid orders contribute to revenue.
	if stats.PaidRevenue != 5500 {
		t.Errorf("Expected paid revenue 5500, got %v", stats.PaidRevenue)
	}
}

func TestLowStockDefaultThreshold(t *testing.T) {
	products := repository.NewMockProductRepository()
	products.Put(&models.Product{ID: "prod_1", Name: "Goma", Stock: 3, Active: true})
	products.Put(&models.Product{ID: "prod_2", Name: "Tijera", Stock: 40, Active: true})
	products.Put(&models.Product{ID: "prod_3", Name: "Plasticola", Stock: 2, Active: false})

	svc := NewStatsService(repository.NewMockOrderRepository(), products, testConfig())

	// Threshold 0 falls back to the configured default of 10.
	low, err := svc.LowStock(context.Background(), 0)
	if err != nil {
		t.Fatalf("LowStock failed: %v", err)
	}
	if len(low) != 1 || low[0].ID != "prod_1" {
		t.Fatalf("Expected only the active low-stock product, got %d products", len(low))
	}

	all, err := svc.LowStock(context.Background(), 100)
	if err != nil {
		t.Fatalf("LowStock failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 active products under threshold 100, got %d", len(all))
	}
}
