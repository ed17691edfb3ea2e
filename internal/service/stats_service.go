package service

import (
	"context"

	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/logging"
	"github.com/tienda-escolar/shop-service/internal/models"
	"github.com/tienda-escolar/shop-service/internal/repository"
)

// OrderStats is the admin dashboard summary.
type OrderStats struct {
	TotalOrders    int                        `json:"totalOrders"`
	CountsByStatus map[models.OrderStatus]int `json:"countsByStatus"`
	PaidRevenue    float64                    `json:"paidRevenue"`
}

// StatsService aggregates reporting reads for the admin dashboard.
type StatsService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	cfg      *config.Config
	logger   *logging.Logger
}

func NewStatsService(orders repository.OrderRepository, products repository.ProductRepository, cfg *config.Config) *StatsService {
	return &StatsService{
		orders:   orders,
		products: products,
		cfg:      cfg,
		logger:   logging.New("stats-service"),
	}
}

// OrderSummary returns order counts per status plus the revenue of paid
// orders. Statuses with no orders are absent from the map.
func (s *StatsService) OrderSummary(ctx context.Context) (*OrderStats, error) {
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	revenue, err := s.orders.PaidRevenue(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return &OrderStats{
		TotalOrders:    total,
		CountsByStatus: counts,
		PaidRevenue:    revenue,
	}, nil
}

// LowStock lists active products at or below the threshold. A threshold
// of zero or less falls back to the configured default.
func (s *StatsService) LowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	if threshold <= 0 {
		threshold = s.cfg.Store.LowStockThreshold
	}
	return s.products.ListLowStock(ctx, threshold)
}
