package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/logging"
	"github.com/tienda-escolar/shop-service/internal/metrics"
	"github.com/tienda-escolar/shop-service/internal/models"
	"github.com/tienda-escolar/shop-service/internal/repository"
)

// CartService owns the per-buyer cart aggregate. Stock checks here are
// best-effort; the authoritative check happens again at checkout.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, m *metrics.Metrics) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		metrics:  m,
		logger:   logging.New("cart-service"),
	}
}

// GetOrCreate returns the buyer's cart, creating an empty one on first
// access. It never fails for a missing cart.
func (s *CartService) GetOrCreate(ctx context.Context, buyer models.Identity) (*models.Cart, error) {
	cart, err := s.carts.GetByBuyer(ctx, buyer.BuyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	cart = &models.Cart{
		BuyerID: buyer.BuyerID,
		Items:   make([]models.CartItem, 0),
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.Info("Cart created", logging.Fields{"buyer_id": buyer.BuyerID})
	return cart, nil
}

// AddItem puts quantity units of a product into the buyer's cart. If the
// product is already in the cart the quantities merge and the unit price
// is re-resolved at the merged total, so crossing a wholesale tier
// boundary re-prices the whole line.
func (s *CartService) AddItem(ctx context.Context, buyer models.Identity, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, errs.NewValidation("quantity", "quantity must be a positive integer")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, errs.ErrNotFound
	}

	cart, err := s.GetOrCreate(ctx, buyer)
	if err != nil {
		return nil, err
	}

	if line := cart.FindProduct(productID); line != nil {
		newQuantity := line.Quantity + quantity
		if product.Stock < newQuantity {
			s.metrics.StockConflicts.Inc()
			return nil, errs.NewStock(product.ID, product.Name, newQuantity, product.Stock)
		}
		line.Quantity = newQuantity
		line.UnitPrice = ResolvePrice(product, newQuantity, buyer)
	} else {
		if product.Stock < quantity {
			s.metrics.StockConflicts.Inc()
			return nil, errs.NewStock(product.ID, product.Name, quantity, product.Stock)
		}
		cart.Items = append(cart.Items, models.CartItem{
			ID:        "itm_" + uuid.NewString(),
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Quantity:  quantity,
			UnitPrice: ResolvePrice(product, quantity, buyer),
		})
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.Info("Cart item added", logging.Fields{
		"buyer_id":   buyer.BuyerID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return cart, nil
}

// UpdateItemQuantity replaces a cart line's quantity and re-resolves its
// unit price. If the referenced product no longer exists, the orphaned
// line is removed and the error reports it.
func (s *CartService) UpdateItemQuantity(ctx context.Context, buyer models.Identity, itemID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, errs.NewValidation("quantity", "quantity must be a positive integer")
	}

	cart, err := s.carts.GetByBuyer(ctx, buyer.BuyerID)
	if err != nil {
		return nil, err
	}

	line := cart.FindItem(itemID)
	if line == nil {
		return nil, errs.ErrNotFound
	}

	product, err := s.products.GetByID(ctx, line.ProductID)
	if errors.Is(err, errs.ErrNotFound) {
		// The product left the catalog under us; drop the orphaned line
		// so the cart stays orderable.
		cart.RemoveItem(itemID)
		if saveErr := s.carts.Save(ctx, cart); saveErr != nil {
			return nil, saveErr
		}
		s.logger.Warn("Orphaned cart item removed", logging.Fields{
			"buyer_id":   buyer.BuyerID,
			"item_id":    itemID,
			"product_id": line.ProductID,
		})
		return nil, errs.NewValidation("itemId", "the product no longer exists; the item was removed from the cart")
	}
	if err != nil {
		return nil, err
	}

	if product.Stock < quantity {
		s.metrics.StockConflicts.Inc()
		return nil, errs.NewStock(product.ID, product.Name, quantity, product.Stock)
	}

	line.Quantity = quantity
	line.UnitPrice = ResolvePrice(product, quantity, buyer)

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops a line from the buyer's cart. A missing line is an
// error.
func (s *CartService) RemoveItem(ctx context.Context, buyer models.Identity, itemID string) (*models.Cart, error) {
	cart, err := s.carts.GetByBuyer(ctx, buyer.BuyerID)
	if err != nil {
		return nil, err
	}

	if !cart.RemoveItem(itemID) {
		return nil, errs.ErrNotFound
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the buyer's cart. Clearing an absent cart is a no-op
// that returns an empty cart.
func (s *CartService) Clear(ctx context.Context, buyer models.Identity) (*models.Cart, error) {
	cart, err := s.carts.GetByBuyer(ctx, buyer.BuyerID)
	if errors.Is(err, errs.ErrNotFound) {
		return &models.Cart{
			BuyerID:   buyer.BuyerID,
			Items:     make([]models.CartItem, 0),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	cart.Items = make([]models.CartItem, 0)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.Info("Cart cleared", logging.Fields{"buyer_id": buyer.BuyerID})
	return cart, nil
}
