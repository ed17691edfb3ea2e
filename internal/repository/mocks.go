package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/models"
)

// MockProductRepository is an in-memory ProductRepository for testing.
type MockProductRepository struct {
	mu       sync.Mutex
	Products map[string]*models.Product
	Err      error
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{Products: make(map[string]*models.Product)}
}

func (m *MockProductRepository) Put(p *models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Products[p.ID] = p
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockProductRepository) ListActive(ctx context.Context) ([]*models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Product, 0)
	for _, p := range m.Products {
		if p.Active {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockProductRepository) ListLowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Product, 0)
	for _, p := range m.Products {
		if p.Active && p.Stock <= threshold {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (m *MockProductRepository) SetStock(ctx context.Context, id string, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.Stock = stock
	return nil
}

func (m *MockProductRepository) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.Active = active
	return nil
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return errs.ErrNotFound
	}
	if p.Stock < qty {
		return errs.NewStock(p.ID, p.Name, qty, p.Stock)
	}
	p.Stock -= qty
	return nil
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.Stock += qty
	return nil
}

// MockCartRepository is an in-memory CartRepository for testing.
type MockCartRepository struct {
	mu      sync.Mutex
	Carts   map[string]*models.Cart
	SaveErr error
}

func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{Carts: make(map[string]*models.Cart)}
}

func (m *MockCartRepository) GetByBuyer(ctx context.Context, buyerID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.Carts[buyerID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (m *MockCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	m.Carts[cart.BuyerID] = &copied
	return nil
}

// MockOrderRepository is an in-memory OrderRepository. When Products
// and Carts are set it mimics the checkout transaction: decrement every
// line, store the order, empty the cart, and roll the decrements back
// on failure.
type MockOrderRepository struct {
	mu        sync.Mutex
	Orders    map[string]*models.Order
	Products  *MockProductRepository
	Carts     *MockCartRepository
	CreateErr error
	UpdateErr error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{Orders: make(map[string]*models.Order)}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}

	if m.Products != nil {
		done := make([]models.OrderItem, 0, len(order.Items))
		for _, item := range order.Items {
			if err := m.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				for _, prev := range done {
					m.Products.IncrementStock(ctx, prev.ProductID, prev.Quantity)
				}
				return err
			}
			done = append(done, item)
		}
	}

	m.mu.Lock()
	copied := *order
	m.Orders[order.ID] = &copied
	m.mu.Unlock()

	if m.Carts != nil {
		m.Carts.mu.Lock()
		if cart, ok := m.Carts.Carts[order.BuyerID]; ok {
			cart.Items = make([]models.CartItem, 0)
			cart.UpdatedAt = time.Now()
		}
		m.Carts.mu.Unlock()
	}
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.Orders[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Order, 0)
	for _, order := range m.Orders {
		if order.BuyerID == buyerID {
			copied := *order
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockOrderRepository) ListAll(ctx context.Context) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Order, 0, len(m.Orders))
	for _, order := range m.Orders {
		copied := *order
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *models.Order) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Orders[order.ID]; !ok {
		return errs.ErrNotFound
	}
	copied := *order
	m.Orders[order.ID] = &copied
	return nil
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.OrderStatus]int)
	for _, order := range m.Orders {
		counts[order.Status]++
	}
	return counts, nil
}

func (m *MockOrderRepository) PaidRevenue(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var revenue float64
	for _, order := range m.Orders {
		if order.Paid {
			revenue += order.GrandTotal
		}
	}
	return revenue, nil
}

// MockOrderCache is an in-memory OrderCache for testing.
type MockOrderCache struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	buyers map[string][]*models.Order
}

func NewMockOrderCache() *MockOrderCache {
	return &MockOrderCache{
		orders: make(map[string]*models.Order),
		buyers: make(map[string][]*models.Order),
	}
}

func (m *MockOrderCache) Get(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id], nil
}

func (m *MockOrderCache) Set(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderCache) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *MockOrderCache) GetByBuyer(ctx context.Context, buyerID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buyers[buyerID], nil
}

func (m *MockOrderCache) SetByBuyer(ctx context.Context, buyerID string, orders []*models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buyers[buyerID] = orders
	return nil
}

func (m *MockOrderCache) InvalidateByBuyer(ctx context.Context, buyerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buyers, buyerID)
	return nil
}
