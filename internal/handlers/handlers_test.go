package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tienda-escolar/shop-service/internal/clients"
	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/events"
	"github.com/tienda-escolar/shop-service/internal/metrics"
	"github.com/tienda-escolar/shop-service/internal/models"
	"github.com/tienda-escolar/shop-service/internal/repository"
	"github.com/tienda-escolar/shop-service/internal/service"
)

type fixture struct {
	handlers *Handlers
	products *repository.MockProductRepository
	carts    *repository.MockCartRepository
	orders   *repository.MockOrderRepository
	provider *clients.MockPaymentClient
}

func testConfig() *config.Config {
	return &config.Config{
		Features: config.FeatureFlags{EnableOrderCaching: true, EnableOrderEvents: true},
		Store: config.StoreConfig{
			Name:              "Mi Tienda Escolar",
			FrontendURL:       "http://localhost:3000",
			BackendURL:        "http://localhost:8080",
			Currency:          "ARS",
			LowStockThreshold: 10,
		},
	}
}

func newFixture() *fixture {
	products := repository.NewMockProductRepository()
	products.Put(&models.Product{
		ID: "prod_pencil", Name: "Lápiz HB", BasePrice: 100, Stock: 20, Active: true,
	})

	carts := repository.NewMockCartRepository()
	orders := repository.NewMockOrderRepository()
	orders.Products = products
	orders.Carts = carts

	cfg := testConfig()
	m := metrics.New()
	provider := clients.NewMockPaymentClient()

	productSvc := service.NewProductService(products)
	cartSvc := service.NewCartService(carts, products, m)
	orderSvc := service.NewOrderService(
		orders, carts, products,
		repository.NewMockOrderCache(),
		clients.NewMockEmailSender(),
		events.NewMockEventPublisher(),
		m, cfg,
	)
	paymentSvc := service.NewPaymentService(orderSvc, provider, m, cfg)
	statsSvc := service.NewStatsService(orders, products, cfg)

	return &fixture{
		handlers: NewHandlers(productSvc, cartSvc, orderSvc, paymentSvc, statsSvc, cfg),
		products: products,
		carts:    carts,
		orders:   orders,
		provider: provider,
	}
}

// newRouter wires the handlers behind a fixed caller identity.
func newRouter(h *Handlers, id models.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(IdentityKey, id)
		c.Next()
	})

	r.GET("/api/cart", h.GetCart)
	r.POST("/api/cart/items", h.AddCartItem)
	r.POST("/api/orders", h.CreateOrder)
	r.GET("/api/orders/:id", h.GetOrder)
	r.POST("/api/payments/webhook", h.PaymentWebhook)
	r.GET("/api/products", h.ListProducts)
	r.GET("/api/stats/low-stock", h.LowStock)
	return r
}

func testBuyer() models.Identity {
	return models.Identity{BuyerID: "buyer_1", Email: "buyer@example.com", Role: models.RoleCustomer, Tier: models.TierRetail}
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetCartCreatesLazily(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handlers, testBuyer())

	w := doJSON(r, http.MethodGet, "/api/cart", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var cart models.Cart
	if err := json.Unmarshal(w.Body.Bytes(), &cart); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if cart.BuyerID != "buyer_1" || len(cart.Items) != 0 {
		t.Errorf("Expected an empty buyer_1 cart, got %+v", cart)
	}
}

func TestAddCartItem(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handlers, testBuyer())

	w := doJSON(r, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "prod_pencil", Quantity: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "prod_missing", Quantity: 1})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown product, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "prod_pencil", Quantity: 99})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for insufficient stock, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "prod_pencil", Quantity: -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative quantity, got %d", w.Code)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handlers, testBuyer())

	w := doJSON(r, http.MethodPost, "/api/orders", service.CreateOrderInput{
		ShippingAddress: models.Address{Street: "Calle 1", City: "CBA", PostalCode: "5000"},
		PaymentMethod:   "mercadopago",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty cart, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateOrderFlow(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handlers, testBuyer())

	if w := doJSON(r, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "prod_pencil", Quantity: 3}); w.Code != http.StatusOK {
		t.Fatalf("AddCartItem failed: %d", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/api/orders", service.CreateOrderInput{
		ShippingAddress: models.Address{Street: "Calle 1", City: "CBA", PostalCode: "5000"},
		PaymentMethod:   "mercadopago",
		ShippingTotal:   200,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var order models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("Failed to parse order: %v", err)
	}
	if order.GrandTotal != 500 {
		t.Errorf("Expected grandTotal 500, got %v", order.GrandTotal)
	}

	w = doJSON(r, http.MethodGet, "/api/orders/"+order.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 reading own order, got %d", w.Code)
	}
}

func TestGetOrderAuthorization(t *testing.T) {
	f := newFixture()
	owner := newRouter(f.handlers, testBuyer())

	if w := doJSON(owner, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "prod_pencil", Quantity: 1}); w.Code != http.StatusOK {
		t.Fatalf("AddCartItem failed: %d", w.Code)
	}
	w := doJSON(owner, http.MethodPost, "/api/orders", service.CreateOrderInput{
		ShippingAddress: models.Address{Street: "Calle 1", City: "CBA", PostalCode: "5000"},
		PaymentMethod:   "efectivo",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("CreateOrder failed: %d", w.Code)
	}
	var order models.Order
	json.Unmarshal(w.Body.Bytes(), &order)

	stranger := newRouter(f.handlers, models.Identity{BuyerID: "buyer_2", Role: models.RoleCustomer})
	if w := doJSON(stranger, http.MethodGet, "/api/orders/"+order.ID, nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for a stranger, got %d", w.Code)
	}

	if w := doJSON(owner, http.MethodGet, "/api/orders/ord_missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestPaymentWebhookAlwaysAcknowledges(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handlers, models.Identity{})

	// Unreadable body.
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for malformed payload, got %d", w.Code)
	}

	// Non-payment notification type.
	w = doJSON(r, http.MethodPost, "/api/payments/webhook", map[string]interface{}{
		"type": "merchant_order", "data": map[string]string{"id": "123"},
	})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for non-payment type, got %d", w.Code)
	}

	// Provider lookup failure.
	f.provider.LookupErr = errs.ErrProviderLookup
	w = doJSON(r, http.MethodPost, "/api/payments/webhook", map[string]interface{}{
		"type": "payment", "data": map[string]string{"id": "pay_1"},
	})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 on lookup failure, got %d", w.Code)
	}
}

func TestListProducts(t *testing.T) {
	f := newFixture()
	f.products.Put(&models.Product{ID: "prod_hidden", Name: "Retirado", Stock: 1, Active: false})
	r := newRouter(f.handlers, testBuyer())

	w := doJSON(r, http.MethodGet, "/api/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("Expected only the active product, got %d", resp.Count)
	}
}

func TestLowStockThresholdValidation(t *testing.T) {
	f := newFixture()
	r := newRouter(f.handlers, models.Identity{BuyerID: "admin_1", Role: models.RoleAdmin})

	if w := doJSON(r, http.MethodGet, "/api/stats/low-stock?threshold=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric threshold, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/stats/low-stock?threshold=50", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HealthCheck(c)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", resp["status"])
	}
}
