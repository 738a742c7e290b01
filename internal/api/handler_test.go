package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadcart/backend/internal/domain/checkout"
	"github.com/threadcart/backend/internal/domain/event"
	"github.com/threadcart/backend/internal/domain/inventory"
	"github.com/threadcart/backend/internal/domain/order"
	"github.com/threadcart/backend/internal/domain/payment"
	"github.com/threadcart/backend/internal/domain/product"
)

// --- Mock implementations ---

type memLedger struct {
	mu    sync.Mutex
	stock map[string]map[string]int
}

func (l *memLedger) Reserve(_ context.Context, productID, size string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	sizes, ok := l.stock[productID]
	if !ok {
		return &inventory.ProductNotFoundError{ProductID: productID}
	}
	available, ok := sizes[size]
	if !ok {
		return &inventory.SizeNotFoundError{ProductID: productID, Size: size}
	}
	if available < qty {
		return &inventory.InsufficientStockError{ProductID: productID, Size: size, Available: available, Requested: qty}
	}
	sizes[size] = available - qty
	return nil
}

func (l *memLedger) Release(_ context.Context, productID, size string, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[productID][size] += qty
	return nil
}

type memOrders struct {
	mu   sync.Mutex
	byID map[string]*order.Order
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if o.PaymentID != "" && existing.PaymentID == o.PaymentID {
			return order.ErrDuplicatePayment
		}
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, to order.Status) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if !order.CanTransition(o.Status, to) {
		return nil, &order.InvalidTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func (m *memOrders) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memOrders) List(_ context.Context, _ order.Page) ([]order.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]order.Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string, _ order.Page) ([]order.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

type memPayments struct {
	mu     sync.Mutex
	byGwID map[string]payment.Payment
}

func (m *memPayments) Create(_ context.Context, p *payment.Payment) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byGwID[p.GatewayPaymentID]; ok {
		cp := existing
		return &cp, nil
	}
	m.byGwID[p.GatewayPaymentID] = *p
	cp := *p
	return &cp, nil
}

func (m *memPayments) ListUnmatched(_ context.Context, _ time.Time) ([]payment.Payment, error) {
	return nil, nil
}

type memCarts struct {
	mu      sync.Mutex
	cleared []string
}

func (m *memCarts) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, userID)
	return nil
}

type memNotifier struct {
	mu     sync.Mutex
	events []event.Event
}

func (m *memNotifier) Notify(_ context.Context, e event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

type memCatalog struct {
	byID map[string]*product.Product
}

func (m *memCatalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

type memGateway struct{}

func (memGateway) CreateOrder(_ context.Context, amount decimal.Decimal, currency, receipt string) (*checkout.GatewayOrder, error) {
	return &checkout.GatewayOrder{ID: "gw_order_1", Amount: amount, Currency: currency, Receipt: receipt}, nil
}

// --- Helpers ---

const testSecret = "test-secret"

type fixture struct {
	handler *Handler
	ledger  *memLedger
	orders  *memOrders
	carts   *memCarts
	events  *memNotifier
}

func newFixture(stock map[string]map[string]int, products ...*product.Product) *fixture {
	byID := make(map[string]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	f := &fixture{
		ledger: &memLedger{stock: stock},
		orders: &memOrders{byID: make(map[string]*order.Order)},
		carts:  &memCarts{},
		events: &memNotifier{},
	}
	verifier := payment.NewVerifier(testSecret)
	payments := &memPayments{byGwID: make(map[string]payment.Payment)}
	checkoutSvc := checkout.NewService(verifier, payments, f.ledger, f.orders, f.carts, f.events)
	sessions := checkout.NewSessions(&memCatalog{byID: byID}, memGateway{}, "INR")
	orderSvc := order.NewService(f.orders, f.events)
	f.handler = NewHandler(checkoutSvc, sessions, orderSvc, &memCatalog{byID: byID})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-User-Email", "u1@example.com")

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)
	return rec
}

func placeOrderBody(sig string) map[string]any {
	return map[string]any{
		"gatewayOrderId":   "gw_order_1",
		"gatewayPaymentId": "gw_pay_1",
		"gatewaySignature": sig,
		"cartItems": []map[string]any{
			{"productId": "p1", "name": "Tee", "size": "M", "color": "black", "quantity": 2, "price": "499.00"},
		},
		"deliveryAddress": map[string]any{"line1": "1 Main St", "city": "Pune", "country": "IN"},
		"clearCart":       true,
	}
}

func validSignature() string {
	return payment.NewVerifier(testSecret).Sign("gw_order_1", "gw_pay_1")
}

// --- Tests ---

func TestPlaceOrder_Created(t *testing.T) {
	f := newFixture(map[string]map[string]int{"p1": {"M": 5}})

	rec := f.do(t, http.MethodPost, "/checkout", placeOrderBody(validSignature()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp placeOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, "gw_order_1", resp.GatewayOrderID)

	assert.Equal(t, []string{"u1"}, f.carts.cleared)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, event.OrderPlaced, f.events.events[0].Type)
}

func TestPlaceOrder_InvalidSignature(t *testing.T) {
	f := newFixture(map[string]map[string]int{"p1": {"M": 5}})

	rec := f.do(t, http.MethodPost, "/checkout", placeOrderBody("deadbeef"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid signature", resp.Message)
}

func TestPlaceOrder_ReplayConflict(t *testing.T) {
	f := newFixture(map[string]map[string]int{"p1": {"M": 5}})
	body := placeOrderBody(validSignature())

	rec := f.do(t, http.MethodPost, "/checkout", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/checkout", body)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "order already placed for this payment", resp.Message)
}

func TestPlaceOrder_StockConflict(t *testing.T) {
	f := newFixture(map[string]map[string]int{"p1": {"M": 1}})

	rec := f.do(t, http.MethodPost, "/checkout", placeOrderBody(validSignature()))
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp stockErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "p1", resp.ProductID)
	assert.Equal(t, "M", resp.Size)
	assert.Equal(t, 1, resp.AvailableStock)
	assert.Equal(t, 2, resp.RequestedQuantity)
}

func TestPlaceOrder_Unauthenticated(t *testing.T) {
	f := newFixture(map[string]map[string]int{"p1": {"M": 5}})

	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newFixture(nil, &product.Product{
		ID: "p1", Name: "Tee", Price: decimal.RequireFromString("499.00"),
		Sizes: map[string]int{"M": 5},
	})

	rec := f.do(t, http.MethodPost, "/checkout/session", map[string]any{
		"amount": "998.00",
		"items":  []map[string]any{{"productId": "p1", "size": "M", "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp checkoutSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "gw_order_1", resp.GatewayOrderID)
	assert.Equal(t, "INR", resp.Currency)
}

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	f := newFixture(nil)
	require.NoError(t, f.orders.Create(context.Background(), &order.Order{
		ID: "o1", UserID: "someone-else", Status: order.StatusProcessing,
	}))

	rec := f.do(t, http.MethodGet, "/orders/o1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(nil)
	require.NoError(t, f.orders.Create(context.Background(), &order.Order{
		ID: "o1", UserID: "u1", Status: order.StatusProcessing,
	}))

	rec := f.do(t, http.MethodPost, "/orders/o1/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Status)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, event.OrderCancelled, f.events.events[0].Type)
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	f := newFixture(nil)
	require.NoError(t, f.orders.Create(context.Background(), &order.Order{
		ID: "o1", UserID: "u1", Status: order.StatusProcessing,
	}))

	rec := f.do(t, http.MethodPatch, "/admin/orders/o1/status", map[string]any{"status": "delivered"})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "processing -> delivered")
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPatch, "/admin/orders/o1/status", map[string]any{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct(t *testing.T) {
	f := newFixture(nil, &product.Product{
		ID: "p1", Name: "Tee", Price: decimal.RequireFromString("499.00"),
		Sizes: map[string]int{"M": 5, "L": 0},
	})

	rec := f.do(t, http.MethodGet, "/products/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Tee", resp.Name)
	assert.Equal(t, map[string]int{"M": 5, "L": 0}, resp.Sizes)
}

func TestGetProduct_PublicRoute(t *testing.T) {
	f := newFixture(nil, &product.Product{
		ID: "p1", Name: "Tee", Price: decimal.RequireFromString("499.00"),
		Sizes: map[string]int{"M": 5},
	})

	// Catalog reads carry no identity headers.
	req := httptest.NewRequest(http.MethodGet, "/products/p1", nil)
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Order routes still require one.
	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec = httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMyOrders_Pagination(t *testing.T) {
	f := newFixture(nil)
	require.NoError(t, f.orders.Create(context.Background(), &order.Order{
		ID: "o1", UserID: "u1", Status: order.StatusProcessing,
	}))

	rec := f.do(t, http.MethodGet, "/orders?page=1&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp orderListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, 1, resp.Pagination.TotalOrders)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
	assert.False(t, resp.Pagination.HasNextPage)
}
