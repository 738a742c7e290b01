package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadcart/backend/internal/domain/inventory"
	"github.com/threadcart/backend/internal/domain/product"
)

// --- Mock implementations ---

type mockCatalog struct {
	byID map[string]*product.Product
}

func (m *mockCatalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

type mockGateway struct {
	lastAmount   decimal.Decimal
	lastCurrency string
	lastReceipt  string
	err          error
}

func (m *mockGateway) CreateOrder(_ context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastAmount = amount
	m.lastCurrency = currency
	m.lastReceipt = receipt
	return &GatewayOrder{ID: "gw_order_1", Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func newSessions(products ...*product.Product) (*Sessions, *mockGateway) {
	byID := make(map[string]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	gw := &mockGateway{}
	return NewSessions(&mockCatalog{byID: byID}, gw, "INR"), gw
}

func testProduct(id string, sizes map[string]int) *product.Product {
	return &product.Product{
		ID:    id,
		Name:  "Product " + id,
		Price: decimal.RequireFromString("499.00"),
		Sizes: sizes,
	}
}

// --- Tests ---

func TestCreateSession_Success(t *testing.T) {
	sessions, gw := newSessions(testProduct("p1", map[string]int{"M": 5}))

	got, err := sessions.Create(context.Background(), SessionRequest{
		Amount: decimal.RequireFromString("998.00"),
		Items:  []SessionItem{{ProductID: "p1", Size: "M", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gw_order_1", got.ID)
	assert.Equal(t, "INR", gw.lastCurrency)
	assert.Len(t, gw.lastReceipt, 20, "receipt is 10 random bytes hex-encoded")
	assert.True(t, decimal.RequireFromString("998.00").Equal(gw.lastAmount))
}

func TestCreateSession_EmptyItems(t *testing.T) {
	sessions, _ := newSessions()

	_, err := sessions.Create(context.Background(), SessionRequest{
		Amount: decimal.NewFromInt(100),
	})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreateSession_NonPositiveAmount(t *testing.T) {
	sessions, _ := newSessions(testProduct("p1", map[string]int{"M": 5}))

	_, err := sessions.Create(context.Background(), SessionRequest{
		Amount: decimal.Zero,
		Items:  []SessionItem{{ProductID: "p1", Size: "M", Quantity: 1}},
	})
	require.Error(t, err)
}

func TestCreateSession_ProductNotFound(t *testing.T) {
	sessions, _ := newSessions()

	_, err := sessions.Create(context.Background(), SessionRequest{
		Amount: decimal.NewFromInt(100),
		Items:  []SessionItem{{ProductID: "missing", Size: "M", Quantity: 1}},
	})

	var notFound *inventory.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ProductID)
}

func TestCreateSession_SizeAbsentVsZeroStock(t *testing.T) {
	sessions, _ := newSessions(testProduct("p1", map[string]int{"M": 0}))

	// Size present with zero stock is a shortage, not an unknown size.
	_, err := sessions.Create(context.Background(), SessionRequest{
		Amount: decimal.NewFromInt(100),
		Items:  []SessionItem{{ProductID: "p1", Size: "M", Quantity: 1}},
	})
	var shortage *inventory.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, 0, shortage.Available)

	// Size missing entirely is its own error.
	_, err = sessions.Create(context.Background(), SessionRequest{
		Amount: decimal.NewFromInt(100),
		Items:  []SessionItem{{ProductID: "p1", Size: "L", Quantity: 1}},
	})
	var noSize *inventory.SizeNotFoundError
	require.ErrorAs(t, err, &noSize)
	assert.Equal(t, "L", noSize.Size)
}

func TestCreateSession_InsufficientStock(t *testing.T) {
	sessions, gw := newSessions(testProduct("p1", map[string]int{"M": 2}))

	_, err := sessions.Create(context.Background(), SessionRequest{
		Amount: decimal.NewFromInt(100),
		Items:  []SessionItem{{ProductID: "p1", Size: "M", Quantity: 3}},
	})

	var shortage *inventory.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, 2, shortage.Available)
	assert.Equal(t, 3, shortage.Requested)
	assert.Empty(t, gw.lastReceipt, "gateway must not be called on a failed pre-check")
}
