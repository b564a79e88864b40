package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hakkisagdic/otokoc-demo/internal/bus"
	"github.com/hakkisagdic/otokoc-demo/internal/catalog"
	"github.com/hakkisagdic/otokoc-demo/internal/events"
	"github.com/hakkisagdic/otokoc-demo/internal/inventory"
	"github.com/hakkisagdic/otokoc-demo/internal/order"
	"github.com/hakkisagdic/otokoc-demo/internal/payment"
	"github.com/hakkisagdic/otokoc-demo/internal/state"
)

type fakeCatalog struct {
	users    map[string]*catalog.User
	products map[string]*catalog.Product
}

func (f *fakeCatalog) GetUser(ctx context.Context, userID string) (*catalog.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, catalog.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

type apiFixture struct {
	server  *httptest.Server
	ledger  *inventory.Ledger
	catalog *fakeCatalog
}

func newAPIFixture(t *testing.T, declineRate float64) *apiFixture {
	t.Helper()
	ctx := context.Background()
	logger := log.New(io.Discard, "", 0)

	store := state.NewMemoryStore()
	memBus := bus.NewMemoryBus("test", logger)

	orderRepo := order.NewRepository(store)
	invRepo := inventory.NewRepository(store)
	payRepo := payment.NewRepository(store)

	gateway := payment.NewSimulatedGateway(declineRate, 0, 0, 7)
	processor := payment.NewProcessor(payRepo, gateway, logger)
	ledger := inventory.NewLedger(invRepo, memBus, 3, logger)

	cat := &fakeCatalog{
		users:    map[string]*catalog.User{"u1": {ID: "u1", Name: "Test User"}},
		products: map[string]*catalog.Product{},
	}
	saga := order.NewSaga(orderRepo, cat, processor, memBus, logger)

	subs := []struct {
		topic   string
		handler bus.HandlerFunc
	}{
		{events.TopicPaymentCompleted, order.PaymentCompletedHandler(saga, logger)},
		{events.TopicInventoryReserved, order.InventoryReservedHandler(saga, logger)},
		{events.TopicReserveInventory, inventory.ReserveInventoryHandler(ledger, logger)},
		{events.TopicOrderShipped, inventory.OrderShippedHandler(ledger, logger)},
		{events.TopicOrderCancelled, inventory.OrderCancelledHandler(ledger, logger)},
		{events.TopicOrderCancelled, payment.OrderCancelledHandler(processor, logger)},
	}
	for _, sub := range subs {
		require.NoError(t, memBus.Subscribe(ctx, sub.topic, "test", sub.handler))
	}

	h := NewHandler(saga, orderRepo, ledger, payRepo, logger)
	server := httptest.NewServer(NewRouter(h))
	t.Cleanup(server.Close)

	return &apiFixture{server: server, ledger: ledger, catalog: cat}
}

func (f *apiFixture) stockProduct(t *testing.T, productID string, price float64, quantity int) {
	t.Helper()
	f.catalog.products[productID] = &catalog.Product{ID: productID, Name: productID, Price: price, Available: quantity}
	_, err := f.ledger.AdjustStock(context.Background(), productID, quantity, "A1", 0)
	require.NoError(t, err)
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 && json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (f *apiFixture) createOrder(t *testing.T, quantity int) string {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/orders", map[string]any{
		"userId":        "u1",
		"items":         []map[string]any{{"productId": "p1", "quantity": quantity}},
		"paymentMethod": "credit_card",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["orderId"].(string)
}

var cardBody = map[string]string{
	"cardNumber": "4111111111111111",
	"cardHolder": "Test User",
	"expiry":     "12/30",
	"cvv":        "123",
}

func TestCreateOrderEndpoint(t *testing.T) {
	f := newAPIFixture(t, 0)
	f.stockProduct(t, "p1", 19.99, 10)

	resp, body := f.do(t, http.MethodPost, "/api/orders", map[string]any{
		"userId": "u1",
		"items":  []map[string]any{{"productId": "p1", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "pending", body["status"])
	require.InDelta(t, 39.98, body["totalAmount"].(float64), 0.001)

	orderID := body["orderId"].(string)
	resp, body = f.do(t, http.MethodGet, "/api/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, orderID, body["orderId"])
}

func TestCreateOrderErrors(t *testing.T) {
	f := newAPIFixture(t, 0)
	f.stockProduct(t, "p1", 10, 3)

	tests := map[string]struct {
		body       any
		wantStatus int
	}{
		"empty items": {
			body:       map[string]any{"userId": "u1", "items": []map[string]any{}},
			wantStatus: http.StatusBadRequest,
		},
		"unknown user": {
			body:       map[string]any{"userId": "ghost", "items": []map[string]any{{"productId": "p1", "quantity": 1}}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		"insufficient stock": {
			body:       map[string]any{"userId": "u1", "items": []map[string]any{{"productId": "p1", "quantity": 4}}},
			wantStatus: http.StatusConflict,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, "/api/orders", tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			require.NotEmpty(t, body["error"])
		})
	}

	t.Run("insufficient stock carries quantities", func(t *testing.T) {
		resp, body := f.do(t, http.MethodPost, "/api/orders", map[string]any{
			"userId": "u1",
			"items":  []map[string]any{{"productId": "p1", "quantity": 4}},
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		details := body["details"].(map[string]any)
		require.Equal(t, float64(4), details["requested"])
		require.Equal(t, float64(3), details["available"])
	})
}

func TestGetOrderNotFound(t *testing.T) {
	f := newAPIFixture(t, 0)
	resp, _ := f.do(t, http.MethodGet, "/api/orders/ghost", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPaymentEndpointDrivesOrderToShipped(t *testing.T) {
	f := newAPIFixture(t, 0)
	f.stockProduct(t, "p1", 5, 10)
	orderID := f.createOrder(t, 2)

	resp, body := f.do(t, http.MethodPost, "/api/orders/"+orderID+"/payment", cardBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pay := body["payment"].(map[string]any)
	require.Equal(t, "completed", pay["status"])
	require.Equal(t, "1111", pay["cardLast4"])

	resp, body = f.do(t, http.MethodGet, "/api/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "shipped", body["status"])

	resp, body = f.do(t, http.MethodGet, "/api/inventory/p1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(8), body["quantity"])
	require.Equal(t, float64(0), body["reserved"])

	// A second payment attempt hits the state machine guard.
	resp, _ = f.do(t, http.MethodPost, "/api/orders/"+orderID+"/payment", cardBody)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPaymentDeclinedEndpoint(t *testing.T) {
	f := newAPIFixture(t, 1.0)
	f.stockProduct(t, "p1", 5, 10)
	orderID := f.createOrder(t, 1)

	resp, body := f.do(t, http.MethodPost, "/api/orders/"+orderID+"/payment", cardBody)
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	details := body["details"].(map[string]any)
	require.NotEmpty(t, details["reason"])

	resp, body = f.do(t, http.MethodGet, "/api/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "pending", body["status"])
}

func TestCancelEndpoint(t *testing.T) {
	f := newAPIFixture(t, 0)
	f.stockProduct(t, "p1", 5, 10)

	t.Run("pending order", func(t *testing.T) {
		orderID := f.createOrder(t, 1)
		resp, body := f.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", map[string]string{"reason": "typo"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "cancelled", body["status"])
		require.Equal(t, "typo", body["cancellationReason"])
	})

	t.Run("shipped order is rejected", func(t *testing.T) {
		orderID := f.createOrder(t, 1)
		resp, _ := f.do(t, http.MethodPost, "/api/orders/"+orderID+"/payment", cardBody)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = f.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", map[string]string{"reason": "too late"})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestUpdateStatusEndpoint(t *testing.T) {
	f := newAPIFixture(t, 0)
	f.stockProduct(t, "p1", 5, 10)
	orderID := f.createOrder(t, 1)

	resp, _ := f.do(t, http.MethodPatch, "/api/orders/"+orderID+"/status", map[string]string{"status": "not-a-status"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := f.do(t, http.MethodPatch, "/api/orders/"+orderID+"/status", map[string]string{"status": "delivered", "note": "left at door"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "delivered", body["status"])
}

func TestListOrdersByUserEndpoint(t *testing.T) {
	f := newAPIFixture(t, 0)
	f.stockProduct(t, "p1", 5, 10)
	f.createOrder(t, 1)
	f.createOrder(t, 2)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/users/u1/orders", nil)
	require.NoError(t, err)
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	require.Len(t, orders, 2)
}

func TestInventoryEndpoints(t *testing.T) {
	f := newAPIFixture(t, 0)

	resp, _ := f.do(t, http.MethodGet, "/api/inventory/ghost", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/api/inventory/adjust", map[string]any{
		"productId":    "p1",
		"quantity":     20,
		"location":     "B2",
		"reorderLevel": 5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(20), body["quantity"])

	resp, _ = f.do(t, http.MethodPost, "/api/inventory/adjust", map[string]any{"quantity": 5})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListPaymentsByOrderEndpoint(t *testing.T) {
	f := newAPIFixture(t, 0)
	f.stockProduct(t, "p1", 5, 10)
	orderID := f.createOrder(t, 1)

	resp, _ := f.do(t, http.MethodPost, "/api/orders/"+orderID+"/payment", cardBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/payments/by-order/%s", f.server.URL, orderID), nil)
	require.NoError(t, err)
	resp, err = f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payments []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payments))
	require.Len(t, payments, 1)
	require.Equal(t, "completed", payments[0]["status"])
}
