package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmwangi/zawadi-shop/internal/order"
)

type mockOrderService struct {
	CreateOrderFunc   func(ctx context.Context, userID uuid.UUID, items []order.ItemInput) (*order.Order, error)
	GetOrderFunc      func(ctx context.Context, userID, id uuid.UUID) (*order.Order, error)
	ListOrdersFunc    func(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
	ListAllOrdersFunc func(ctx context.Context) ([]order.Order, error)
	GetAnyOrderFunc   func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	UpdateStatusFunc  func(ctx context.Context, id uuid.UUID, status order.Status) error
}

func (m *mockOrderService) CreateOrder(ctx context.Context, userID uuid.UUID, items []order.ItemInput) (*order.Order, error) {
	return m.CreateOrderFunc(ctx, userID, items)
}

func (m *mockOrderService) GetOrder(ctx context.Context, userID, id uuid.UUID) (*order.Order, error) {
	return m.GetOrderFunc(ctx, userID, id)
}

func (m *mockOrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return m.ListOrdersFunc(ctx, userID)
}

func (m *mockOrderService) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	return m.ListAllOrdersFunc(ctx)
}

func (m *mockOrderService) GetAnyOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.GetAnyOrderFunc(ctx, id)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	return m.UpdateStatusFunc(ctx, id, status)
}

func newAdminRouter(orders order.Service) *chi.Mux {
	h := NewAdminHandler(nil, orders, nil, nil, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestAdminHandler_ListOrders(t *testing.T) {
	orderID, _ := uuid.FromString("660e8400-e29b-41d4-a716-446655440001")

	orders := &mockOrderService{
		ListAllOrdersFunc: func(ctx context.Context) ([]order.Order, error) {
			return []order.Order{{ID: orderID, Status: order.StatusPaid, Total: 348}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	w := httptest.NewRecorder()
	newAdminRouter(orders).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), orderID.String())
}

func TestAdminHandler_GetOrder(t *testing.T) {
	orderID, _ := uuid.FromString("660e8400-e29b-41d4-a716-446655440001")
	ownerID, _ := uuid.FromString("123e4567-e89b-12d3-a456-426614174000")

	tests := []struct {
		name           string
		path           string
		getAnyOrder    func(ctx context.Context, id uuid.UUID) (*order.Order, error)
		expectedStatus int
	}{
		{
			name: "returns any user's order",
			path: "/orders/" + orderID.String(),
			getAnyOrder: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				assert.Equal(t, orderID, id)
				return &order.Order{ID: id, UserID: ownerID, Status: order.StatusPending}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/orders/" + orderID.String(),
			getAnyOrder: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid id",
			path:           "/orders/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrderService{GetAnyOrderFunc: tt.getAnyOrder}

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			newAdminRouter(orders).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAdminHandler_UpdateOrderStatus(t *testing.T) {
	orderID, _ := uuid.FromString("660e8400-e29b-41d4-a716-446655440001")

	tests := []struct {
		name           string
		body           string
		updateStatus   func(ctx context.Context, id uuid.UUID, status order.Status) error
		expectedStatus int
	}{
		{
			name: "valid transition",
			body: `{"status":"shipped"}`,
			updateStatus: func(ctx context.Context, id uuid.UUID, status order.Status) error {
				assert.Equal(t, order.StatusShipped, status)
				return nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "invalid transition",
			body: `{"status":"delivered"}`,
			updateStatus: func(ctx context.Context, id uuid.UUID, status order.Status) error {
				return order.ErrInvalidStatusTransition
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unknown status value",
			body:           `{"status":"teleported"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrderService{UpdateStatusFunc: tt.updateStatus}

			req := httptest.NewRequest(http.MethodPut, "/orders/"+orderID.String()+"/status", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			newAdminRouter(orders).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
