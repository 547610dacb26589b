package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmwangi/zawadi-shop/internal/checkout"
	"github.com/jmwangi/zawadi-shop/internal/mpesa"
	"github.com/jmwangi/zawadi-shop/internal/order"
	"github.com/jmwangi/zawadi-shop/internal/user"
	"github.com/jmwangi/zawadi-shop/pkg/metrics"
)

type mockCheckoutService struct {
	PlaceOrderFromCartFunc func(ctx context.Context, userID uuid.UUID) (*order.Order, error)
	InitiateFunc           func(ctx context.Context, userID, orderID uuid.UUID, method, address, phone string) (*checkout.Checkout, error)
	GetCheckoutFunc        func(ctx context.Context, userID, orderID uuid.UUID) (*checkout.Checkout, error)
	HandleCallbackFunc     func(ctx context.Context, orderID uuid.UUID, cb mpesa.STKCallback) error
}

func (m *mockCheckoutService) PlaceOrderFromCart(ctx context.Context, userID uuid.UUID) (*order.Order, error) {
	return m.PlaceOrderFromCartFunc(ctx, userID)
}

func (m *mockCheckoutService) Initiate(ctx context.Context, userID, orderID uuid.UUID, method, address, phone string) (*checkout.Checkout, error) {
	return m.InitiateFunc(ctx, userID, orderID, method, address, phone)
}

func (m *mockCheckoutService) GetCheckout(ctx context.Context, userID, orderID uuid.UUID) (*checkout.Checkout, error) {
	return m.GetCheckoutFunc(ctx, userID, orderID)
}

func (m *mockCheckoutService) HandleCallback(ctx context.Context, orderID uuid.UUID, cb mpesa.STKCallback) error {
	return m.HandleCallbackFunc(ctx, orderID, cb)
}

// newTestMetrics builds unregistered counters so tests do not collide on the
// default registry.
func newTestMetrics() *metrics.ShopMetrics {
	return &metrics.ShopMetrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_created_total"}),
		STKPushes:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "stk_pushes_total"}, []string{"outcome"}),
		Callbacks:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "payment_callbacks_total"}, []string{"result"}),
	}
}

func withTestUser(r *http.Request, id uuid.UUID) *http.Request {
	u := &user.User{ID: id, Username: "wanjiku", Role: user.RoleUser}
	return r.WithContext(context.WithValue(r.Context(), userContextKey, u))
}

func TestCheckoutHandler_Initiate(t *testing.T) {
	userID, _ := uuid.FromString("123e4567-e89b-12d3-a456-426614174000")
	orderID, _ := uuid.FromString("660e8400-e29b-41d4-a716-446655440001")

	tests := []struct {
		name           string
		body           string
		initiate       func(ctx context.Context, uid, oid uuid.UUID, method, address, phone string) (*checkout.Checkout, error)
		expectedStatus int
	}{
		{
			name: "accepted",
			body: `{"payment_method":"mpesa","address":"Moi Avenue, Nairobi","phone_number":"254712345678"}`,
			initiate: func(ctx context.Context, uid, oid uuid.UUID, method, address, phone string) (*checkout.Checkout, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, orderID, oid)
				assert.Equal(t, "mpesa", method)
				return &checkout.Checkout{OrderID: oid, PaymentStatus: checkout.PaymentPending, TransactionRef: "ws_CO_260831"}, nil
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name: "unsupported method",
			body: `{"payment_method":"card","address":"Moi Avenue, Nairobi","phone_number":"254712345678"}`,
			initiate: func(ctx context.Context, uid, oid uuid.UUID, method, address, phone string) (*checkout.Checkout, error) {
				return nil, checkout.ErrUnsupportedMethod
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "order not pending",
			body: `{"payment_method":"mpesa","address":"Moi Avenue, Nairobi","phone_number":"254712345678"}`,
			initiate: func(ctx context.Context, uid, oid uuid.UUID, method, address, phone string) (*checkout.Checkout, error) {
				return nil, checkout.ErrOrderNotPending
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "gateway down",
			body: `{"payment_method":"mpesa","address":"Moi Avenue, Nairobi","phone_number":"254712345678"}`,
			initiate: func(ctx context.Context, uid, oid uuid.UUID, method, address, phone string) (*checkout.Checkout, error) {
				return nil, checkout.ErrGatewayUnavailable
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "missing phone number",
			body:           `{"payment_method":"mpesa","address":"Moi Avenue, Nairobi"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			body:           `{not json}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCheckoutService{InitiateFunc: tt.initiate}
			h := NewCheckoutHandler(svc, newTestMetrics())

			r := chi.NewRouter()
			h.RegisterRoutes(r)

			req := httptest.NewRequest(http.MethodPost, "/checkout/"+orderID.String(), bytes.NewBufferString(tt.body))
			req = withTestUser(req, userID)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestCheckoutHandler_Callback(t *testing.T) {
	orderID, _ := uuid.FromString("660e8400-e29b-41d4-a716-446655440001")

	successBody := `{
		"Body": {
			"stkCallback": {
				"CheckoutRequestID": "ws_CO_260831",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [{"Name": "MpesaReceiptNumber", "Value": "QK12XYZ"}]
				}
			}
		}
	}`

	t.Run("accepted callback", func(t *testing.T) {
		var got mpesa.STKCallback
		svc := &mockCheckoutService{
			HandleCallbackFunc: func(ctx context.Context, oid uuid.UUID, cb mpesa.STKCallback) error {
				assert.Equal(t, orderID, oid)
				got = cb
				return nil
			},
		}
		m := newTestMetrics()
		h := NewCheckoutHandler(svc, m)

		r := chi.NewRouter()
		h.RegisterCallbackRoute(r)

		req := httptest.NewRequest(http.MethodPost, "/callback/"+orderID.String(), bytes.NewBufferString(successBody))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ws_CO_260831", got.CheckoutRequestID)
		assert.Equal(t, "QK12XYZ", got.ReceiptNumber())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Callbacks.WithLabelValues("accepted")))
	})

	t.Run("rejected callback", func(t *testing.T) {
		svc := &mockCheckoutService{
			HandleCallbackFunc: func(ctx context.Context, oid uuid.UUID, cb mpesa.STKCallback) error {
				return checkout.ErrInvalidCallback
			},
		}
		m := newTestMetrics()
		h := NewCheckoutHandler(svc, m)

		r := chi.NewRouter()
		h.RegisterCallbackRoute(r)

		req := httptest.NewRequest(http.MethodPost, "/callback/"+orderID.String(), bytes.NewBufferString(successBody))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Callbacks.WithLabelValues("rejected")))
	})

	t.Run("malformed payload", func(t *testing.T) {
		svc := &mockCheckoutService{
			HandleCallbackFunc: func(ctx context.Context, oid uuid.UUID, cb mpesa.STKCallback) error {
				t.Fatal("service must not be called for malformed payloads")
				return nil
			},
		}
		h := NewCheckoutHandler(svc, newTestMetrics())

		r := chi.NewRouter()
		h.RegisterCallbackRoute(r)

		req := httptest.NewRequest(http.MethodPost, "/callback/"+orderID.String(), bytes.NewBufferString(`{broken`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid order id", func(t *testing.T) {
		h := NewCheckoutHandler(&mockCheckoutService{}, newTestMetrics())

		r := chi.NewRouter()
		h.RegisterCallbackRoute(r)

		req := httptest.NewRequest(http.MethodPost, "/callback/not-a-uuid", bytes.NewBufferString(successBody))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
