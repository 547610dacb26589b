package order

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	CreateOrderFunc    func(ctx context.Context, o *Order) error
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByUserAndIDFunc func(ctx context.Context, userID, id uuid.UUID) (*Order, error)
	ListByUserFunc     func(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListAllFunc        func(ctx context.Context) ([]Order, error)
	UpdateStatusFunc   func(ctx context.Context, id uuid.UUID, status Status) error
}

func (m *mockRepository) CreateOrder(ctx context.Context, o *Order) error {
	return m.CreateOrderFunc(ctx, o)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockRepository) GetByUserAndID(ctx context.Context, userID, id uuid.UUID) (*Order, error) {
	return m.GetByUserAndIDFunc(ctx, userID, id)
}

func (m *mockRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *mockRepository) ListAll(ctx context.Context) ([]Order, error) {
	return m.ListAllFunc(ctx)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return m.UpdateStatusFunc(ctx, id, status)
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.FromString(s)
	require.NoError(t, err)
	return id
}

func TestService_CreateOrder(t *testing.T) {
	userID := mustUUID(t, "123e4567-e89b-12d3-a456-426614174000")
	basketID := mustUUID(t, "550e8400-e29b-41d4-a716-446655440000")
	shukaID := mustUUID(t, "660e8400-e29b-41d4-a716-446655440001")

	var created *Order
	repo := &mockRepository{
		CreateOrderFunc: func(ctx context.Context, o *Order) error {
			created = o
			return nil
		},
	}

	svc := NewService(repo)
	o, err := svc.CreateOrder(context.Background(), userID, []ItemInput{
		{ProductID: basketID, Quantity: 2, Price: 150},
		{ProductID: shukaID, Quantity: 1, Price: 48},
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, userID, o.UserID)
	assert.Equal(t, StatusPending, o.Status)
	assert.InDelta(t, 348.0, o.Total, 1e-9)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 150.0, o.Items[0].Price)
}

func TestService_CreateOrder_Validation(t *testing.T) {
	productID := mustUUID(t, "550e8400-e29b-41d4-a716-446655440000")

	tests := []struct {
		name    string
		items   []ItemInput
		wantErr error
	}{
		{
			name:    "empty order",
			items:   nil,
			wantErr: ErrEmptyOrder,
		},
		{
			name:  "missing product id",
			items: []ItemInput{{Quantity: 1, Price: 10}},
		},
		{
			name:  "non-positive quantity",
			items: []ItemInput{{ProductID: productID, Quantity: 0, Price: 10}},
		},
		{
			name:  "negative price",
			items: []ItemInput{{ProductID: productID, Quantity: 1, Price: -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				CreateOrderFunc: func(ctx context.Context, o *Order) error {
					t.Fatal("repository must not be called for invalid input")
					return nil
				},
			}

			svc := NewService(repo)
			_, err := svc.CreateOrder(context.Background(), uuid.Nil, tt.items)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestService_CreateOrder_StockFailurePassesThrough(t *testing.T) {
	productID := mustUUID(t, "550e8400-e29b-41d4-a716-446655440000")

	repo := &mockRepository{
		CreateOrderFunc: func(ctx context.Context, o *Order) error {
			return ErrInsufficientStock
		},
	}

	svc := NewService(repo)
	_, err := svc.CreateOrder(context.Background(), uuid.Nil, []ItemInput{
		{ProductID: productID, Quantity: 5, Price: 100},
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestService_UpdateStatus(t *testing.T) {
	orderID := mustUUID(t, "660e8400-e29b-41d4-a716-446655440001")

	tests := []struct {
		name       string
		current    Status
		next       Status
		wantErr    error
		wantUpdate bool
	}{
		{
			name:       "pending to paid",
			current:    StatusPending,
			next:       StatusPaid,
			wantUpdate: true,
		},
		{
			name:       "pending to failed",
			current:    StatusPending,
			next:       StatusFailed,
			wantUpdate: true,
		},
		{
			name:       "paid to shipped",
			current:    StatusPaid,
			next:       StatusShipped,
			wantUpdate: true,
		},
		{
			name:       "shipped to delivered",
			current:    StatusShipped,
			next:       StatusDelivered,
			wantUpdate: true,
		},
		{
			name:    "pending cannot ship",
			current: StatusPending,
			next:    StatusShipped,
			wantErr: ErrInvalidStatusTransition,
		},
		{
			name:    "delivered is terminal",
			current: StatusDelivered,
			next:    StatusShipped,
			wantErr: ErrInvalidStatusTransition,
		},
		{
			name:    "failed is terminal",
			current: StatusFailed,
			next:    StatusPaid,
			wantErr: ErrInvalidStatusTransition,
		},
		{
			name:    "same status is a no-op",
			current: StatusPaid,
			next:    StatusPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := false
			repo := &mockRepository{
				GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*Order, error) {
					return &Order{ID: id, Status: tt.current}, nil
				},
				UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, status Status) error {
					updated = true
					assert.Equal(t, tt.next, status)
					return nil
				},
			}

			svc := NewService(repo)
			err := svc.UpdateStatus(context.Background(), orderID, tt.next)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantUpdate, updated)
		})
	}
}

func TestService_ListAllOrders(t *testing.T) {
	orderID := mustUUID(t, "660e8400-e29b-41d4-a716-446655440001")

	repo := &mockRepository{
		ListAllFunc: func(ctx context.Context) ([]Order, error) {
			return []Order{{ID: orderID, Status: StatusPaid}}, nil
		},
	}

	svc := NewService(repo)
	orders, err := svc.ListAllOrders(context.Background())

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].ID)
}

func TestService_GetAnyOrder(t *testing.T) {
	orderID := mustUUID(t, "660e8400-e29b-41d4-a716-446655440001")
	otherUser := mustUUID(t, "999e8400-e29b-41d4-a716-446655440000")

	repo := &mockRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*Order, error) {
			return &Order{ID: id, UserID: otherUser, Status: StatusPending}, nil
		},
	}

	svc := NewService(repo)
	o, err := svc.GetAnyOrder(context.Background(), orderID)

	require.NoError(t, err)
	assert.Equal(t, otherUser, o.UserID)
}

func TestService_GetAnyOrder_NotFound(t *testing.T) {
	repo := &mockRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*Order, error) {
			return nil, ErrOrderNotFound
		},
	}

	svc := NewService(repo)
	_, err := svc.GetAnyOrder(context.Background(), uuid.Nil)

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_UpdateStatus_NotFound(t *testing.T) {
	repo := &mockRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*Order, error) {
			return nil, ErrOrderNotFound
		},
	}

	svc := NewService(repo)
	err := svc.UpdateStatus(context.Background(), uuid.Nil, StatusPaid)

	assert.ErrorIs(t, err, ErrOrderNotFound)
}
