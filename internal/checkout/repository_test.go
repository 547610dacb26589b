package checkout_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmwangi/zawadi-shop/internal/checkout"
	"github.com/jmwangi/zawadi-shop/internal/order"
)

var db *pgxpool.Pool

func TestMain(m *testing.M) {
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr != "" {
		var err error
		db, err = pgxpool.New(context.Background(), connStr)
		if err != nil {
			log.Fatalf("Failed to connect to test database: %v", err)
		}
	}

	exitCode := m.Run()

	if db != nil {
		db.Close()
	}

	os.Exit(exitCode)
}

func setup(t *testing.T) checkout.Repository {
	if db == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}

	truncate := func() {
		_, err := db.Exec(context.Background(),
			"TRUNCATE TABLE payments, checkouts, order_items, orders, cart_items, wishlist_items, products, categories, users CASCADE")
		if err != nil {
			t.Fatalf("Failed to truncate tables: %v", err)
		}
	}

	truncate()
	t.Cleanup(truncate)

	return checkout.NewRepository(db)
}

// seedOrder inserts a user and a pending order owned by them.
func seedOrder(t *testing.T, total float64) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	userID, err := uuid.FromString("123e4567-e89b-12d3-a456-426614174000")
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO users (id, username) VALUES ($1, $2)`, userID, "wanjiru")
	require.NoError(t, err)

	orderID, err := uuid.FromString("660e8400-e29b-41d4-a716-446655440001")
	require.NoError(t, err)
	_, err = db.Exec(ctx,
		`INSERT INTO orders (id, user_id, total, status) VALUES ($1, $2, $3, $4)`,
		orderID, userID, total, string(order.StatusPending))
	require.NoError(t, err)

	return orderID
}

// seedCheckout creates a pending checkout correlated to checkoutRequestID,
// with its mirroring payment row, through the repository itself.
func seedCheckout(t *testing.T, repo checkout.Repository, orderID uuid.UUID, checkoutRequestID string) *checkout.Checkout {
	t.Helper()

	c := &checkout.Checkout{
		OrderID:        orderID,
		PaymentMethod:  checkout.MethodMpesa,
		PaymentStatus:  checkout.PaymentPending,
		Address:        "12 Biashara Street, Nairobi",
		PhoneNumber:    "254712345678",
		TransactionRef: checkoutRequestID,
	}
	p := &checkout.Payment{
		Amount:        348,
		TransactionID: checkoutRequestID,
		Status:        checkout.PaymentPending,
	}
	require.NoError(t, repo.CreateWithPayment(context.Background(), c, p))

	return c
}

func checkoutState(t *testing.T, orderID uuid.UUID) (status, ref string, updatedAt time.Time) {
	t.Helper()
	err := db.QueryRow(context.Background(),
		`SELECT payment_status, transaction_ref, updated_at FROM checkouts WHERE order_id = $1`, orderID).
		Scan(&status, &ref, &updatedAt)
	require.NoError(t, err)
	return status, ref, updatedAt
}

func orderStatus(t *testing.T, orderID uuid.UUID) string {
	t.Helper()
	var status string
	err := db.QueryRow(context.Background(), `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
	require.NoError(t, err)
	return status
}

func paymentStatus(t *testing.T, checkoutID uuid.UUID) string {
	t.Helper()
	var status string
	err := db.QueryRow(context.Background(), `SELECT status FROM payments WHERE checkout_id = $1`, checkoutID).Scan(&status)
	require.NoError(t, err)
	return status
}

func TestRepository_CreateWithPayment(t *testing.T) {
	repo := setup(t)
	orderID := seedOrder(t, 348)

	c := seedCheckout(t, repo, orderID, "ws_CO_191220231020363925")

	saved, err := repo.GetByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, checkout.PaymentPending, saved.PaymentStatus)
	assert.Equal(t, "ws_CO_191220231020363925", saved.TransactionRef)
	assert.Equal(t, "pending", paymentStatus(t, c.ID))
}

func TestRepository_CreateWithPayment_Duplicate(t *testing.T) {
	repo := setup(t)
	orderID := seedOrder(t, 348)

	seedCheckout(t, repo, orderID, "ws_CO_191220231020363925")

	c := &checkout.Checkout{
		OrderID:        orderID,
		PaymentMethod:  checkout.MethodMpesa,
		PaymentStatus:  checkout.PaymentPending,
		Address:        "12 Biashara Street, Nairobi",
		PhoneNumber:    "254712345678",
		TransactionRef: "ws_CO_second_attempt",
	}
	p := &checkout.Payment{Amount: 348, TransactionID: "ws_CO_second_attempt", Status: checkout.PaymentPending}

	err := repo.CreateWithPayment(context.Background(), c, p)
	require.ErrorIs(t, err, checkout.ErrCheckoutExists)

	var checkouts, payments int
	require.NoError(t, db.QueryRow(context.Background(), `SELECT count(*) FROM checkouts`).Scan(&checkouts))
	require.NoError(t, db.QueryRow(context.Background(), `SELECT count(*) FROM payments`).Scan(&payments))
	assert.Equal(t, 1, checkouts)
	assert.Equal(t, 1, payments)
}

func TestRepository_ApplyCallback_Success(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	orderID := seedOrder(t, 348)
	c := seedCheckout(t, repo, orderID, "ws_CO_191220231020363925")

	res, err := repo.ApplyCallback(ctx, orderID, "ws_CO_191220231020363925", true, "NLJ7RT61SV")
	require.NoError(t, err)
	assert.Equal(t, checkout.ResolutionApply, res)

	status, ref, _ := checkoutState(t, orderID)
	assert.Equal(t, "paid", status)
	assert.Equal(t, "NLJ7RT61SV", ref)
	assert.Equal(t, "paid", orderStatus(t, orderID))
	assert.Equal(t, "paid", paymentStatus(t, c.ID))
}

func TestRepository_ApplyCallback_Failure(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	orderID := seedOrder(t, 348)
	c := seedCheckout(t, repo, orderID, "ws_CO_191220231020363925")

	res, err := repo.ApplyCallback(ctx, orderID, "ws_CO_191220231020363925", false, "")
	require.NoError(t, err)
	assert.Equal(t, checkout.ResolutionApply, res)

	status, ref, _ := checkoutState(t, orderID)
	assert.Equal(t, "failed", status)
	assert.Equal(t, "ws_CO_191220231020363925", ref, "failed checkouts keep the correlation id")
	assert.Equal(t, "failed", orderStatus(t, orderID))
	assert.Equal(t, "failed", paymentStatus(t, c.ID))
}

func TestRepository_ApplyCallback_ReplayWritesNothing(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	orderID := seedOrder(t, 348)
	seedCheckout(t, repo, orderID, "ws_CO_191220231020363925")

	res, err := repo.ApplyCallback(ctx, orderID, "ws_CO_191220231020363925", true, "NLJ7RT61SV")
	require.NoError(t, err)
	require.Equal(t, checkout.ResolutionApply, res)

	_, _, appliedAt := checkoutState(t, orderID)

	res, err = repo.ApplyCallback(ctx, orderID, "ws_CO_191220231020363925", true, "NLJ7RT61SV")
	require.NoError(t, err)
	assert.Equal(t, checkout.ResolutionReplay, res)

	status, ref, updatedAt := checkoutState(t, orderID)
	assert.Equal(t, "paid", status)
	assert.Equal(t, "NLJ7RT61SV", ref)
	assert.True(t, updatedAt.Equal(appliedAt), "replay must not touch the row")
}

func TestRepository_ApplyCallback_ConflictWritesNothing(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	orderID := seedOrder(t, 348)
	c := seedCheckout(t, repo, orderID, "ws_CO_191220231020363925")

	res, err := repo.ApplyCallback(ctx, orderID, "ws_CO_191220231020363925", true, "NLJ7RT61SV")
	require.NoError(t, err)
	require.Equal(t, checkout.ResolutionApply, res)

	// A contradictory late delivery must not demote the paid checkout.
	res, err = repo.ApplyCallback(ctx, orderID, "ws_CO_191220231020363925", false, "")
	require.NoError(t, err)
	assert.Equal(t, checkout.ResolutionConflict, res)

	status, ref, _ := checkoutState(t, orderID)
	assert.Equal(t, "paid", status)
	assert.Equal(t, "NLJ7RT61SV", ref)
	assert.Equal(t, "paid", orderStatus(t, orderID))
	assert.Equal(t, "paid", paymentStatus(t, c.ID))
}

func TestRepository_ApplyCallback_MismatchLeavesPending(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	orderID := seedOrder(t, 348)
	seedCheckout(t, repo, orderID, "ws_CO_191220231020363925")

	res, err := repo.ApplyCallback(ctx, orderID, "ws_CO_some_other_push", true, "NLJ7RT61SV")
	require.NoError(t, err)
	assert.Equal(t, checkout.ResolutionMismatch, res)

	status, ref, _ := checkoutState(t, orderID)
	assert.Equal(t, "pending", status)
	assert.Equal(t, "ws_CO_191220231020363925", ref)
	assert.Equal(t, "pending", orderStatus(t, orderID))
}

func TestRepository_ApplyCallback_UnknownOrder(t *testing.T) {
	repo := setup(t)

	orderID, err := uuid.FromString("99999999-0000-0000-0000-000000000000")
	require.NoError(t, err)

	_, err = repo.ApplyCallback(context.Background(), orderID, "ws_CO_191220231020363925", true, "NLJ7RT61SV")
	assert.ErrorIs(t, err, checkout.ErrCheckoutNotFound)
}
