package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrCheckoutNotFound = errors.New("checkout not found")
	ErrCheckoutExists   = errors.New("checkout already exists for this order")
)

type Repository interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Checkout, error)
	// CreateWithPayment persists the checkout and its mirroring payment row in
	// one transaction.
	CreateWithPayment(ctx context.Context, c *Checkout, p *Payment) error
	// ApplyCallback locks the checkout row for orderID, resolves the callback
	// against it, and on ResolutionApply finalizes checkout, order and payment
	// together. Replays and rejections write nothing.
	ApplyCallback(ctx context.Context, orderID uuid.UUID, checkoutRequestID string, succeeded bool, receipt string) (Resolution, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const checkoutColumns = `id, order_id, payment_method, payment_status, address, phone_number, transaction_ref, created_at, updated_at`

func (r *postgresRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Checkout, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkouts WHERE order_id = $1`

	var c Checkout
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&c.ID,
		&c.OrderID,
		&c.PaymentMethod,
		&c.PaymentStatus,
		&c.Address,
		&c.PhoneNumber,
		&c.TransactionRef,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCheckoutNotFound
		}
		return nil, fmt.Errorf("repository: failed to select checkout for order %s: %w", orderID, err)
	}

	return &c, nil
}

func (r *postgresRepository) CreateWithPayment(ctx context.Context, c *Checkout, p *Payment) (err error) {
	checkoutID, genErr := uuid.NewV4()
	if genErr != nil {
		return fmt.Errorf("repository: failed to generate checkout ID: %w", genErr)
	}
	paymentID, genErr := uuid.NewV4()
	if genErr != nil {
		return fmt.Errorf("repository: failed to generate payment ID: %w", genErr)
	}

	c.ID = checkoutID
	p.ID = paymentID
	p.CheckoutID = checkoutID

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	p.CreatedAt = now

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	checkoutQuery := `
		INSERT INTO checkouts (id, order_id, payment_method, payment_status, address, phone_number, transaction_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, checkoutQuery,
		c.ID, c.OrderID, c.PaymentMethod, string(c.PaymentStatus), c.Address, c.PhoneNumber, c.TransactionRef, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrCheckoutExists
			return err
		}
		err = fmt.Errorf("repository: failed to insert checkout for order %s: %w", c.OrderID, err)
		return err
	}

	paymentQuery := `
		INSERT INTO payments (id, checkout_id, amount, transaction_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, paymentQuery, p.ID, p.CheckoutID, p.Amount, p.TransactionID, string(p.Status), p.CreatedAt)
	if err != nil {
		err = fmt.Errorf("repository: failed to insert payment for checkout %s: %w", c.ID, err)
		return err
	}

	return nil
}

func (r *postgresRepository) ApplyCallback(ctx context.Context, orderID uuid.UUID, checkoutRequestID string, succeeded bool, receipt string) (res Resolution, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return 0, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("repository: failed to rollback after panic")
			}
			panic(p)
		} else if err != nil || res != ResolutionApply {
			// Replays and rejections write nothing.
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("repository: failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	// Lock the row so two near-simultaneous deliveries of the same callback
	// serialize; the loser re-reads terminal state and resolves to a replay.
	lockQuery := `SELECT ` + checkoutColumns + ` FROM checkouts WHERE order_id = $1 FOR UPDATE`

	var c Checkout
	err = tx.QueryRow(ctx, lockQuery, orderID).Scan(
		&c.ID,
		&c.OrderID,
		&c.PaymentMethod,
		&c.PaymentStatus,
		&c.Address,
		&c.PhoneNumber,
		&c.TransactionRef,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrCheckoutNotFound
			return 0, err
		}
		err = fmt.Errorf("repository: failed to lock checkout for order %s: %w", orderID, err)
		return 0, err
	}

	res = resolveCallback(&c, checkoutRequestID, succeeded, receipt)
	if res != ResolutionApply {
		return res, nil
	}

	newStatus := PaymentFailed
	newRef := c.TransactionRef
	if succeeded {
		newStatus = PaymentPaid
		newRef = receipt
	}
	now := time.Now().UTC()

	checkoutQuery := `UPDATE checkouts SET payment_status = $1, transaction_ref = $2, updated_at = $3 WHERE id = $4`
	if _, err = tx.Exec(ctx, checkoutQuery, string(newStatus), newRef, now, c.ID); err != nil {
		err = fmt.Errorf("repository: failed to update checkout %s: %w", c.ID, err)
		return 0, err
	}

	orderQuery := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err = tx.Exec(ctx, orderQuery, string(newStatus), now, orderID); err != nil {
		err = fmt.Errorf("repository: failed to update order %s: %w", orderID, err)
		return 0, err
	}

	paymentQuery := `UPDATE payments SET status = $1 WHERE checkout_id = $2`
	if _, err = tx.Exec(ctx, paymentQuery, string(newStatus), c.ID); err != nil {
		err = fmt.Errorf("repository: failed to update payment for checkout %s: %w", c.ID, err)
		return 0, err
	}

	return ResolutionApply, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
