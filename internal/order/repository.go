package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	// CreateOrder reserves stock and persists the order header and items in a
	// single transaction. If any stock reservation fails, nothing is written.
	CreateOrder(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByUserAndID(ctx context.Context, userID, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	// ListAll returns every order, most recent first, for the admin surface.
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// reservationOrder returns the items sorted by product id without touching
// the caller's slice. The stored order keeps the caller's item order.
func reservationOrder(items []Item) []Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].ProductID.Bytes(), sorted[j].ProductID.Bytes()) < 0
	})
	return sorted
}

func (r *postgresRepository) CreateOrder(ctx context.Context, o *Order) (err error) {
	if o.ID == uuid.Nil {
		id, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		o.ID = id
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	// Reserve stock with a conditional decrement. Zero affected rows means the
	// product is gone or the stock no longer covers the quantity; either way
	// the whole order is aborted before anything becomes visible. Reservations
	// run in product-id order so two orders touching the same products cannot
	// deadlock on opposing row-lock acquisition.
	reserveQuery := `UPDATE products SET stock = stock - $1, updated_at = now() WHERE id = $2 AND stock >= $1`
	for _, item := range reservationOrder(o.Items) {
		cmdTag, execErr := tx.Exec(ctx, reserveQuery, item.Quantity, item.ProductID)
		if execErr != nil {
			err = fmt.Errorf("repository: failed to reserve stock for product %s: %w", item.ProductID, execErr)
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			var exists bool
			if scanErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, item.ProductID).Scan(&exists); scanErr != nil {
				err = fmt.Errorf("repository: failed to check product %s: %w", item.ProductID, scanErr)
				return err
			}
			if !exists {
				err = fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
				return err
			}
			err = fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
			return err
		}
	}

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	orderQuery := `
		INSERT INTO orders (id, user_id, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err = tx.Exec(ctx, orderQuery, o.ID, o.UserID, o.Total, string(o.Status), o.CreatedAt, o.UpdatedAt); err != nil {
		err = fmt.Errorf("repository: failed to insert order: %w", err)
		return err
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range o.Items {
		item := &o.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return err
		}
		item.ID = itemID
		item.OrderID = o.ID

		if _, err = tx.Exec(ctx, itemQuery, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price); err != nil {
			err = fmt.Errorf("repository: failed to insert order item for order %s: %w", o.ID, err)
			return err
		}
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOrder(ctx, `SELECT id, user_id, total, status, created_at, updated_at FROM orders WHERE id = $1`, id)
}

func (r *postgresRepository) GetByUserAndID(ctx context.Context, userID, id uuid.UUID) (*Order, error) {
	return r.getOrder(ctx,
		`SELECT id, user_id, total, status, created_at, updated_at FROM orders WHERE id = $1 AND user_id = $2`,
		id, userID)
}

func (r *postgresRepository) getOrder(ctx context.Context, query string, args ...any) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&o.ID,
		&o.UserID,
		&o.Total,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = $1
	`
	rows, err := r.db.Query(ctx, itemsQuery, o.ID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %s: %w", o.ID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order %s: %w", o.ID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order %s: %w", o.ID, err)
	}
	o.Items = items

	return &o, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	ordersQuery := `
		SELECT id, user_id, total, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.listOrders(ctx, ordersQuery, userID)
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	ordersQuery := `
		SELECT id, user_id, total, status, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`
	return r.listOrders(ctx, ordersQuery)
}

func (r *postgresRepository) listOrders(ctx context.Context, ordersQuery string, args ...any) ([]Order, error) {
	orderRows, err := r.db.Query(ctx, ordersQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		var o Order
		if err := orderRows.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Items = make([]Item, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	itemsQuery := `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
	`
	itemRows, err := r.db.Query(ctx, itemsQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item Item
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	orders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *ordersMap[id])
	}

	return orders, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	cmdTag, err := r.db.Exec(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}
