package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrLineNotFound = errors.New("cart line not found")

type Repository interface {
	GetLines(ctx context.Context, userID uuid.UUID) ([]Line, error)
	GetLine(ctx context.Context, userID, productID uuid.UUID) (*Line, error)
	// AddQuantity merges qty into an existing line or creates a new one.
	AddQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error
	// RemoveLine reports whether a line was actually deleted.
	RemoveLine(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetLines(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	query := `
		SELECT product_id, quantity, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY updated_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart lines for user %s: %w", userID, err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart lines: %w", err)
	}

	return lines, nil
}

func (r *postgresRepository) GetLine(ctx context.Context, userID, productID uuid.UUID) (*Line, error) {
	query := `SELECT product_id, quantity, updated_at FROM cart_items WHERE user_id = $1 AND product_id = $2`

	var l Line
	err := r.db.QueryRow(ctx, query, userID, productID).Scan(&l.ProductID, &l.Quantity, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart line: %w", err)
	}

	return &l, nil
}

func (r *postgresRepository) AddQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
	`

	if _, err := r.db.Exec(ctx, query, userID, productID, qty); err != nil {
		return fmt.Errorf("repository: failed to add cart quantity: %w", err)
	}

	return nil
}

func (r *postgresRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	query := `UPDATE cart_items SET quantity = $1, updated_at = now() WHERE user_id = $2 AND product_id = $3`

	cmdTag, err := r.db.Exec(ctx, query, qty, userID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to set cart quantity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineNotFound
	}

	return nil
}

func (r *postgresRepository) RemoveLine(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("repository: failed to remove cart line: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func (r *postgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("repository: failed to clear cart for user %s: %w", userID, err)
	}

	return nil
}
