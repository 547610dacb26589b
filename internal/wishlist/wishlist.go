package wishlist

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmwangi/zawadi-shop/internal/catalog"
)

type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]Item, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	// Remove reports whether an item was actually deleted.
	Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	query := `SELECT product_id, created_at FROM wishlist_items WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query wishlist for user %s: %w", userID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating wishlist items: %w", err)
	}

	return items, nil
}

func (r *postgresRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	query := `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("repository: failed to add wishlist item: %w", err)
	}

	return nil
}

func (r *postgresRepository) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("repository: failed to remove wishlist item: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

type ProductReader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]Item, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type service struct {
	repo    Repository
	catalog ProductReader
}

func NewService(repo Repository, catalogReader ProductReader) Service {
	return &service{repo: repo, catalog: catalogReader}
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	return s.repo.List(ctx, userID)
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}

	return s.repo.Add(ctx, userID, productID)
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.repo.Remove(ctx, userID, productID)
}
