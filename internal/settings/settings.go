package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings is the singleton store configuration row. Most recent write wins.
type Settings struct {
	StoreName    string    `json:"store_name"`
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	Currency     string    `json:"currency"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Get(ctx context.Context) (*Settings, error) {
	query := `SELECT store_name, contact_email, contact_phone, currency, updated_at FROM settings WHERE id = 1`

	var s Settings
	err := r.db.QueryRow(ctx, query).Scan(&s.StoreName, &s.ContactEmail, &s.ContactPhone, &s.Currency, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to select settings: %w", err)
	}

	return &s, nil
}

func (r *postgresRepository) Update(ctx context.Context, s *Settings) error {
	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE settings
		SET store_name = $1, contact_email = $2, contact_phone = $3, currency = $4, updated_at = $5
		WHERE id = 1
	`
	if _, err := r.db.Exec(ctx, query, s.StoreName, s.ContactEmail, s.ContactPhone, s.Currency, s.UpdatedAt); err != nil {
		return fmt.Errorf("repository: failed to update settings: %w", err)
	}

	return nil
}
