package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListBestsellers(ctx context.Context, limit int) ([]Product, error)
	ListFeatured(ctx context.Context, limit int) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	UpdateCategory(ctx context.Context, c *Category) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *service) ListBestsellers(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.ListBestsellers(ctx, limit)
}

func (s *service) ListFeatured(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.repo.ListFeatured(ctx, limit)
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if p.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, *p.CategoryID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		log.Error().Err(err).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Str("name", p.Name).Msg("service: product created")
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", p.ID).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	if c.Name == "" {
		return nil, errors.New("service: category name is required")
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("service: failed to create category: %w", err)
	}

	return c, nil
}

func (s *service) UpdateCategory(ctx context.Context, c *Category) (*Category, error) {
	if c.Name == "" {
		return nil, errors.New("service: category name is required")
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, id)
}

func validateProduct(p *Product) error {
	if p.Name == "" {
		return errors.New("service: product name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("service: product price cannot be negative, got %f", p.Price)
	}
	if p.Stock < 0 {
		return fmt.Errorf("service: product stock cannot be negative, got %d", p.Stock)
	}
	return nil
}
