package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmwangi/zawadi-shop/internal/catalog"
)

var ErrOutOfStock = errors.New("requested quantity exceeds available stock")

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

type Service interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) error
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	// ComputeTotals repairs the stored lines against current stock and prices
	// the result.
	ComputeTotals(ctx context.Context, userID uuid.UUID) (*Totals, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo    Repository
	catalog ProductReader
	taxRate float64
}

func NewService(repo Repository, catalogReader ProductReader, taxRate float64) Service {
	return &service{
		repo:    repo,
		catalog: catalogReader,
		taxRate: taxRate,
	}
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("service: quantity must be positive, got %d", qty)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.Stock == 0 {
		return ErrOutOfStock
	}

	existing := 0
	line, err := s.repo.GetLine(ctx, userID, productID)
	if err != nil && !errors.Is(err, ErrLineNotFound) {
		return fmt.Errorf("service: failed to read cart line: %w", err)
	}
	if line != nil {
		existing = line.Quantity
	}

	if existing+qty > product.Stock {
		return ErrOutOfStock
	}

	if err := s.repo.AddQuantity(ctx, userID, productID, qty); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: failed to add cart item")
		return fmt.Errorf("service: failed to add cart item: %w", err)
	}

	return nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if qty < 0 {
		return fmt.Errorf("service: quantity cannot be negative, got %d", qty)
	}

	if qty == 0 {
		removed, err := s.repo.RemoveLine(ctx, userID, productID)
		if err != nil {
			return fmt.Errorf("service: failed to remove cart line: %w", err)
		}
		if !removed {
			return ErrLineNotFound
		}
		return nil
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if qty > product.Stock {
		return ErrOutOfStock
	}

	return s.repo.SetQuantity(ctx, userID, productID, qty)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.repo.RemoveLine(ctx, userID, productID)
}

func (s *service) ComputeTotals(ctx context.Context, userID uuid.UUID) (*Totals, error) {
	lines, err := s.repo.GetLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}

	priced := make([]PricedLine, 0, len(lines))
	var subtotal float64

	for _, line := range lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				// Product vanished since the line was written; drop the line.
				if _, err := s.repo.RemoveLine(ctx, userID, line.ProductID); err != nil {
					return nil, fmt.Errorf("service: failed to drop stale cart line: %w", err)
				}
				log.Info().Stringer("user_id", userID).Stringer("product_id", line.ProductID).Msg("service: dropped cart line for missing product")
				continue
			}
			return nil, err
		}

		if product.Stock == 0 {
			if _, err := s.repo.RemoveLine(ctx, userID, line.ProductID); err != nil {
				return nil, fmt.Errorf("service: failed to drop out-of-stock cart line: %w", err)
			}
			log.Info().Stringer("user_id", userID).Stringer("product_id", line.ProductID).Msg("service: dropped cart line for out-of-stock product")
			continue
		}

		qty := line.Quantity
		if qty > product.Stock {
			qty = product.Stock
			if err := s.repo.SetQuantity(ctx, userID, line.ProductID, qty); err != nil {
				return nil, fmt.Errorf("service: failed to clamp cart line: %w", err)
			}
			log.Info().
				Stringer("user_id", userID).
				Stringer("product_id", line.ProductID).
				Int("requested", line.Quantity).
				Int("clamped", qty).
				Msg("service: clamped cart line to available stock")
		}

		lineTotal := float64(qty) * product.Price
		priced = append(priced, PricedLine{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  qty,
			Price:     product.Price,
			LineTotal: lineTotal,
		})
		subtotal += lineTotal
	}

	tax := subtotal * s.taxRate

	return &Totals{
		Lines:    priced,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}
