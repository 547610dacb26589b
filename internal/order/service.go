package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// allowedTransitions encodes the order status machine. Payment outcomes move
// pending orders to a terminal payment state; fulfilment moves paid orders
// onward. failed and delivered are terminal.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusPaid:   true,
		StatusFailed: true,
	},
	StatusPaid: {
		StatusShipped: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
	StatusFailed:    {},
	StatusDelivered: {},
}

var (
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

type Service interface {
	// CreateOrder places an order from priced line items. Prices are the
	// caller's snapshot; the total is computed from them, not from the
	// catalog.
	CreateOrder(ctx context.Context, userID uuid.UUID, items []ItemInput) (*Order, error)
	GetOrder(ctx context.Context, userID, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]Order, error)
	// ListAllOrders and GetAnyOrder serve the admin surface and skip the
	// ownership check.
	ListAllOrders(ctx context.Context) ([]Order, error)
	GetAnyOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	// UpdateStatus applies an admin fulfilment transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, items []ItemInput) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	orderItems := make([]Item, 0, len(items))
	var total float64

	for i, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, fmt.Errorf("service: item %d: product id is required", i)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("service: item %d: quantity must be positive, got %d", i, item.Quantity)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("service: item %d: price cannot be negative, got %f", i, item.Price)
		}

		orderItems = append(orderItems, Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
		total += float64(item.Quantity) * item.Price
	}

	o := &Order{
		UserID: userID,
		Total:  total,
		Status: StatusPending,
		Items:  orderItems,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrInsufficientStock) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Stringer("order_id", o.ID).
		Stringer("user_id", userID).
		Float64("total", o.Total).
		Msg("service: order created")

	return o, nil
}

func (s *service) GetOrder(ctx context.Context, userID, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByUserAndID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	return o, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) ListAllOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}

	return orders, nil
}

func (s *service) GetAnyOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		log.Info().Stringer("order_id", id).Stringer("status", newStatus).Msg("service: order status already set")
		return nil
	}

	if !allowedTransitions[current.Status][newStatus] {
		log.Warn().
			Stringer("order_id", id).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().
		Stringer("order_id", id).
		Stringer("old_status", current.Status).
		Stringer("new_status", newStatus).
		Msg("service: order status updated")

	return nil
}
