package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmwangi/zawadi-shop/internal/cart"
	"github.com/jmwangi/zawadi-shop/internal/mpesa"
	"github.com/jmwangi/zawadi-shop/internal/order"
)

var (
	ErrUnsupportedMethod  = errors.New("payment method not supported")
	ErrOrderNotPending    = errors.New("order is not awaiting payment")
	ErrInvalidCallback    = errors.New("invalid payment callback")
	ErrGatewayUnavailable = errors.New("payment gateway request failed")
)

// Gateway starts an asynchronous push payment; the outcome arrives later via
// HandleCallback.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, phone string, amount float64, reference string) (*mpesa.STKPushResponse, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, items []order.ItemInput) (*order.Order, error)
	GetOrder(ctx context.Context, userID, id uuid.UUID) (*order.Order, error)
}

type CartService interface {
	ComputeTotals(ctx context.Context, userID uuid.UUID) (*cart.Totals, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type Service interface {
	// PlaceOrderFromCart prices the user's cart, places the order, and clears
	// the cart once the order is durably created.
	PlaceOrderFromCart(ctx context.Context, userID uuid.UUID) (*order.Order, error)
	// Initiate starts a push payment for the order. The returned checkout is
	// pending; confirmation arrives asynchronously.
	Initiate(ctx context.Context, userID, orderID uuid.UUID, method, address, phone string) (*Checkout, error)
	GetCheckout(ctx context.Context, userID, orderID uuid.UUID) (*Checkout, error)
	HandleCallback(ctx context.Context, orderID uuid.UUID, cb mpesa.STKCallback) error
}

type service struct {
	repo    Repository
	orders  OrderService
	carts   CartService
	gateway Gateway
}

func NewService(repo Repository, orders OrderService, carts CartService, gateway Gateway) Service {
	return &service{
		repo:    repo,
		orders:  orders,
		carts:   carts,
		gateway: gateway,
	}
}

func (s *service) PlaceOrderFromCart(ctx context.Context, userID uuid.UUID) (*order.Order, error) {
	totals, err := s.carts.ComputeTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to price cart: %w", err)
	}
	if len(totals.Lines) == 0 {
		return nil, order.ErrEmptyOrder
	}

	items := make([]order.ItemInput, 0, len(totals.Lines))
	for _, line := range totals.Lines {
		items = append(items, order.ItemInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	o, err := s.orders.CreateOrder(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	// The order is committed; a failure to clear the cart must not undo it.
	if err := s.carts.Clear(ctx, userID); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Stringer("order_id", o.ID).Msg("service: failed to clear cart after order placement")
	}

	return o, nil
}

func (s *service) Initiate(ctx context.Context, userID, orderID uuid.UUID, method, address, phone string) (*Checkout, error) {
	o, err := s.orders.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if strings.ToLower(method) != MethodMpesa {
		return nil, ErrUnsupportedMethod
	}
	if o.Status != order.StatusPending {
		return nil, ErrOrderNotPending
	}

	if _, err := s.repo.GetByOrderID(ctx, orderID); err == nil {
		return nil, ErrCheckoutExists
	} else if !errors.Is(err, ErrCheckoutNotFound) {
		return nil, fmt.Errorf("service: failed to check existing checkout: %w", err)
	}

	// No checkout or payment rows exist yet, so a gateway failure here leaves
	// the order pending and retryable.
	pushResp, err := s.gateway.InitiateSTKPush(ctx, phone, o.Total, o.ID.String())
	if err != nil {
		// Transport detail stays in the log; callers see only the sentinel.
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: stk push initiation failed")
		return nil, ErrGatewayUnavailable
	}

	c := &Checkout{
		OrderID:        orderID,
		PaymentMethod:  MethodMpesa,
		PaymentStatus:  PaymentPending,
		Address:        address,
		PhoneNumber:    phone,
		TransactionRef: pushResp.CheckoutRequestID,
	}
	p := &Payment{
		Amount:        o.Total,
		TransactionID: pushResp.CheckoutRequestID,
		Status:        PaymentPending,
	}

	if err := s.repo.CreateWithPayment(ctx, c, p); err != nil {
		if errors.Is(err, ErrCheckoutExists) {
			return nil, ErrCheckoutExists
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to persist checkout")
		return nil, fmt.Errorf("service: failed to persist checkout: %w", err)
	}

	log.Info().
		Stringer("order_id", orderID).
		Str("checkout_request_id", c.TransactionRef).
		Msg("service: checkout initiated, awaiting callback")

	return c, nil
}

func (s *service) GetCheckout(ctx context.Context, userID, orderID uuid.UUID) (*Checkout, error) {
	if _, err := s.orders.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}

	return s.repo.GetByOrderID(ctx, orderID)
}

func (s *service) HandleCallback(ctx context.Context, orderID uuid.UUID, cb mpesa.STKCallback) error {
	if cb.CheckoutRequestID == "" {
		return fmt.Errorf("%w: missing CheckoutRequestID", ErrInvalidCallback)
	}

	receipt := cb.ReceiptNumber()
	if cb.Succeeded() && receipt == "" {
		return fmt.Errorf("%w: success callback without receipt number", ErrInvalidCallback)
	}

	res, err := s.repo.ApplyCallback(ctx, orderID, cb.CheckoutRequestID, cb.Succeeded(), receipt)
	if err != nil {
		if errors.Is(err, ErrCheckoutNotFound) {
			return fmt.Errorf("%w: no checkout for order %s", ErrInvalidCallback, orderID)
		}
		return fmt.Errorf("service: failed to apply callback: %w", err)
	}

	switch res {
	case ResolutionApply:
		log.Info().
			Stringer("order_id", orderID).
			Int("result_code", cb.ResultCode).
			Bool("paid", cb.Succeeded()).
			Msg("service: payment callback applied")
		return nil
	case ResolutionReplay:
		log.Info().
			Stringer("order_id", orderID).
			Str("checkout_request_id", cb.CheckoutRequestID).
			Msg("service: duplicate payment callback ignored")
		return nil
	default:
		log.Warn().
			Stringer("order_id", orderID).
			Str("checkout_request_id", cb.CheckoutRequestID).
			Msg("service: payment callback rejected")
		return fmt.Errorf("%w: callback does not match checkout state", ErrInvalidCallback)
	}
}
