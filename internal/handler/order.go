package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmwangi/zawadi-shop/internal/checkout"
	"github.com/jmwangi/zawadi-shop/internal/order"
	"github.com/jmwangi/zawadi-shop/pkg/metrics"
)

type OrderItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid4"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderHandler struct {
	orders   order.Service
	checkout checkout.Service
	metrics  *metrics.ShopMetrics
	validate *validator.Validate
}

func NewOrderHandler(orders order.Service, checkoutSvc checkout.Service, m *metrics.ShopMetrics) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		checkout: checkoutSvc,
		metrics:  m,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.handleCreateOrder)
	r.Post("/orders/from-cart", h.handlePlaceOrderFromCart)
	r.Get("/orders", h.handleListOrders)
	r.Get("/orders/{id}", h.handleGetOrder)
}

// handleCreateOrder places an order from explicit priced items: the prices
// are the caller's snapshot from when the cart was shown.
func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	var req CreateOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		log.Warn().Err(err).Msg("handler: failed to decode create order request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		if !respondWithValidationErrors(w, err) {
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	items := make([]order.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.FromString(item.ProductID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid product_id")
			return
		}
		items = append(items, order.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	o, err := h.orders.CreateOrder(r.Context(), u.ID, items)
	if err != nil {
		respondWithDomainError(w, err, "Failed to create order")
		return
	}

	h.metrics.OrdersCreated.Inc()
	respondWithJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) handlePlaceOrderFromCart(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	o, err := h.checkout.PlaceOrderFromCart(r.Context(), u.ID)
	if err != nil {
		respondWithDomainError(w, err, "Failed to place order")
		return
	}

	h.metrics.OrdersCreated.Inc()
	respondWithJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	orders, err := h.orders.ListOrders(r.Context(), u.ID)
	if err != nil {
		respondWithDomainError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	o, err := h.orders.GetOrder(r.Context(), u.ID, id)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}
