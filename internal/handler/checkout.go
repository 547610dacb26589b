package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jmwangi/zawadi-shop/internal/checkout"
	"github.com/jmwangi/zawadi-shop/internal/mpesa"
	"github.com/jmwangi/zawadi-shop/pkg/metrics"
)

type InitiateCheckoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	Address       string `json:"address" validate:"required"`
	PhoneNumber   string `json:"phone_number" validate:"required,min=10,max=15"`
}

type CheckoutHandler struct {
	checkout checkout.Service
	metrics  *metrics.ShopMetrics
	validate *validator.Validate
}

func NewCheckoutHandler(checkoutSvc checkout.Service, m *metrics.ShopMetrics) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkoutSvc,
		metrics:  m,
		validate: validator.New(),
	}
}

func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout/{orderID}", h.handleInitiate)
	r.Get("/checkout/{orderID}", h.handleGetCheckout)
}

// RegisterCallbackRoute mounts the provider-facing callback endpoint. It is
// public: the provider does not authenticate, so the (order, correlation id)
// pairing inside the service is what gates state changes.
func (h *CheckoutHandler) RegisterCallbackRoute(r chi.Router) {
	r.Post("/callback/{orderID}", h.handleCallback)
}

func (h *CheckoutHandler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	orderID, ok := parseUUIDParam(w, r, "orderID")
	if !ok {
		return
	}

	var req InitiateCheckoutRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		log.Warn().Err(err).Msg("handler: failed to decode checkout request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		if !respondWithValidationErrors(w, err) {
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	c, err := h.checkout.Initiate(r.Context(), u.ID, orderID, req.PaymentMethod, req.Address, req.PhoneNumber)
	if err != nil {
		h.metrics.STKPushes.WithLabelValues("error").Inc()
		respondWithDomainError(w, err, "Failed to initiate checkout")
		return
	}

	h.metrics.STKPushes.WithLabelValues("initiated").Inc()
	respondWithJSON(w, http.StatusAccepted, c)
}

func (h *CheckoutHandler) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	orderID, ok := parseUUIDParam(w, r, "orderID")
	if !ok {
		return
	}

	c, err := h.checkout.GetCheckout(r.Context(), u.ID, orderID)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get checkout")
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *CheckoutHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseUUIDParam(w, r, "orderID")
	if !ok {
		return
	}

	var envelope mpesa.CallbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		log.Warn().Err(err).Stringer("order_id", orderID).Msg("handler: malformed payment callback")
		h.metrics.Callbacks.WithLabelValues("rejected").Inc()
		respondWithError(w, http.StatusBadRequest, "Invalid callback payload")
		return
	}

	if err := h.checkout.HandleCallback(r.Context(), orderID, envelope.Body.STKCallback); err != nil {
		h.metrics.Callbacks.WithLabelValues("rejected").Inc()
		respondWithDomainError(w, err, "Failed to process callback")
		return
	}

	h.metrics.Callbacks.WithLabelValues("accepted").Inc()
	respondWithJSON(w, http.StatusOK, map[string]string{"detail": "Callback processed"})
}
