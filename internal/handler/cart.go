package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmwangi/zawadi-shop/internal/cart"
)

type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type CartHandler struct {
	carts    cart.Service
	validate *validator.Validate
}

func NewCartHandler(carts cart.Service) *CartHandler {
	return &CartHandler{
		carts:    carts,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.handleGetCart)
	r.Post("/cart/items", h.handleAddItem)
	r.Put("/cart/items/{productID}", h.handleUpdateItem)
	r.Delete("/cart/items/{productID}", h.handleRemoveItem)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	totals, err := h.carts.ComputeTotals(r.Context(), u.ID)
	if err != nil {
		respondWithDomainError(w, err, "Failed to load cart")
		return
	}
	respondWithJSON(w, http.StatusOK, totals)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	var req AddCartItemRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		log.Warn().Err(err).Msg("handler: failed to decode add cart item request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		if !respondWithValidationErrors(w, err) {
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	productID, err := uuid.FromString(req.ProductID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product_id")
		return
	}

	if err := h.carts.AddItem(r.Context(), u.ID, productID, req.Quantity); err != nil {
		respondWithDomainError(w, err, "Failed to add item to cart")
		return
	}

	totals, err := h.carts.ComputeTotals(r.Context(), u.ID)
	if err != nil {
		respondWithDomainError(w, err, "Failed to load cart")
		return
	}
	respondWithJSON(w, http.StatusCreated, totals)
}

func (h *CartHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	productID, ok := parseUUIDParam(w, r, "productID")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		if !respondWithValidationErrors(w, err) {
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), u.ID, productID, req.Quantity); err != nil {
		respondWithDomainError(w, err, "Failed to update cart item")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"detail": "Cart updated"})
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	productID, ok := parseUUIDParam(w, r, "productID")
	if !ok {
		return
	}

	removed, err := h.carts.RemoveItem(r.Context(), u.ID, productID)
	if err != nil {
		respondWithDomainError(w, err, "Failed to remove cart item")
		return
	}
	if !removed {
		respondWithError(w, http.StatusNotFound, "Cart item not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"detail": "Item removed from cart"})
}
