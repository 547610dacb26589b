package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/jmwangi/zawadi-shop/internal/wishlist"
)

type AddWishlistItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
}

// AccountHandler covers the remaining authenticated user surface: profile
// and wishlist.
type AccountHandler struct {
	wishlist wishlist.Service
	validate *validator.Validate
}

func NewAccountHandler(wishlistSvc wishlist.Service) *AccountHandler {
	return &AccountHandler{
		wishlist: wishlistSvc,
		validate: validator.New(),
	}
}

func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.handleGetProfile)
	r.Get("/wishlist", h.handleListWishlist)
	r.Post("/wishlist", h.handleAddWishlistItem)
	r.Delete("/wishlist/{productID}", h.handleRemoveWishlistItem)
}

func (h *AccountHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, UserFromContext(r.Context()))
}

func (h *AccountHandler) handleListWishlist(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	items, err := h.wishlist.List(r.Context(), u.ID)
	if err != nil {
		respondWithDomainError(w, err, "Failed to list wishlist")
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *AccountHandler) handleAddWishlistItem(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	var req AddWishlistItemRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
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

	if err := h.wishlist.Add(r.Context(), u.ID, productID); err != nil {
		respondWithDomainError(w, err, "Failed to add wishlist item")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"detail": "Added to wishlist"})
}

func (h *AccountHandler) handleRemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())

	productID, ok := parseUUIDParam(w, r, "productID")
	if !ok {
		return
	}

	removed, err := h.wishlist.Remove(r.Context(), u.ID, productID)
	if err != nil {
		respondWithDomainError(w, err, "Failed to remove wishlist item")
		return
	}
	if !removed {
		respondWithError(w, http.StatusNotFound, "Wishlist item not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"detail": "Removed from wishlist"})
}
