package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/jmwangi/zawadi-shop/internal/catalog"
)

// ShopHandler serves the public, read-only catalog surface.
type ShopHandler struct {
	catalog catalog.Service
}

func NewShopHandler(catalogSvc catalog.Service) *ShopHandler {
	return &ShopHandler{catalog: catalogSvc}
}

func (h *ShopHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.handleListCategories)
	r.Get("/categories/{id}", h.handleGetCategory)
	r.Get("/products", h.handleListProducts)
	r.Get("/products/{id}", h.handleGetProduct)
	r.Get("/bestsellers", h.handleBestsellers)
	r.Get("/featured", h.handleFeatured)
}

func (h *ShopHandler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondWithDomainError(w, err, "Failed to list categories")
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *ShopHandler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get category")
		return
	}
	respondWithJSON(w, http.StatusOK, category)
}

func (h *ShopHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		respondWithDomainError(w, err, "Failed to list products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ShopHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get product")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

func (h *ShopHandler) handleBestsellers(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListBestsellers(r.Context(), limitParam(r))
	if err != nil {
		respondWithDomainError(w, err, "Failed to list bestsellers")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *ShopHandler) handleFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListFeatured(r.Context(), limitParam(r))
	if err != nil {
		respondWithDomainError(w, err, "Failed to list featured products")
		return
	}
	respondWithJSON(w, http.StatusOK, products)
}

func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.FromString(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}
