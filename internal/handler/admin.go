package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmwangi/zawadi-shop/internal/analytics"
	"github.com/jmwangi/zawadi-shop/internal/catalog"
	"github.com/jmwangi/zawadi-shop/internal/order"
	"github.com/jmwangi/zawadi-shop/internal/settings"
	"github.com/jmwangi/zawadi-shop/internal/user"
)

type ProductRequest struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	Price        float64 `json:"price" validate:"gte=0"`
	Stock        int     `json:"stock" validate:"gte=0"`
	CategoryID   *string `json:"category_id" validate:"omitempty,uuid4"`
	ImageURL     *string `json:"image_url"`
	IsBestseller bool    `json:"is_bestseller"`
	IsFeatured   bool    `json:"is_featured"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid failed shipped delivered"`
}

type UpdateSettingsRequest struct {
	StoreName    string `json:"store_name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone" validate:"required"`
	Currency     string `json:"currency" validate:"required,len=3"`
}

// AdminHandler serves the management surface: catalog writes, user listing,
// order fulfilment, analytics and store settings.
type AdminHandler struct {
	catalog   catalog.Service
	orders    order.Service
	users     user.Repository
	settings  settings.Repository
	analytics analytics.Service
	validate  *validator.Validate
}

func NewAdminHandler(
	catalogSvc catalog.Service,
	orders order.Service,
	users user.Repository,
	settingsRepo settings.Repository,
	analyticsSvc analytics.Service,
) *AdminHandler {
	return &AdminHandler{
		catalog:   catalogSvc,
		orders:    orders,
		users:     users,
		settings:  settingsRepo,
		analytics: analyticsSvc,
		validate:  validator.New(),
	}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/products", h.handleCreateProduct)
	r.Put("/products/{id}", h.handleUpdateProduct)
	r.Delete("/products/{id}", h.handleDeleteProduct)

	r.Post("/categories", h.handleCreateCategory)
	r.Put("/categories/{id}", h.handleUpdateCategory)
	r.Delete("/categories/{id}", h.handleDeleteCategory)

	r.Get("/users", h.handleListUsers)
	r.Get("/orders", h.handleListOrders)
	r.Get("/orders/{id}", h.handleGetOrder)
	r.Put("/orders/{id}/status", h.handleUpdateOrderStatus)

	r.Get("/analytics", h.handleAnalytics)
	r.Get("/settings", h.handleGetSettings)
	r.Put("/settings", h.handleUpdateSettings)
}

func (h *AdminHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("handler: failed to decode admin request")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		if !respondWithValidationErrors(w, err) {
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func productFromRequest(w http.ResponseWriter, req *ProductRequest) (*catalog.Product, bool) {
	p := &catalog.Product{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		ImageURL:     req.ImageURL,
		IsBestseller: req.IsBestseller,
		IsFeatured:   req.IsFeatured,
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.FromString(*req.CategoryID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid category_id")
			return nil, false
		}
		p.CategoryID = &categoryID
	}
	return p, true
}

func (h *AdminHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	p, ok := productFromRequest(w, &req)
	if !ok {
		return
	}

	created, err := h.catalog.CreateProduct(r.Context(), p)
	if err != nil {
		respondWithDomainError(w, err, "Failed to create product")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	p, ok := productFromRequest(w, &req)
	if !ok {
		return
	}
	p.ID = id

	updated, err := h.catalog.UpdateProduct(r.Context(), p)
	if err != nil {
		respondWithDomainError(w, err, "Failed to update product")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		respondWithDomainError(w, err, "Failed to delete product")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"detail": "Product deleted"})
}

func (h *AdminHandler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.catalog.CreateCategory(r.Context(), &catalog.Category{Name: req.Name})
	if err != nil {
		respondWithDomainError(w, err, "Failed to create category")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.catalog.UpdateCategory(r.Context(), &catalog.Category{ID: id, Name: req.Name})
	if err != nil {
		respondWithDomainError(w, err, "Failed to update category")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		respondWithDomainError(w, err, "Failed to delete category")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"detail": "Category deleted"})
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondWithDomainError(w, err, "Failed to list users")
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAllOrders(r.Context())
	if err != nil {
		respondWithDomainError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	o, err := h.orders.GetAnyOrder(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, order.Status(req.Status)); err != nil {
		respondWithDomainError(w, err, "Failed to update order status")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"detail": "Order status updated"})
}

func (h *AdminHandler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.analytics.GetSnapshot(r.Context())
	if err != nil {
		respondWithDomainError(w, err, "Failed to compute analytics")
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

func (h *AdminHandler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		respondWithDomainError(w, err, "Failed to load settings")
		return
	}
	respondWithJSON(w, http.StatusOK, s)
}

func (h *AdminHandler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	s := &settings.Settings{
		StoreName:    req.StoreName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Currency:     req.Currency,
	}
	if err := h.settings.Update(r.Context(), s); err != nil {
		respondWithDomainError(w, err, "Failed to update settings")
		return
	}
	respondWithJSON(w, http.StatusOK, s)
}
