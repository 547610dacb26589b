package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jmwangi/zawadi-shop/internal/cart"
	"github.com/jmwangi/zawadi-shop/internal/catalog"
	"github.com/jmwangi/zawadi-shop/internal/checkout"
	"github.com/jmwangi/zawadi-shop/internal/order"
	"github.com/jmwangi/zawadi-shop/internal/user"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithValidationErrors(w http.ResponseWriter, err error) bool {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return false
	}
	respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:   "Validation failed",
		Details: formatValidationErrors(validationErrors),
	})
	return true
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
	}
	return details
}

// mapErrorToStatusCode translates domain sentinels to HTTP statuses. Absent
// and not-owned resources both land on 404 so callers cannot probe for other
// users' data.
func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, checkout.ErrCheckoutNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, checkout.ErrUnsupportedMethod),
		errors.Is(err, checkout.ErrInvalidCallback):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrCheckoutExists),
		errors.Is(err, checkout.ErrOrderNotPending),
		errors.Is(err, order.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage hides internal errors behind a generic message; known domain
// errors are safe to surface verbatim.
func clientMessage(err error, fallback string) string {
	if mapErrorToStatusCode(err) != http.StatusInternalServerError {
		return err.Error()
	}
	return fallback
}

func respondWithDomainError(w http.ResponseWriter, err error, fallback string) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
	}
	respondWithError(w, code, clientMessage(err, fallback))
}
