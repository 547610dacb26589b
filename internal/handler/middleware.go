package handler

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmwangi/zawadi-shop/internal/user"
)

type contextKey string

const userContextKey contextKey = "current_user"

// HeaderUserID carries the authenticated principal set by the upstream
// identity layer. Token verification happens there, not here.
const HeaderUserID = "X-User-ID"

// Identity resolves the authenticated user once per request and stores it in
// the request context.
func Identity(users user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := r.Header.Get(HeaderUserID)
			if rawID == "" {
				respondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			userID, err := uuid.FromString(rawID)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid user id")
				return
			}

			u, err := users.GetByID(r.Context(), userID)
			if err != nil {
				log.Warn().Err(err).Str("user_id", rawID).Msg("handler: failed to resolve principal")
				respondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is the admin capability check, evaluated once at request entry.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil || !u.IsAdmin() {
			respondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(userContextKey).(*user.User)
	return u
}
