package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Faqih001/Threads-WebApp/internal/auth"
	"github.com/Faqih001/Threads-WebApp/internal/models"
	"github.com/Faqih001/Threads-WebApp/internal/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware verifies the session cookie and loads the acting user.
type AuthMiddleware struct {
	jwt   *auth.JWT
	users store.UserStore
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(jwt *auth.JWT, users store.UserStore) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth rejects requests without a valid session cookie and puts the
// authenticated user on the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "unauthorized - no token provided")
			return
		}

		claims, err := m.jwt.Parse(cookie.Value)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "unauthorized - invalid token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "unauthorized - invalid token")
			return
		}

		user, err := m.users.GetUserByID(r.Context(), userID)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "database error")
			return
		}
		if user == nil {
			jsonError(w, http.StatusUnauthorized, "unauthorized - user not found")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserFromContext retrieves the authenticated user from the request context.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
