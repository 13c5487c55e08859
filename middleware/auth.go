package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/21namanpandey/e-library/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const UserIDKey contextKey = "userID"

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	Parse(token string) (*service.Claims, error)
}

// Auth rejects requests without a valid bearer token and stores the token's
// subject on the request context.
func Auth(tokens TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				unauthorized(w, "Authorization token is required.")
				return
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "Invalid authorization format")
				return
			}
			claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				unauthorized(w, "Token expired or invalid")
				return
			}
			userID, err := primitive.ObjectIDFromHex(claims.Subject)
			if err != nil {
				unauthorized(w, "Invalid user id")
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(UserIDKey).(primitive.ObjectID)
	return id, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
