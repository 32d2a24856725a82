package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitscroll/utils"
)

type contextKey string

const userIDKey contextKey = "user_id"

// ErrNoUser is returned when a request context carries no authenticated user
var ErrNoUser = errors.New("user id not found in context")

// WithUserID stores the authenticated user id on ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext returns the user id set by RequireAuth
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", ErrNoUser
	}
	return userID, nil
}

// RequireAuth validates the bearer token and puts its user id on the request context
func (s *Server) RequireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			utils.RespondError(w, nil, "Missing bearer token", http.StatusUnauthorized)
			return
		}

		userID, err := utils.ValidateToken(s.JWTSecret, strings.TrimSpace(token))
		if err != nil {
			utils.RespondError(w, nil, fmt.Sprintf("Unauthorized: %v", err), http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
