// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ai-scheduler/agent-gateway/internal/model"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey ContextKey = "user_id"
	// AuthContextKey is the context key for the provider auth context.
	AuthContextKey ContextKey = "auth_context"
)

// Claims are the session JWT claims. AccessToken is the provider OAuth token
// the session layer minted into the JWT; it is forwarded to provider calls
// and never logged.
type Claims struct {
	jwt.RegisteredClaims
	AccessToken string `json:"access_token"`
}

// Auth creates JWT authentication middleware. Requests without a valid
// HMAC-signed bearer token are rejected before any body is read.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, AuthContextKey, model.AuthContext{AccessToken: claims.AccessToken})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID gets the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// GetAuthContext gets the provider auth context from context.
func GetAuthContext(ctx context.Context) model.AuthContext {
	if v, ok := ctx.Value(AuthContextKey).(model.AuthContext); ok {
		return v
	}
	return model.AuthContext{}
}
