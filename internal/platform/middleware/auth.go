package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating JWT tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID   string
	UserType string
}

type contextKeyUserID struct{}
type contextKeyUserType struct{}

var (
	ContextKeyUserID   = contextKeyUserID{}
	ContextKeyUserType = contextKeyUserType{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetUserType retrieves the authenticated role from the context.
func GetUserType(ctx context.Context) string {
	userType, ok := ctx.Value(ContextKeyUserType).(string)
	if !ok {
		return ""
	}
	return userType
}

// RequireAuth validates the bearer token and injects the caller's identity
// into the request context. Handlers own per-resource authorization.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w, r, logger, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w, r, logger, "Invalid or expired token")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextKeyUserType, claims.UserType)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose role does not match.
// It must run after RequireAuth.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserType(r.Context()) != role {
				logger.WarnContext(r.Context(), "forbidden - wrong role",
					"required_role", role,
					"user_type", GetUserType(r.Context()),
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"This endpoint requires the ` + role + ` role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write unauthorized response",
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
	}
}
