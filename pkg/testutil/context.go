package testutil

import (
	"context"
	"net/http"

	"sahakosh/internal/platform/middleware"
)

// WithAuth adds the authenticated identity to the request context,
// simulating what the auth middleware does for authenticated requests.
func WithAuth(req *http.Request, userID, userType string) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserType, userType)
	return req.WithContext(ctx)
}
