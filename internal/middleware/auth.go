// Package middleware holds the Connect interceptors and HTTP wrappers shared
// by every service: caller resolution, request logging, metrics and CORS.
package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// callerKey is the context key for the authenticated caller.
const callerKey contextKey = "caller"

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFrom extracts the authenticated caller from the context.
func CallerFrom(ctx context.Context) (models.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(models.Caller)
	return caller, ok && caller.UserID != ""
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	caller, _ := CallerFrom(ctx)
	return caller.UserID
}

// RequireAuth returns an interceptor that validates the bearer token and
// puts the caller it names into the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithCaller(ctx, claims.Caller()), req)
		}
	}
}
