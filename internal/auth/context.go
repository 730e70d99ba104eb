package auth

import "context"

type contextKey string

const (
	userIDKey     = contextKey("userID")
	userClaimsKey = contextKey("userClaims")
)

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// WithClaims stores validated token claims and their user id in ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, userClaimsKey, claims)
	return WithUserID(ctx, claims.UserID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// ClaimsFromContext returns the token claims, if the request carried a bearer token.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*Claims)
	return claims, ok
}
