package authkit

import (
	"context"

	"github.com/goliatone/go-router"
)

var principalCtxKey = &contextKey{"principal"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithPrincipalID sets the authenticated principal ID in the given context
func WithPrincipalID(r context.Context, principalID string) context.Context {
	return context.WithValue(r, principalCtxKey, principalID)
}

// PrincipalIDFromContext finds the authenticated principal ID from the context.
func PrincipalIDFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(principalCtxKey).(string)
	return raw, ok
}

// WithClaimsContext sets the TokenClaims in the given context
func WithClaimsContext(r context.Context, claims *TokenClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the TokenClaims from the standard context
func ClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*TokenClaims)
	return raw, ok
}

// RouterPrincipalID extracts the principal ID the bearer middleware stored in
// the router context.
func RouterPrincipalID(ctx router.Context, key string) (string, bool) {
	if key == "" {
		key = "principal" // Default key used by the bearer middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return "", false
	}
	id, ok := raw.(string)
	return id, ok
}
