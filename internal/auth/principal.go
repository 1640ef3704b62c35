// Package auth carries the caller's identity through a request. Issuing and
// refreshing tokens is the identity service's job; this package only holds
// the verified result.
package auth

import "context"

// Principal is the capability handed to the cart and checkout components.
// The zero value is the anonymous principal.
type Principal struct {
	Subject string
	Email   string
	Token   string
}

// Anonymous is an unauthenticated caller.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.Subject != ""
}

type contextKey struct{}

func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(contextKey{}).(Principal); ok {
		return p
	}

	return Anonymous
}
