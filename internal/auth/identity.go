package auth

import (
	"context"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

// Identity is the authenticated caller resolved from a bearer token. It is
// trusted as-is by the order and ticket components.
type Identity struct {
	UserID   int64
	Username string
	Role     domain.Role
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == domain.RoleAdmin
}

type contextKey string

const identityContextKey contextKey = "github.com/joao-fontenele/cayocagi/internal/auth/identity"

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
