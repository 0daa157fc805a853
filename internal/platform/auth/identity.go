// Package auth is the identity provider: it turns a request credential into
// an Identity and keeps that Identity in the request context. Lifecycle code
// only ever reads the Identity.
package auth

import (
	"context"

	"github.com/mdt/mdt/internal/platform/apperr"
)

// Role is the binary admin/user flag.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated caller.
type Identity struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// Require returns the caller or an Unauthenticated error.
func Require(ctx context.Context) (*Identity, error) {
	id := IdentityFromContext(ctx)
	if id == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	return id, nil
}

// RequireAdminIdentity returns the caller if it carries the admin flag.
func RequireAdminIdentity(ctx context.Context) (*Identity, error) {
	id, err := Require(ctx)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		return nil, apperr.Forbidden("administrator access required")
	}
	return id, nil
}
