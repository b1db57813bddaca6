// Package identity carries the caller identity resolved by the session layer.
package identity

import (
	"context"

	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

// Identity is the authenticated caller. The zero value is anonymous.
type Identity struct {
	UserID string
	Role   userentity.Role
}

func (i Identity) Authenticated() bool { return i.UserID != "" }

func (i Identity) IsAdmin() bool { return i.Authenticated() && i.Role == userentity.RoleAdmin }

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller identity, anonymous when none was set.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}
