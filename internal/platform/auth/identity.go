package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// Roles recognised by the admin console. Customers get RoleUser on
// first sign-in; staff and admin are assigned through custom claims.
const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// ErrUserLoaderUnavailable indicates the identity was built without a user loader.
var ErrUserLoaderUnavailable = errors.New("auth: user loader not configured")

// UserLoader fetches the Firebase user profile for a UID.
type UserLoader func(ctx context.Context, uid string) (*firebaseauth.UserRecord, error)

// Identity is the authenticated principal extracted from a Firebase ID token.
type Identity struct {
	UID   string
	Email string
	Roles []string

	token *firebaseauth.Token

	userLoader UserLoader
	once       sync.Once
	userRecord *firebaseauth.UserRecord
	userErr    error
}

// Token returns the decoded Firebase ID token backing this identity.
func (i *Identity) Token() *firebaseauth.Token {
	if i == nil {
		return nil
	}
	return i.token
}

// HasRole reports whether the identity carries role, case-insensitively.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return false
	}
	for _, have := range i.Roles {
		if strings.EqualFold(have, role) {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the identity carries at least one of roles.
func (i *Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

// IsStaff reports whether the identity may use the back-office surface.
func (i *Identity) IsStaff() bool {
	return i.HasAnyRole(RoleStaff, RoleAdmin)
}

// User lazily resolves the Firebase user profile through the injected loader.
// The lookup runs at most once per identity.
func (i *Identity) User(ctx context.Context) (*firebaseauth.UserRecord, error) {
	if i == nil || i.userLoader == nil {
		return nil, ErrUserLoaderUnavailable
	}

	i.once.Do(func() {
		i.userRecord, i.userErr = i.userLoader(ctx, i.UID)
	})

	return i.userRecord, i.userErr
}

type contextKey string

const identityContextKey contextKey = "github.com/karsa-studio/api/internal/platform/auth/identity"

// WithIdentity stores identity in ctx for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity placed in ctx by the auth middleware.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
