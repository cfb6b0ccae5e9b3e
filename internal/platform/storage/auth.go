package storage

import (
	"context"
	"errors"

	"github.com/karsa-studio/api/internal/platform/auth"
)

// ErrPermissionDenied is returned when the caller may not access the object.
var ErrPermissionDenied = errors.New("storage: permission denied")

// AuthorizeDownload decides whether identity may fetch an object owned by
// ownerID. Owners always may; staff and admins may view any customer's
// receipts when verifying a payment.
func AuthorizeDownload(identity *auth.Identity, ownerID string, allowAnonymous bool) error {
	if allowAnonymous {
		return nil
	}
	if identity == nil {
		return ErrPermissionDenied
	}
	if ownerID != "" && identity.UID == ownerID {
		return nil
	}
	if identity.IsStaff() {
		return nil
	}
	return ErrPermissionDenied
}

// AuthorizeDownloadFromContext resolves the identity from ctx and applies
// AuthorizeDownload.
func AuthorizeDownloadFromContext(ctx context.Context, ownerID string, allowAnonymous bool) (*auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok && !allowAnonymous {
		return nil, ErrPermissionDenied
	}
	if err := AuthorizeDownload(identity, ownerID, allowAnonymous); err != nil {
		return nil, err
	}
	return identity, nil
}
