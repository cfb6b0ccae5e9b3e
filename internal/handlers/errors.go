package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/karsa-studio/api/internal/platform/httpx"
	"github.com/karsa-studio/api/internal/services"
)

// writeServiceError translates service sentinels into the canonical error
// envelope. Unknown errors surface as an opaque 500 so internals never leak.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrDiscountInvalidInput),
		errors.Is(err, services.ErrCatalogInvalidInput),
		errors.Is(err, services.ErrPaymentMethodInvalidInput),
		errors.Is(err, services.ErrNotificationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrDiscountNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("discount_not_found", "discount code not found", http.StatusNotFound))
	case errors.Is(err, services.ErrDiscountNotApplicable):
		httpx.WriteError(ctx, w, httpx.NewError("discount_not_applicable", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrDiscountExhausted):
		httpx.WriteError(ctx, w, httpx.NewError("discount_exhausted", "discount usage limit reached", http.StatusConflict))
	case errors.Is(err, services.ErrDiscountConflict):
		httpx.WriteError(ctx, w, httpx.NewError("discount_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_not_found", "catalog entry not found", http.StatusNotFound))
	case errors.Is(err, services.ErrPaymentMethodNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("payment_method_not_found", "payment method not found", http.StatusNotFound))
	case errors.Is(err, services.ErrNotificationNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("notification_not_found", "notification not found", http.StatusNotFound))
	case errors.Is(err, services.ErrFileAccessDenied):
		httpx.WriteError(ctx, w, httpx.NewError("files_access_denied", "access to order files denied", http.StatusForbidden))
	case errors.Is(err, services.ErrFilesUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("files_unavailable", "no deliverable files for this order", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}
