package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/platform/httpx"
	"github.com/karsa-studio/api/internal/services"
)

const maxDiscountBodySize = 16 * 1024

type validateDiscountRequest struct {
	Code      string `json:"code"`
	ServiceID string `json:"service_id"`
	BasePrice int64  `json:"base_price"`
}

type upsertDiscountRequest struct {
	Code       string  `json:"code"`
	Type       string  `json:"type"`
	Value      int64   `json:"value"`
	ServiceID  *string `json:"service_id"`
	StartsAt   *string `json:"starts_at"`
	ExpiresAt  *string `json:"expires_at"`
	UsageLimit *int64  `json:"usage_limit"`
	IsActive   bool    `json:"is_active"`
}

// DiscountHandlers exposes public discount validation and the admin console.
type DiscountHandlers struct {
	discounts services.DiscountService
}

// NewDiscountHandlers constructs a new DiscountHandlers instance.
func NewDiscountHandlers(discounts services.DiscountService) *DiscountHandlers {
	return &DiscountHandlers{discounts: discounts}
}

// Routes registers the public /discounts endpoints.
func (h *DiscountHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/validate", h.validateDiscount)
}

// AdminRoutes registers the staff-facing discount CRUD endpoints.
func (h *DiscountHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/discounts", h.listDiscounts)
	r.Post("/discounts", h.createDiscount)
	r.Get("/discounts/{discountID}", h.getDiscount)
	r.Put("/discounts/{discountID}", h.updateDiscount)
	r.Delete("/discounts/{discountID}", h.deleteDiscount)
}

func (h *DiscountHandlers) validateDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("discount_service_unavailable", "discount service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req validateDiscountRequest
	if err := decodeJSONBody(r, maxDiscountBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	quote, err := h.discounts.Validate(ctx, services.ValidateDiscountCommand{
		Code:      req.Code,
		ServiceID: req.ServiceID,
		BasePrice: req.BasePrice,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, discountQuotePayload{
		Code:           quote.Discount.Code,
		Type:           string(quote.Discount.Type),
		Value:          quote.Discount.Value,
		DiscountAmount: quote.Amount,
		FinalPrice:     quote.FinalPrice,
	})
}

func (h *DiscountHandlers) listDiscounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("discount_service_unavailable", "discount service unavailable", http.StatusServiceUnavailable))
		return
	}

	pagination, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.DiscountListFilter{
		ActiveOnly: strings.EqualFold(r.URL.Query().Get("active"), "true"),
		Pagination: pagination,
	}
	if serviceID := strings.TrimSpace(r.URL.Query().Get("service_id")); serviceID != "" {
		filter.ServiceID = &serviceID
	}

	page, err := h.discounts.ListDiscounts(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]discountPayload, 0, len(page.Items))
	for _, discount := range page.Items {
		items = append(items, buildDiscountPayload(discount))
	}
	writeJSONResponse(w, http.StatusOK, discountListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *DiscountHandlers) createDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("discount_service_unavailable", "discount service unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, err := decodeUpsertDiscount(r, "")
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	discount, err := h.discounts.CreateDiscount(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, discountResponse{Discount: buildDiscountPayload(discount)})
}

func (h *DiscountHandlers) getDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("discount_service_unavailable", "discount service unavailable", http.StatusServiceUnavailable))
		return
	}

	discount, err := h.discounts.GetDiscount(ctx, strings.TrimSpace(chi.URLParam(r, "discountID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, discountResponse{Discount: buildDiscountPayload(discount)})
}

func (h *DiscountHandlers) updateDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("discount_service_unavailable", "discount service unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, err := decodeUpsertDiscount(r, strings.TrimSpace(chi.URLParam(r, "discountID")))
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	discount, err := h.discounts.UpdateDiscount(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, discountResponse{Discount: buildDiscountPayload(discount)})
}

func (h *DiscountHandlers) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("discount_service_unavailable", "discount service unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.discounts.DeleteDiscount(ctx, strings.TrimSpace(chi.URLParam(r, "discountID"))); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Payloads -------------------------------------------------------------------

type discountQuotePayload struct {
	Code           string `json:"code"`
	Type           string `json:"type"`
	Value          int64  `json:"value"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalPrice     int64  `json:"final_price"`
}

type discountListResponse struct {
	Items         []discountPayload `json:"items"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

type discountResponse struct {
	Discount discountPayload `json:"discount"`
}

type discountPayload struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Type       string `json:"type"`
	Value      int64  `json:"value"`
	ServiceID  string `json:"service_id,omitempty"`
	StartsAt   string `json:"starts_at,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty"`
	UsageLimit *int64 `json:"usage_limit,omitempty"`
	UsedCount  int64  `json:"used_count"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

func buildDiscountPayload(discount services.Discount) discountPayload {
	return discountPayload{
		ID:         discount.ID,
		Code:       discount.Code,
		Type:       string(discount.Type),
		Value:      discount.Value,
		ServiceID:  stringValue(discount.ServiceID),
		StartsAt:   formatTimePointer(discount.StartsAt),
		ExpiresAt:  formatTimePointer(discount.ExpiresAt),
		UsageLimit: discount.UsageLimit,
		UsedCount:  discount.UsedCount,
		IsActive:   discount.IsActive,
		CreatedAt:  formatTime(discount.CreatedAt),
		UpdatedAt:  formatTime(discount.UpdatedAt),
	}
}

func decodeUpsertDiscount(r *http.Request, discountID string) (services.UpsertDiscountCommand, error) {
	var req upsertDiscountRequest
	if err := decodeJSONBody(r, maxDiscountBodySize, &req); err != nil {
		return services.UpsertDiscountCommand{}, err
	}

	cmd := services.UpsertDiscountCommand{
		DiscountID: discountID,
		Code:       req.Code,
		Type:       domain.DiscountType(strings.ToLower(strings.TrimSpace(req.Type))),
		Value:      req.Value,
		ServiceID:  req.ServiceID,
		UsageLimit: req.UsageLimit,
		IsActive:   req.IsActive,
	}
	if req.StartsAt != nil {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.StartsAt))
		if err != nil {
			return services.UpsertDiscountCommand{}, errTimeParam("starts_at")
		}
		cmd.StartsAt = &ts
	}
	if req.ExpiresAt != nil {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.ExpiresAt))
		if err != nil {
			return services.UpsertDiscountCommand{}, errTimeParam("expires_at")
		}
		cmd.ExpiresAt = &ts
	}
	return cmd, nil
}
