package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/karsa-studio/api/internal/platform/httpx"
	"github.com/karsa-studio/api/internal/services"
)

const maxPaymentMethodBodySize = 8 * 1024

type upsertPaymentMethodRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IsActive      bool   `json:"is_active"`
}

// PaymentMethodHandlers exposes payment reference data and the admin CRUD.
type PaymentMethodHandlers struct {
	paymentMethods services.PaymentMethodService
}

// NewPaymentMethodHandlers constructs a new PaymentMethodHandlers instance.
func NewPaymentMethodHandlers(paymentMethods services.PaymentMethodService) *PaymentMethodHandlers {
	return &PaymentMethodHandlers{paymentMethods: paymentMethods}
}

// Routes registers the public payment method endpoints on the API group.
func (h *PaymentMethodHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/payment-methods", h.listActive)
}

// AdminRoutes registers the staff-facing payment method endpoints.
func (h *PaymentMethodHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/payment-methods", h.createPaymentMethod)
	r.Put("/payment-methods/{paymentMethodID}", h.updatePaymentMethod)
	r.Delete("/payment-methods/{paymentMethodID}", h.deletePaymentMethod)
}

func (h *PaymentMethodHandlers) listActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.paymentMethods == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payment_method_service_unavailable", "payment method service unavailable", http.StatusServiceUnavailable))
		return
	}

	methods, err := h.paymentMethods.ListActive(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]paymentMethodPayload, 0, len(methods))
	for _, method := range methods {
		items = append(items, buildPaymentMethodPayload(method))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

func (h *PaymentMethodHandlers) createPaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.paymentMethods == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payment_method_service_unavailable", "payment method service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req upsertPaymentMethodRequest
	if err := decodeJSONBody(r, maxPaymentMethodBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	method, err := h.paymentMethods.CreatePaymentMethod(ctx, services.UpsertPaymentMethodCommand{
		Type:          req.Type,
		Name:          req.Name,
		AccountHolder: req.AccountHolder,
		AccountNumber: req.AccountNumber,
		IsActive:      req.IsActive,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"payment_method": buildPaymentMethodPayload(method)})
}

func (h *PaymentMethodHandlers) updatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.paymentMethods == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payment_method_service_unavailable", "payment method service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req upsertPaymentMethodRequest
	if err := decodeJSONBody(r, maxPaymentMethodBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	method, err := h.paymentMethods.UpdatePaymentMethod(ctx, services.UpsertPaymentMethodCommand{
		PaymentMethodID: strings.TrimSpace(chi.URLParam(r, "paymentMethodID")),
		Type:            req.Type,
		Name:            req.Name,
		AccountHolder:   req.AccountHolder,
		AccountNumber:   req.AccountNumber,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"payment_method": buildPaymentMethodPayload(method)})
}

func (h *PaymentMethodHandlers) deletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.paymentMethods == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payment_method_service_unavailable", "payment method service unavailable", http.StatusServiceUnavailable))
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "paymentMethodID"))
	if err := h.paymentMethods.DeletePaymentMethod(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentMethodPayload struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountHolder string `json:"account_holder,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	IsActive      bool   `json:"is_active"`
}

func buildPaymentMethodPayload(method services.PaymentMethod) paymentMethodPayload {
	return paymentMethodPayload{
		ID:            method.ID,
		Type:          method.Type,
		Name:          method.Name,
		AccountHolder: method.AccountHolder,
		AccountNumber: method.AccountNumber,
		IsActive:      method.IsActive,
	}
}
