package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/platform/auth"
	"github.com/karsa-studio/api/internal/platform/httpx"
	"github.com/karsa-studio/api/internal/services"
)

const maxOrderBodySize = 32 * 1024

type createOrderRequest struct {
	ServiceID       string `json:"service_id"`
	PackageID       string `json:"package_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerWA      string `json:"customer_whatsapp"`
	PaymentMethodID string `json:"payment_method_id"`
	DiscountCode    string `json:"discount_code"`
	Notes           string `json:"notes"`
}

type confirmPaymentRequest struct {
	ProofOfPaymentURL string `json:"proof_of_payment_url"`
}

type proofUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type transitionStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// OrderHandlers exposes the public order flow and the admin order console.
type OrderHandlers struct {
	orders          services.OrderService
	supportWhatsApp string
}

// OrderHandlerOption customises an OrderHandlers instance.
type OrderHandlerOption func(*OrderHandlers)

// WithSupportWhatsApp sets the studio WhatsApp number used to build the
// payment-confirmation deep link on invoice responses.
func WithSupportWhatsApp(number string) OrderHandlerOption {
	return func(h *OrderHandlers) {
		h.supportWhatsApp = strings.TrimSpace(number)
	}
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService, opts ...OrderHandlerOption) *OrderHandlers {
	h := &OrderHandlers{orders: orders}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the public /orders endpoints, keyed by invoice number.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createOrder)
	r.Get("/{invoiceNumber}", h.getOrderByInvoice)
	r.Post("/{invoiceNumber}/confirm", h.confirmPayment)
	r.Post("/{invoiceNumber}/proof-upload", h.requestProofUpload)
}

// AdminRoutes registers the staff-facing order endpoints, keyed by order ID.
func (h *OrderHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Get("/orders/{orderID}/proof", h.proofDownload)
	r.Post("/orders/{orderID}/status", h.transitionStatus)
	r.Delete("/orders/{orderID}", h.deleteOrder)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.CreateOrder(ctx, services.CreateOrderCommand{
		ServiceID: req.ServiceID,
		PackageID: req.PackageID,
		Customer: services.Customer{
			Name:     req.CustomerName,
			Email:    req.CustomerEmail,
			WhatsApp: req.CustomerWA,
		},
		PaymentMethodID: req.PaymentMethodID,
		DiscountCode:    req.DiscountCode,
		Notes:           req.Notes,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) getOrderByInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	invoice := strings.TrimSpace(chi.URLParam(r, "invoiceNumber"))
	order, history, err := h.orders.GetOrderByInvoice(ctx, invoice)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if !requesterOwnsOrder(r, order.Customer.Email) {
		writeServiceError(ctx, w, services.ErrOrderNotFound)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderDetailResponse{
		Order:       buildOrderPayload(order),
		History:     buildOrderHistory(history),
		WhatsAppURL: whatsappLink(h.supportWhatsApp, "Halo, saya ingin konfirmasi pembayaran pesanan "+order.InvoiceNumber),
	})
}

func (h *OrderHandlers) confirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req confirmPaymentRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.ConfirmPayment(ctx, services.ConfirmPaymentCommand{
		InvoiceNumber:     strings.TrimSpace(chi.URLParam(r, "invoiceNumber")),
		ProofOfPaymentURL: req.ProofOfPaymentURL,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) requestProofUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req proofUploadRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	signed, err := h.orders.RequestProofUpload(ctx, services.ProofUploadCommand{
		InvoiceNumber: strings.TrimSpace(chi.URLParam(r, "invoiceNumber")),
		FileName:      req.FileName,
		ContentType:   req.ContentType,
		SizeBytes:     req.SizeBytes,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, signedUploadResponse{
		AssetID:   signed.AssetID,
		URL:       signed.URL,
		Method:    signed.Method,
		Headers:   signed.Headers,
		ExpiresAt: formatTime(signed.ExpiresAt),
	})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	filter, err := parseOrderListFilter(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]orderSummaryPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, buildOrderSummary(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.GetOrder(ctx, strings.TrimSpace(chi.URLParam(r, "orderID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) proofDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	signed, err := h.orders.ProofDownload(ctx, strings.TrimSpace(chi.URLParam(r, "orderID")))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, signedDownloadResponse{
		AssetID:   signed.AssetID,
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: formatTime(signed.ExpiresAt),
	})
}

func (h *OrderHandlers) transitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req transitionStatusRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.TransitionStatus(ctx, services.TransitionStatusCommand{
		OrderID:      strings.TrimSpace(chi.URLParam(r, "orderID")),
		TargetStatus: domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		Note:         req.Note,
		ActorID:      actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	err := h.orders.DeleteOrder(ctx, services.DeleteOrderCommand{
		OrderID: strings.TrimSpace(chi.URLParam(r, "orderID")),
		ActorID: actorID(ctx),
		Reason:  strings.TrimSpace(r.URL.Query().Get("reason")),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Payloads -------------------------------------------------------------------

type orderListResponse struct {
	Items         []orderSummaryPayload `json:"items"`
	NextPageToken string                `json:"next_page_token,omitempty"`
}

type orderSummaryPayload struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
	ServiceName   string `json:"service_name"`
	CustomerName  string `json:"customer_name"`
	Status        string `json:"status"`
	StatusLabel   string `json:"status_label,omitempty"`
	FinalPrice    int64  `json:"final_price"`
	CreatedAt     string `json:"created_at"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderDetailResponse struct {
	Order       orderPayload          `json:"order"`
	History     []orderHistoryPayload `json:"history"`
	WhatsAppURL string                `json:"whatsapp_url,omitempty"`
}

type orderPayload struct {
	ID                string                 `json:"id"`
	InvoiceNumber     string                 `json:"invoice_number"`
	ServiceID         string                 `json:"service_id"`
	ServiceName       string                 `json:"service_name"`
	Package           packageSnapshotPayload `json:"package"`
	Customer          customerPayload        `json:"customer"`
	BasePrice         int64                  `json:"base_price"`
	DiscountCode      string                 `json:"discount_code,omitempty"`
	DiscountAmount    int64                  `json:"discount_amount,omitempty"`
	FinalPrice        int64                  `json:"final_price"`
	PaymentMethodID   string                 `json:"payment_method_id"`
	PaymentMethodName string                 `json:"payment_method_name"`
	PaymentDeadline   string                 `json:"payment_deadline"`
	ProofOfPaymentURL string                 `json:"proof_of_payment_url,omitempty"`
	Status            string                 `json:"status"`
	StatusLabel       string                 `json:"status_label,omitempty"`
	StatusColor       string                 `json:"status_color,omitempty"`
	CreatedAt         string                 `json:"created_at"`
	UpdatedAt         string                 `json:"updated_at,omitempty"`
}

type packageSnapshotPayload struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Features     []string `json:"features,omitempty"`
	DurationDays int      `json:"duration_days,omitempty"`
	Price        int64    `json:"price"`
}

type customerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

type orderHistoryPayload struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

type signedDownloadResponse struct {
	AssetID   string `json:"asset_id"`
	URL       string `json:"url"`
	Method    string `json:"method"`
	ExpiresAt string `json:"expires_at"`
}

type signedUploadResponse struct {
	AssetID   string            `json:"asset_id"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt string            `json:"expires_at"`
}

func buildOrderSummary(order services.Order) orderSummaryPayload {
	presentation := domain.StatusPresentations[order.Status]
	return orderSummaryPayload{
		ID:            order.ID,
		InvoiceNumber: order.InvoiceNumber,
		ServiceName:   order.ServiceName,
		CustomerName:  order.Customer.Name,
		Status:        string(order.Status),
		StatusLabel:   presentation.Label,
		FinalPrice:    order.FinalPrice,
		CreatedAt:     formatTime(order.CreatedAt),
	}
}

func buildOrderPayload(order services.Order) orderPayload {
	presentation := domain.StatusPresentations[order.Status]
	return orderPayload{
		ID:            order.ID,
		InvoiceNumber: order.InvoiceNumber,
		ServiceID:     order.ServiceID,
		ServiceName:   order.ServiceName,
		Package: packageSnapshotPayload{
			ID:           order.Package.ID,
			Name:         order.Package.Name,
			Description:  order.Package.Description,
			Features:     order.Package.Features,
			DurationDays: order.Package.DurationDays,
			Price:        order.Package.Price,
		},
		Customer: customerPayload{
			Name:     order.Customer.Name,
			Email:    order.Customer.Email,
			WhatsApp: order.Customer.WhatsApp,
		},
		BasePrice:         order.BasePrice,
		DiscountCode:      stringValue(order.DiscountCode),
		DiscountAmount:    int64Value(order.DiscountAmount),
		FinalPrice:        order.FinalPrice,
		PaymentMethodID:   order.PaymentMethodID,
		PaymentMethodName: order.PaymentMethodName,
		PaymentDeadline:   formatTime(order.PaymentDeadline),
		ProofOfPaymentURL: stringValue(order.ProofOfPaymentURL),
		Status:            string(order.Status),
		StatusLabel:       presentation.Label,
		StatusColor:       presentation.Color,
		CreatedAt:         formatTime(order.CreatedAt),
		UpdatedAt:         formatTime(order.UpdatedAt),
	}
}

func buildOrderHistory(history []services.OrderLogEntry) []orderHistoryPayload {
	entries := make([]orderHistoryPayload, 0, len(history))
	for _, entry := range history {
		entries = append(entries, orderHistoryPayload{
			ID:        entry.ID,
			Status:    string(entry.Status),
			Note:      entry.Note,
			CreatedAt: formatTime(entry.CreatedAt),
		})
	}
	return entries
}

func parseOrderListFilter(r *http.Request) (services.OrderListFilter, error) {
	query := r.URL.Query()

	var dateRange domain.RangeQuery[time.Time]
	if raw := strings.TrimSpace(query.Get("created_after")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			return services.OrderListFilter{}, errTimeParam("created_after")
		}
		dateRange.From = &ts
	}
	if raw := strings.TrimSpace(query.Get("created_before")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			return services.OrderListFilter{}, errTimeParam("created_before")
		}
		dateRange.To = &ts
	}

	pagination, err := parsePagination(r)
	if err != nil {
		return services.OrderListFilter{}, err
	}

	return services.OrderListFilter{
		Status:        parseFilterValues(query["status"]),
		CustomerEmail: strings.ToLower(strings.TrimSpace(query.Get("customer_email"))),
		DateRange:     dateRange,
		Pagination:    pagination,
	}, nil
}

func actorID(ctx context.Context) string {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil {
		return ""
	}
	return strings.TrimSpace(identity.UID)
}

func errTimeParam(name string) error {
	return fmt.Errorf("%s must be a valid RFC3339 timestamp", name)
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
}
