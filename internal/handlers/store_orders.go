package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/platform/httpx"
	"github.com/karsa-studio/api/internal/services"
)

type createStoreOrderRequest struct {
	ProductID       string `json:"product_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerWA      string `json:"customer_whatsapp"`
	PaymentMethodID string `json:"payment_method_id"`
	DiscountCode    string `json:"discount_code"`
}

type fulfilStoreOrderRequest struct {
	DownloadLink string `json:"download_link"`
}

// StoreOrderHandlers exposes the store purchase flow and admin fulfilment.
type StoreOrderHandlers struct {
	storeOrders     services.StoreOrderService
	supportWhatsApp string
}

// StoreOrderHandlerOption customises a StoreOrderHandlers instance.
type StoreOrderHandlerOption func(*StoreOrderHandlers)

// WithStoreSupportWhatsApp sets the studio WhatsApp number used to build
// the payment-confirmation deep link on store order responses.
func WithStoreSupportWhatsApp(number string) StoreOrderHandlerOption {
	return func(h *StoreOrderHandlers) {
		h.supportWhatsApp = strings.TrimSpace(number)
	}
}

// NewStoreOrderHandlers constructs a new StoreOrderHandlers instance.
func NewStoreOrderHandlers(storeOrders services.StoreOrderService, opts ...StoreOrderHandlerOption) *StoreOrderHandlers {
	h := &StoreOrderHandlers{storeOrders: storeOrders}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the public /store-orders endpoints, keyed by order number.
func (h *StoreOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createStoreOrder)
	r.Get("/{orderNumber}", h.getStoreOrder)
	r.Post("/{orderNumber}/confirm", h.confirmPayment)
}

// AdminRoutes registers the staff-facing store order endpoints.
func (h *StoreOrderHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/store-orders", h.listStoreOrders)
	r.Post("/store-orders/{orderID}/fulfil", h.fulfilStoreOrder)
}

func (h *StoreOrderHandlers) createStoreOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.storeOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("store_order_service_unavailable", "store order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createStoreOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.storeOrders.CreateStoreOrder(ctx, services.CreateStoreOrderCommand{
		ProductID: req.ProductID,
		Customer: services.Customer{
			Name:     req.CustomerName,
			Email:    req.CustomerEmail,
			WhatsApp: req.CustomerWA,
		},
		PaymentMethodID: req.PaymentMethodID,
		DiscountCode:    req.DiscountCode,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, storeOrderResponse{Order: buildStoreOrderPayload(order)})
}

func (h *StoreOrderHandlers) getStoreOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.storeOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("store_order_service_unavailable", "store order service unavailable", http.StatusServiceUnavailable))
		return
	}

	number := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
	order, history, err := h.storeOrders.GetStoreOrderByNumber(ctx, number)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if !requesterOwnsOrder(r, order.Customer.Email) {
		writeServiceError(ctx, w, services.ErrOrderNotFound)
		return
	}

	writeJSONResponse(w, http.StatusOK, storeOrderDetailResponse{
		Order:       buildStoreOrderPayload(order),
		History:     buildOrderHistory(history),
		WhatsAppURL: whatsappLink(h.supportWhatsApp, "Halo, saya ingin konfirmasi pembayaran pesanan "+order.OrderNumber),
	})
}

func (h *StoreOrderHandlers) confirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.storeOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("store_order_service_unavailable", "store order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req confirmPaymentRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.storeOrders.ConfirmPayment(ctx, services.ConfirmPaymentCommand{
		InvoiceNumber:     strings.TrimSpace(chi.URLParam(r, "orderNumber")),
		ProofOfPaymentURL: req.ProofOfPaymentURL,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, storeOrderResponse{Order: buildStoreOrderPayload(order)})
}

func (h *StoreOrderHandlers) listStoreOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.storeOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("store_order_service_unavailable", "store order service unavailable", http.StatusServiceUnavailable))
		return
	}

	filter, err := parseOrderListFilter(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.storeOrders.ListStoreOrders(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]storeOrderSummaryPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, buildStoreOrderSummary(order))
	}
	writeJSONResponse(w, http.StatusOK, storeOrderListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *StoreOrderHandlers) fulfilStoreOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.storeOrders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("store_order_service_unavailable", "store order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req fulfilStoreOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.storeOrders.Fulfil(ctx, services.FulfilStoreOrderCommand{
		OrderID:      strings.TrimSpace(chi.URLParam(r, "orderID")),
		DownloadLink: req.DownloadLink,
		ActorID:      actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, storeOrderResponse{Order: buildStoreOrderPayload(order)})
}

// Payloads -------------------------------------------------------------------

type storeOrderListResponse struct {
	Items         []storeOrderSummaryPayload `json:"items"`
	NextPageToken string                     `json:"next_page_token,omitempty"`
}

type storeOrderSummaryPayload struct {
	ID           string `json:"id"`
	OrderNumber  string `json:"order_number"`
	ProductName  string `json:"product_name"`
	CustomerName string `json:"customer_name"`
	Status       string `json:"status"`
	StatusLabel  string `json:"status_label,omitempty"`
	FinalPrice   int64  `json:"final_price"`
	CreatedAt    string `json:"created_at"`
}

type storeOrderResponse struct {
	Order storeOrderPayload `json:"order"`
}

type storeOrderDetailResponse struct {
	Order       storeOrderPayload     `json:"order"`
	History     []orderHistoryPayload `json:"history"`
	WhatsAppURL string                `json:"whatsapp_url,omitempty"`
}

type storeOrderPayload struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Customer          customerPayload `json:"customer"`
	BasePrice         int64           `json:"base_price"`
	DiscountCode      string          `json:"discount_code,omitempty"`
	DiscountAmount    int64           `json:"discount_amount,omitempty"`
	FinalPrice        int64           `json:"final_price"`
	PaymentMethodID   string          `json:"payment_method_id"`
	PaymentMethodName string          `json:"payment_method_name"`
	PaymentDeadline   string          `json:"payment_deadline"`
	ProofOfPaymentURL string          `json:"proof_of_payment_url,omitempty"`
	DownloadLink      string          `json:"download_link,omitempty"`
	Status            string          `json:"status"`
	StatusLabel       string          `json:"status_label,omitempty"`
	StatusColor       string          `json:"status_color,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at,omitempty"`
}

func buildStoreOrderSummary(order services.StoreOrder) storeOrderSummaryPayload {
	presentation := domain.StatusPresentations[order.Status]
	return storeOrderSummaryPayload{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		ProductName:  order.ProductName,
		CustomerName: order.Customer.Name,
		Status:       string(order.Status),
		StatusLabel:  presentation.Label,
		FinalPrice:   order.FinalPrice,
		CreatedAt:    formatTime(order.CreatedAt),
	}
}

func buildStoreOrderPayload(order services.StoreOrder) storeOrderPayload {
	presentation := domain.StatusPresentations[order.Status]
	return storeOrderPayload{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		ProductID:   order.ProductID,
		ProductName: order.ProductName,
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
		DownloadLink:      stringValue(order.DownloadLink),
		Status:            string(order.Status),
		StatusLabel:       presentation.Label,
		StatusColor:       presentation.Color,
		CreatedAt:         formatTime(order.CreatedAt),
		UpdatedAt:         formatTime(order.UpdatedAt),
	}
}
