package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/platform/auth"
	"github.com/karsa-studio/api/internal/services"
)

type stubOrderService struct {
	createFn       func(context.Context, services.CreateOrderCommand) (services.Order, error)
	getFn          func(context.Context, string) (services.Order, error)
	getByInvoiceFn func(context.Context, string) (services.Order, []services.OrderLogEntry, error)
	listFn         func(context.Context, services.OrderListFilter) (domain.CursorPage[services.Order], error)
	confirmFn      func(context.Context, services.ConfirmPaymentCommand) (services.Order, error)
	proofFn        func(context.Context, services.ProofUploadCommand) (services.SignedAssetResponse, error)
	downloadFn     func(context.Context, string) (services.SignedAssetResponse, error)
	transitionFn   func(context.Context, services.TransitionStatusCommand) (services.Order, error)
	deleteFn       func(context.Context, services.DeleteOrderCommand) error
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (services.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrderByInvoice(ctx context.Context, invoiceNumber string) (services.Order, []services.OrderLogEntry, error) {
	if s.getByInvoiceFn != nil {
		return s.getByInvoiceFn(ctx, invoiceNumber)
	}
	return services.Order{}, nil, errors.New("not implemented")
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[services.Order]{}, nil
}

func (s *stubOrderService) ConfirmPayment(ctx context.Context, cmd services.ConfirmPaymentCommand) (services.Order, error) {
	if s.confirmFn != nil {
		return s.confirmFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) RequestProofUpload(ctx context.Context, cmd services.ProofUploadCommand) (services.SignedAssetResponse, error) {
	if s.proofFn != nil {
		return s.proofFn(ctx, cmd)
	}
	return services.SignedAssetResponse{}, errors.New("not implemented")
}

func (s *stubOrderService) ProofDownload(ctx context.Context, orderID string) (services.SignedAssetResponse, error) {
	if s.downloadFn != nil {
		return s.downloadFn(ctx, orderID)
	}
	return services.SignedAssetResponse{}, errors.New("not implemented")
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, cmd services.TransitionStatusCommand) (services.Order, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, cmd)
	}
	return services.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, cmd services.DeleteOrderCommand) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, cmd)
	}
	return errors.New("not implemented")
}

func sampleOrder(now time.Time) services.Order {
	code := "PROMO10"
	amount := int64(50000)
	return services.Order{
		ID:            "ord_1",
		InvoiceNumber: "INV-20250312-ABCDE",
		ServiceID:     "svc-logo",
		ServiceName:   "Desain Logo",
		Package: services.PackageSnapshot{
			ID:    "pkg-basic",
			Name:  "Basic",
			Price: 500000,
		},
		Customer: services.Customer{
			Name:  "Budi",
			Email: "budi@example.com",
		},
		BasePrice:         500000,
		DiscountCode:      &code,
		DiscountAmount:    &amount,
		FinalPrice:        450000,
		PaymentMethodID:   "pay-bca",
		PaymentMethodName: "BCA",
		PaymentDeadline:   now.Add(48 * time.Hour),
		Status:            domain.OrderStatusPendingPayment,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestOrderHandlersCreateOrder(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	var captured services.CreateOrderCommand
	service := &stubOrderService{
		createFn: func(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
			captured = cmd
			return sampleOrder(now), nil
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	body := `{"service_id":"svc-logo","package_id":"pkg-basic","customer_name":"Budi","customer_email":"budi@example.com","customer_whatsapp":"+6281234","payment_method_id":"pay-bca","discount_code":"promo10","notes":"urgent"}`
	req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ServiceID != "svc-logo" || captured.PackageID != "pkg-basic" {
		t.Fatalf("unexpected command %+v", captured)
	}
	if captured.Customer.WhatsApp != "+6281234" || captured.Notes != "urgent" {
		t.Fatalf("unexpected command %+v", captured)
	}

	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Order.InvoiceNumber != "INV-20250312-ABCDE" {
		t.Fatalf("unexpected invoice %q", resp.Order.InvoiceNumber)
	}
	if resp.Order.DiscountCode != "PROMO10" || resp.Order.FinalPrice != 450000 {
		t.Fatalf("unexpected pricing %+v", resp.Order)
	}
	if resp.Order.StatusLabel != "Menunggu Pembayaran" || resp.Order.StatusColor != "yellow" {
		t.Fatalf("unexpected status presentation %+v", resp.Order)
	}
}

func TestOrderHandlersCreateOrderInvalidJSON(t *testing.T) {
	handler := NewOrderHandlers(&stubOrderService{})
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(`{"service_id":`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersCreateOrderBodyTooLarge(t *testing.T) {
	handler := NewOrderHandlers(&stubOrderService{})
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	body := `{"notes":"` + strings.Repeat("a", maxOrderBodySize+1) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}

func TestOrderHandlersCreateOrderServiceUnavailable(t *testing.T) {
	handler := NewOrderHandlers(nil)
	req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handler.createOrder(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestOrderHandlersGetOrderByInvoice(t *testing.T) {
	now := time.Date(2025, 3, 13, 8, 0, 0, 0, time.UTC)
	service := &stubOrderService{
		getByInvoiceFn: func(ctx context.Context, invoice string) (services.Order, []services.OrderLogEntry, error) {
			if invoice != "INV-20250312-ABCDE" {
				t.Fatalf("unexpected invoice %q", invoice)
			}
			return sampleOrder(now), []services.OrderLogEntry{
				{ID: "olg_1", OrderID: "ord_1", Status: domain.OrderStatusPendingPayment, CreatedAt: now},
			}, nil
		},
	}

	handler := NewOrderHandlers(service, WithSupportWhatsApp("+62 812-3456-7890"))
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/orders/INV-20250312-ABCDE?email=Budi@Example.com", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp orderDetailResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.History) != 1 || resp.History[0].ID != "olg_1" {
		t.Fatalf("unexpected history %+v", resp.History)
	}
	if !strings.HasPrefix(resp.WhatsAppURL, "https://wa.me/6281234567890?text=") {
		t.Fatalf("unexpected whatsapp url %q", resp.WhatsAppURL)
	}
	if !strings.Contains(resp.WhatsAppURL, "INV-20250312-ABCDE") {
		t.Fatalf("expected invoice number in whatsapp message, got %q", resp.WhatsAppURL)
	}
}

func TestOrderHandlersGetOrderByInvoiceRequiresMatchingEmail(t *testing.T) {
	now := time.Date(2025, 3, 13, 8, 0, 0, 0, time.UTC)
	service := &stubOrderService{
		getByInvoiceFn: func(ctx context.Context, invoice string) (services.Order, []services.OrderLogEntry, error) {
			return sampleOrder(now), nil, nil
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	cases := []struct {
		name   string
		target string
	}{
		{name: "missing email", target: "/orders/INV-20250312-ABCDE"},
		{name: "wrong email", target: "/orders/INV-20250312-ABCDE?email=intruder@example.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusNotFound {
				t.Fatalf("expected status 404, got %d", rr.Code)
			}
			var envelope map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if envelope["error"] != "order_not_found" {
				t.Fatalf("unexpected error code %v", envelope["error"])
			}
			if strings.Contains(rr.Body.String(), "budi@example.com") {
				t.Fatalf("customer email leaked in response: %s", rr.Body.String())
			}
		})
	}
}

func TestOrderHandlersGetOrderByInvoiceNotFound(t *testing.T) {
	service := &stubOrderService{
		getByInvoiceFn: func(ctx context.Context, invoice string) (services.Order, []services.OrderLogEntry, error) {
			return services.Order{}, nil, services.ErrOrderNotFound
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/orders/INV-MISSING", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderHandlersConfirmPayment(t *testing.T) {
	now := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	service := &stubOrderService{
		confirmFn: func(ctx context.Context, cmd services.ConfirmPaymentCommand) (services.Order, error) {
			if cmd.InvoiceNumber != "INV-20250312-ABCDE" {
				t.Fatalf("unexpected invoice %q", cmd.InvoiceNumber)
			}
			if cmd.ProofOfPaymentURL != "https://storage.example.com/proofs/p1.jpg" {
				t.Fatalf("unexpected proof url %q", cmd.ProofOfPaymentURL)
			}
			order := sampleOrder(now)
			order.Status = domain.OrderStatusPaid
			return order, nil
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	body := `{"proof_of_payment_url":"https://storage.example.com/proofs/p1.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/orders/INV-20250312-ABCDE/confirm", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Order.Status != string(domain.OrderStatusPaid) {
		t.Fatalf("expected paid, got %q", resp.Order.Status)
	}
}

func TestOrderHandlersConfirmPaymentInvalidState(t *testing.T) {
	service := &stubOrderService{
		confirmFn: func(ctx context.Context, cmd services.ConfirmPaymentCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderInvalidState
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	req := httptest.NewRequest(http.MethodPost, "/orders/INV-1/confirm", strings.NewReader(`{"proof_of_payment_url":"u"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestOrderHandlersRequestProofUpload(t *testing.T) {
	expires := time.Date(2025, 3, 13, 10, 15, 0, 0, time.UTC)
	service := &stubOrderService{
		proofFn: func(ctx context.Context, cmd services.ProofUploadCommand) (services.SignedAssetResponse, error) {
			if cmd.FileName != "receipt.jpg" || cmd.ContentType != "image/jpeg" {
				t.Fatalf("unexpected command %+v", cmd)
			}
			return services.SignedAssetResponse{
				AssetID:   "ast_1",
				URL:       "https://storage.googleapis.com/proofs/ast_1?sig=abc",
				Method:    http.MethodPut,
				Headers:   map[string]string{"Content-Type": "image/jpeg"},
				ExpiresAt: expires,
			}, nil
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)

	body := `{"file_name":"receipt.jpg","content_type":"image/jpeg","size_bytes":20480}`
	req := httptest.NewRequest(http.MethodPost, "/orders/INV-1/proof-upload", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp signedUploadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AssetID != "ast_1" || resp.Method != http.MethodPut {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.ExpiresAt != expires.Format(time.RFC3339) {
		t.Fatalf("unexpected expiry %q", resp.ExpiresAt)
	}
}

func TestOrderHandlersProofDownload(t *testing.T) {
	expires := time.Date(2025, 3, 13, 10, 20, 0, 0, time.UTC)
	service := &stubOrderService{
		downloadFn: func(ctx context.Context, orderID string) (services.SignedAssetResponse, error) {
			if orderID != "ord-1" {
				t.Fatalf("unexpected order id %q", orderID)
			}
			return services.SignedAssetResponse{
				AssetID:   "ast_1",
				URL:       "https://storage.googleapis.com/proofs/INV-1/receipt.jpg?sig=abc",
				Method:    http.MethodGet,
				ExpiresAt: expires,
			}, nil
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/orders/ord-1/proof", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp signedDownloadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AssetID != "ast_1" || resp.Method != http.MethodGet {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.ExpiresAt != expires.Format(time.RFC3339) {
		t.Fatalf("unexpected expiry %q", resp.ExpiresAt)
	}
}

func TestOrderHandlersListOrdersParsesFilter(t *testing.T) {
	now := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	fromExpected := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	var captured services.OrderListFilter
	service := &stubOrderService{
		listFn: func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			captured = filter
			return domain.CursorPage[services.Order]{
				Items:         []services.Order{sampleOrder(now)},
				NextPageToken: "tok-next",
			}, nil
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/orders?status=paid,accepted&page_size=10&page_token=tok123&customer_email=Budi@Example.com&created_after=2025-03-01T00:00:00Z", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	if len(captured.Status) != 2 {
		t.Fatalf("expected 2 status filters, got %v", captured.Status)
	}
	if captured.CustomerEmail != "budi@example.com" {
		t.Fatalf("expected lower-cased email, got %q", captured.CustomerEmail)
	}
	if captured.Pagination.PageSize != 10 || captured.Pagination.PageToken != "tok123" {
		t.Fatalf("unexpected pagination %+v", captured.Pagination)
	}
	if captured.DateRange.From == nil || !captured.DateRange.From.Equal(fromExpected) {
		t.Fatalf("unexpected date range %+v", captured.DateRange)
	}

	var resp orderListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].StatusLabel != "Menunggu Pembayaran" {
		t.Fatalf("unexpected items %+v", resp.Items)
	}
	if resp.NextPageToken != "tok-next" {
		t.Fatalf("unexpected token %q", resp.NextPageToken)
	}
}

func TestOrderHandlersListOrdersInvalidPageSize(t *testing.T) {
	handler := NewOrderHandlers(&stubOrderService{})
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/orders?page_size=abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersListOrdersInvalidDate(t *testing.T) {
	handler := NewOrderHandlers(&stubOrderService{})
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/orders?created_before=not-a-date", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersTransitionStatusPassesActor(t *testing.T) {
	now := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)

	var captured services.TransitionStatusCommand
	service := &stubOrderService{
		transitionFn: func(ctx context.Context, cmd services.TransitionStatusCommand) (services.Order, error) {
			captured = cmd
			order := sampleOrder(now)
			order.Status = domain.OrderStatusAccepted
			return order, nil
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/orders/ord_1/status", strings.NewReader(`{"status":" Accepted ","note":"mulai"}`))
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "admin-1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.OrderID != "ord_1" || captured.TargetStatus != domain.OrderStatusAccepted {
		t.Fatalf("unexpected command %+v", captured)
	}
	if captured.ActorID != "admin-1" || captured.Note != "mulai" {
		t.Fatalf("unexpected command %+v", captured)
	}
}

func TestOrderHandlersTransitionStatusInvalidTarget(t *testing.T) {
	service := &stubOrderService{
		transitionFn: func(ctx context.Context, cmd services.TransitionStatusCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderInvalidInput
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/orders/ord_1/status", strings.NewReader(`{"status":"shipped"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersDeleteOrder(t *testing.T) {
	var captured services.DeleteOrderCommand
	service := &stubOrderService{
		deleteFn: func(ctx context.Context, cmd services.DeleteOrderCommand) error {
			captured = cmd
			return nil
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodDelete, "/orders/ord_1?reason=spam", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: "admin-1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if captured.OrderID != "ord_1" || captured.ActorID != "admin-1" || captured.Reason != "spam" {
		t.Fatalf("unexpected command %+v", captured)
	}
}

func TestOrderHandlersDeleteOrderNotFound(t *testing.T) {
	service := &stubOrderService{
		deleteFn: func(ctx context.Context, cmd services.DeleteOrderCommand) error {
			return services.ErrOrderNotFound
		},
	}

	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodDelete, "/orders/ord_missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}
