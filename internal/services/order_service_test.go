package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/repositories"
)

func fixedIDGenerator() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("%08d", n)
	}
}

func testService() domain.Service {
	return domain.Service{
		ID:          "svc-logo",
		Slug:        "logo-design",
		Name:        "Logo Design",
		IsPublished: true,
		Packages: []domain.ServicePackage{
			{
				ID:           "pkg-basic",
				Name:         "Basic",
				Description:  "One concept",
				Features:     []string{"1 konsep", "2 revisi"},
				DurationDays: 7,
				Price:        500000,
			},
			{
				ID:           "pkg-pro",
				Name:         "Professional",
				Features:     []string{"3 konsep", "revisi tanpa batas"},
				DurationDays: 14,
				Price:        1500000,
			},
		},
	}
}

func testPaymentMethod() domain.PaymentMethod {
	return domain.PaymentMethod{
		ID:       "pay-bca",
		Type:     "bank_transfer",
		Name:     "BCA",
		IsActive: true,
	}
}

func newTestOrderService(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepository{}
	}
	if deps.Logs == nil {
		deps.Logs = &stubOrderLogRepository{}
	}
	if deps.Catalog == nil {
		deps.Catalog = &stubCatalogRepository{
			findServiceFunc: func(ctx context.Context, serviceID string) (domain.Service, error) {
				return testService(), nil
			},
		}
	}
	if deps.PaymentMethods == nil {
		deps.PaymentMethods = &stubPaymentMethodRepository{
			findByIDFunc: func(ctx context.Context, id string) (domain.PaymentMethod, error) {
				return testPaymentMethod(), nil
			},
		}
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = fixedIDGenerator()
	}
	if deps.InvoiceSuffix == nil {
		deps.InvoiceSuffix = func() string { return "ABCDE" }
	}
	service, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("unexpected error constructing order service: %v", err)
	}
	return service
}

func TestOrderServiceCreateOrderSnapshotsPackage(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	var inserted domain.Order
	var logged domain.OrderLogEntry
	orders := &stubOrderRepository{
		insertFunc: func(ctx context.Context, order domain.Order) error {
			inserted = order
			return nil
		},
	}
	logs := &stubOrderLogRepository{
		appendFunc: func(ctx context.Context, entry domain.OrderLogEntry) error {
			logged = entry
			return nil
		},
	}
	notifier := &recordingNotifier{}

	service := newTestOrderService(t, OrderServiceDeps{
		Orders:          orders,
		Logs:            logs,
		Notifier:        notifier,
		PaymentDeadline: 48 * time.Hour,
		Clock:           func() time.Time { return now },
	})

	order, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ServiceID:       "svc-logo",
		PackageID:       "pkg-basic",
		PaymentMethodID: "pay-bca",
		Customer: Customer{
			Name:     "  Budi Santoso ",
			Email:    "Budi@Example.COM",
			WhatsApp: "+62811111111",
		},
		Notes: "tolong warna biru",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(order.ID, "ord_") {
		t.Fatalf("expected ord_ prefix, got %q", order.ID)
	}
	if order.InvoiceNumber != "INV-20250312-ABCDE" {
		t.Fatalf("unexpected invoice number %q", order.InvoiceNumber)
	}
	if order.Status != domain.OrderStatusPendingPayment {
		t.Fatalf("expected pending_payment, got %q", order.Status)
	}
	if order.Package.Name != "Basic" || order.Package.Price != 500000 {
		t.Fatalf("unexpected package snapshot %+v", order.Package)
	}
	if len(order.Package.Features) != 2 {
		t.Fatalf("expected copied features, got %v", order.Package.Features)
	}
	if order.BasePrice != 500000 || order.FinalPrice != 500000 {
		t.Fatalf("expected price carried over, got base=%d final=%d", order.BasePrice, order.FinalPrice)
	}
	if order.Customer.Name != "Budi Santoso" || order.Customer.Email != "budi@example.com" {
		t.Fatalf("expected normalised customer, got %+v", order.Customer)
	}
	if !order.PaymentDeadline.Equal(now.Add(48 * time.Hour)) {
		t.Fatalf("unexpected payment deadline %v", order.PaymentDeadline)
	}

	if inserted.ID != order.ID {
		t.Fatalf("expected order persisted")
	}
	if logged.OrderID != order.ID || logged.Status != domain.OrderStatusPendingPayment {
		t.Fatalf("unexpected log entry %+v", logged)
	}
	if logged.Note != "tolong warna biru" {
		t.Fatalf("expected notes on the first log entry, got %q", logged.Note)
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.events))
	}
	event := notifier.events[0]
	if event.Type != domain.NotificationTypeNewOrder {
		t.Fatalf("unexpected notification type %q", event.Type)
	}
	if event.Title != "Pesanan Baru" {
		t.Fatalf("unexpected notification title %q", event.Title)
	}
	if event.Link != "/admin/orders/"+order.ID {
		t.Fatalf("unexpected notification link %q", event.Link)
	}
}

func TestOrderServiceCreateOrderAppliesDiscount(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	var ops []string
	discounts := &stubDiscountRepository{
		findByCodeFunc: func(ctx context.Context, code string) (domain.Discount, error) {
			if code != "LAUNCH10" {
				t.Fatalf("expected upper-cased code, got %q", code)
			}
			return domain.Discount{
				ID:       "dsc-1",
				Code:     "LAUNCH10",
				Type:     domain.DiscountTypePercentage,
				Value:    10,
				IsActive: true,
			}, nil
		},
		consumeFunc: func(ctx context.Context, discountID string, consumedAt time.Time) (domain.Discount, error) {
			ops = append(ops, "consume")
			if discountID != "dsc-1" {
				t.Fatalf("unexpected discount id %q", discountID)
			}
			return domain.Discount{}, nil
		},
	}
	orders := &stubOrderRepository{
		insertFunc: func(ctx context.Context, order domain.Order) error {
			ops = append(ops, "insert")
			return nil
		},
	}
	logs := &stubOrderLogRepository{
		appendFunc: func(ctx context.Context, entry domain.OrderLogEntry) error {
			ops = append(ops, "append")
			return nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{
		Orders:    orders,
		Logs:      logs,
		Discounts: discounts,
		Clock:     func() time.Time { return now },
	})

	order, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ServiceID:       "svc-logo",
		PackageID:       "pkg-basic",
		PaymentMethodID: "pay-bca",
		DiscountCode:    " launch10 ",
		Customer:        Customer{Name: "Sari", Email: "sari@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.DiscountCode == nil || *order.DiscountCode != "LAUNCH10" {
		t.Fatalf("expected discount code recorded, got %v", order.DiscountCode)
	}
	if order.DiscountAmount == nil || *order.DiscountAmount != 50000 {
		t.Fatalf("expected 10%% of 500000, got %v", order.DiscountAmount)
	}
	if order.FinalPrice != 450000 {
		t.Fatalf("expected final price 450000, got %d", order.FinalPrice)
	}

	// The usage counter must be read before the buffered writes.
	want := []string{"consume", "insert", "append"}
	if len(ops) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("expected ops %v, got %v", want, ops)
		}
	}
}

func TestOrderServiceCreateOrderRaisesDiscountHousekeeping(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	expiry := now.Add(24 * time.Hour)
	limit := int64(5)

	discounts := &stubDiscountRepository{
		findByCodeFunc: func(ctx context.Context, code string) (domain.Discount, error) {
			return domain.Discount{
				ID:         "dsc-1",
				Code:       "LAST5",
				Type:       domain.DiscountTypeFixed,
				Value:      25000,
				IsActive:   true,
				UsageLimit: &limit,
				UsedCount:  4,
				ExpiresAt:  &expiry,
			}, nil
		},
		consumeFunc: func(ctx context.Context, discountID string, consumedAt time.Time) (domain.Discount, error) {
			return domain.Discount{
				ID:         "dsc-1",
				Code:       "LAST5",
				UsageLimit: &limit,
				UsedCount:  5,
				ExpiresAt:  &expiry,
			}, nil
		},
	}
	notifier := &recordingNotifier{}

	service := newTestOrderService(t, OrderServiceDeps{
		Discounts: discounts,
		Notifier:  notifier,
		Clock:     func() time.Time { return now },
	})

	_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ServiceID:       "svc-logo",
		PackageID:       "pkg-basic",
		PaymentMethodID: "pay-bca",
		DiscountCode:    "LAST5",
		Customer:        Customer{Name: "Sari", Email: "sari@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.events) != 3 {
		t.Fatalf("expected 3 notifications, got %d: %+v", len(notifier.events), notifier.events)
	}
	if notifier.events[0].Type != domain.NotificationTypeNewOrder {
		t.Fatalf("expected new order event first, got %q", notifier.events[0].Type)
	}
	if notifier.events[1].Type != domain.NotificationTypeDiscountExhausted {
		t.Fatalf("expected exhausted event, got %q", notifier.events[1].Type)
	}
	if notifier.events[1].Title != "Diskon Mencapai Batas" {
		t.Fatalf("unexpected title %q", notifier.events[1].Title)
	}
	if notifier.events[2].Type != domain.NotificationTypeDiscountExpiring {
		t.Fatalf("expected expiring event, got %q", notifier.events[2].Type)
	}
	if !strings.Contains(notifier.events[2].Message, "LAST5") {
		t.Fatalf("expected code in message, got %q", notifier.events[2].Message)
	}
}

func TestOrderServiceCreateOrderDiscountExhaustedAtRedemption(t *testing.T) {
	inserted := false
	orders := &stubOrderRepository{
		insertFunc: func(ctx context.Context, order domain.Order) error {
			inserted = true
			return nil
		},
	}
	discounts := &stubDiscountRepository{
		findByCodeFunc: func(ctx context.Context, code string) (domain.Discount, error) {
			return domain.Discount{ID: "dsc-1", Code: "FULL", Type: domain.DiscountTypeFixed, Value: 1000, IsActive: true}, nil
		},
		consumeFunc: func(ctx context.Context, discountID string, now time.Time) (domain.Discount, error) {
			return domain.Discount{}, repositories.ErrUsageLimitReached
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{
		Orders:    orders,
		Discounts: discounts,
	})

	_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ServiceID:       "svc-logo",
		PackageID:       "pkg-basic",
		PaymentMethodID: "pay-bca",
		DiscountCode:    "FULL",
		Customer:        Customer{Name: "Sari", Email: "sari@example.com"},
	})
	if !errors.Is(err, ErrDiscountExhausted) {
		t.Fatalf("expected ErrDiscountExhausted, got %v", err)
	}
	if inserted {
		t.Fatalf("expected insert to be skipped when usage consumption fails")
	}
}

func TestOrderServiceCreateOrderRejectsScopedDiscountForOtherService(t *testing.T) {
	discounts := &stubDiscountRepository{
		findByCodeFunc: func(ctx context.Context, code string) (domain.Discount, error) {
			return domain.Discount{
				ID:        "dsc-1",
				Code:      "WEBONLY",
				Type:      domain.DiscountTypePercentage,
				Value:     20,
				ServiceID: strPtr("svc-web"),
				IsActive:  true,
			}, nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{Discounts: discounts})

	_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ServiceID:       "svc-logo",
		PackageID:       "pkg-basic",
		PaymentMethodID: "pay-bca",
		DiscountCode:    "WEBONLY",
		Customer:        Customer{Name: "Sari", Email: "sari@example.com"},
	})
	if !errors.Is(err, ErrDiscountNotApplicable) {
		t.Fatalf("expected ErrDiscountNotApplicable, got %v", err)
	}
}

func TestOrderServiceCreateOrderConflictOnDuplicateInvoice(t *testing.T) {
	orders := &stubOrderRepository{
		existsFunc: func(ctx context.Context, invoiceNumber string) (bool, error) {
			return true, nil
		},
		insertFunc: func(ctx context.Context, order domain.Order) error {
			t.Fatalf("order %s must not be inserted on a duplicate invoice number", order.ID)
			return nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{Orders: orders})

	_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ServiceID:       "svc-logo",
		PackageID:       "pkg-basic",
		PaymentMethodID: "pay-bca",
		Customer:        Customer{Name: "Budi", Email: "budi@example.com"},
	})
	if !errors.Is(err, ErrOrderConflict) {
		t.Fatalf("expected ErrOrderConflict, got %v", err)
	}
}

func TestOrderServiceCreateOrderValidation(t *testing.T) {
	catalog := &stubCatalogRepository{
		findServiceFunc: func(ctx context.Context, serviceID string) (domain.Service, error) {
			svc := testService()
			if serviceID == "svc-draft" {
				svc.IsPublished = false
			}
			return svc, nil
		},
	}
	paymentMethods := &stubPaymentMethodRepository{
		findByIDFunc: func(ctx context.Context, id string) (domain.PaymentMethod, error) {
			method := testPaymentMethod()
			if id == "pay-off" {
				method.IsActive = false
			}
			return method, nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{
		Catalog:        catalog,
		PaymentMethods: paymentMethods,
	})

	valid := CreateOrderCommand{
		ServiceID:       "svc-logo",
		PackageID:       "pkg-basic",
		PaymentMethodID: "pay-bca",
		Customer:        Customer{Name: "Sari", Email: "sari@example.com"},
	}

	cases := []struct {
		name    string
		mutate  func(cmd *CreateOrderCommand)
		wantErr error
	}{
		{
			name:    "missing service id",
			mutate:  func(cmd *CreateOrderCommand) { cmd.ServiceID = " " },
			wantErr: ErrOrderInvalidInput,
		},
		{
			name:    "missing package id",
			mutate:  func(cmd *CreateOrderCommand) { cmd.PackageID = "" },
			wantErr: ErrOrderInvalidInput,
		},
		{
			name:    "missing payment method",
			mutate:  func(cmd *CreateOrderCommand) { cmd.PaymentMethodID = "" },
			wantErr: ErrOrderInvalidInput,
		},
		{
			name:    "missing customer name",
			mutate:  func(cmd *CreateOrderCommand) { cmd.Customer.Name = "" },
			wantErr: ErrOrderInvalidInput,
		},
		{
			name:    "invalid email",
			mutate:  func(cmd *CreateOrderCommand) { cmd.Customer.Email = "not-an-email" },
			wantErr: ErrOrderInvalidInput,
		},
		{
			name:    "email without domain dot",
			mutate:  func(cmd *CreateOrderCommand) { cmd.Customer.Email = "a@b" },
			wantErr: ErrOrderInvalidInput,
		},
		{
			name:    "unpublished service",
			mutate:  func(cmd *CreateOrderCommand) { cmd.ServiceID = "svc-draft" },
			wantErr: ErrOrderInvalidInput,
		},
		{
			name:    "unknown package",
			mutate:  func(cmd *CreateOrderCommand) { cmd.PackageID = "pkg-missing" },
			wantErr: ErrOrderNotFound,
		},
		{
			name:    "inactive payment method",
			mutate:  func(cmd *CreateOrderCommand) { cmd.PaymentMethodID = "pay-off" },
			wantErr: ErrOrderInvalidInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := valid
			tc.mutate(&cmd)
			_, err := service.CreateOrder(context.Background(), cmd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestOrderServiceConfirmPaymentMovesToPaid(t *testing.T) {
	now := time.Date(2025, 3, 13, 8, 0, 0, 0, time.UTC)

	var updated domain.Order
	var logged domain.OrderLogEntry
	orders := &stubOrderRepository{
		findByInvoiceFunc: func(ctx context.Context, invoice string) (domain.Order, error) {
			if invoice != "INV-20250312-ABCDE" {
				t.Fatalf("expected upper-cased invoice, got %q", invoice)
			}
			return domain.Order{
				ID:            "ord_1",
				InvoiceNumber: invoice,
				Status:        domain.OrderStatusPendingPayment,
			}, nil
		},
		updateFunc: func(ctx context.Context, order domain.Order) error {
			updated = order
			return nil
		},
	}
	logs := &stubOrderLogRepository{
		appendFunc: func(ctx context.Context, entry domain.OrderLogEntry) error {
			logged = entry
			return nil
		},
	}
	notifier := &recordingNotifier{}

	service := newTestOrderService(t, OrderServiceDeps{
		Orders:   orders,
		Logs:     logs,
		Notifier: notifier,
		Clock:    func() time.Time { return now },
	})

	order, err := service.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		InvoiceNumber:     "inv-20250312-abcde",
		ProofOfPaymentURL: "https://storage.example.com/proofs/p1.jpg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid, got %q", order.Status)
	}
	if order.ProofOfPaymentURL == nil || *order.ProofOfPaymentURL != "https://storage.example.com/proofs/p1.jpg" {
		t.Fatalf("expected proof url stored, got %v", order.ProofOfPaymentURL)
	}
	if updated.Status != domain.OrderStatusPaid {
		t.Fatalf("expected update persisted")
	}
	if logged.Note != "Bukti pembayaran diterima" {
		t.Fatalf("unexpected log note %q", logged.Note)
	}
	if len(notifier.events) != 1 || notifier.events[0].Title != "Pembayaran Dikonfirmasi" {
		t.Fatalf("unexpected notifications %+v", notifier.events)
	}
}

func TestOrderServiceConfirmPaymentOnlyWhilePending(t *testing.T) {
	orders := &stubOrderRepository{
		findByInvoiceFunc: func(ctx context.Context, invoice string) (domain.Order, error) {
			return domain.Order{ID: "ord_1", Status: domain.OrderStatusPaid}, nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{Orders: orders})

	_, err := service.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		InvoiceNumber:     "INV-1",
		ProofOfPaymentURL: "https://example.com/p.jpg",
	})
	if !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected ErrOrderInvalidState, got %v", err)
	}
}

func TestOrderServiceTransitionStatus(t *testing.T) {
	cases := []struct {
		name    string
		from    domain.OrderStatus
		to      domain.OrderStatus
		wantErr error
	}{
		{name: "paid to accepted", from: domain.OrderStatusPaid, to: domain.OrderStatusAccepted},
		{name: "accepted to in progress", from: domain.OrderStatusAccepted, to: domain.OrderStatusInProgress},
		{name: "in progress to completed", from: domain.OrderStatusInProgress, to: domain.OrderStatusCompleted},
		{name: "pending cancel", from: domain.OrderStatusPendingPayment, to: domain.OrderStatusCancelled},
		{name: "skip ahead", from: domain.OrderStatusPendingPayment, to: domain.OrderStatusInProgress, wantErr: ErrOrderInvalidState},
		{name: "completed is terminal", from: domain.OrderStatusCompleted, to: domain.OrderStatusCancelled, wantErr: ErrOrderInvalidState},
		{name: "cancelled is terminal", from: domain.OrderStatusCancelled, to: domain.OrderStatusPaid, wantErr: ErrOrderInvalidState},
		{name: "unknown status", from: domain.OrderStatusPaid, to: domain.OrderStatus("shipped"), wantErr: ErrOrderInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &stubOrderRepository{
				findByIDFunc: func(ctx context.Context, id string) (domain.Order, error) {
					return domain.Order{ID: id, InvoiceNumber: "INV-1", Status: tc.from}, nil
				},
			}

			service := newTestOrderService(t, OrderServiceDeps{Orders: orders})

			order, err := service.TransitionStatus(context.Background(), TransitionStatusCommand{
				OrderID:      "ord_1",
				TargetStatus: tc.to,
				ActorID:      "admin-1",
			})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if order.Status != tc.to {
				t.Fatalf("expected status %q, got %q", tc.to, order.Status)
			}
		})
	}
}

func TestOrderServiceTransitionStatusNotifiesWithLabel(t *testing.T) {
	orders := &stubOrderRepository{
		findByIDFunc: func(ctx context.Context, id string) (domain.Order, error) {
			return domain.Order{ID: id, InvoiceNumber: "INV-7", Status: domain.OrderStatusInProgress}, nil
		},
	}
	notifier := &recordingNotifier{}

	service := newTestOrderService(t, OrderServiceDeps{Orders: orders, Notifier: notifier})

	_, err := service.TransitionStatus(context.Background(), TransitionStatusCommand{
		OrderID:      "ord_1",
		TargetStatus: domain.OrderStatusCompleted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.events))
	}
	if !strings.Contains(notifier.events[0].Message, "Selesai") {
		t.Fatalf("expected localised status label in %q", notifier.events[0].Message)
	}
}

func TestOrderServiceDeleteOrderCleansHistory(t *testing.T) {
	deleted := ""
	historyCleared := ""
	orders := &stubOrderRepository{
		findByIDFunc: func(ctx context.Context, id string) (domain.Order, error) {
			return domain.Order{ID: id, InvoiceNumber: "INV-9", Customer: domain.Customer{Name: "Sari"}}, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	logs := &stubOrderLogRepository{
		deleteByOrderFunc: func(ctx context.Context, orderID string) (int, error) {
			historyCleared = orderID
			return 3, nil
		},
	}
	notifier := &recordingNotifier{}

	service := newTestOrderService(t, OrderServiceDeps{
		Orders:   orders,
		Logs:     logs,
		Notifier: notifier,
	})

	err := service.DeleteOrder(context.Background(), DeleteOrderCommand{OrderID: "ord_9", Reason: "duplicate"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "ord_9" || historyCleared != "ord_9" {
		t.Fatalf("expected order and history removed, got order=%q history=%q", deleted, historyCleared)
	}
	if len(notifier.events) != 1 || notifier.events[0].Type != domain.NotificationTypeOrderDeleted {
		t.Fatalf("unexpected notifications %+v", notifier.events)
	}
}

func TestOrderServiceDeleteOrderToleratesHistoryFailure(t *testing.T) {
	orders := &stubOrderRepository{
		findByIDFunc: func(ctx context.Context, id string) (domain.Order, error) {
			return domain.Order{ID: id}, nil
		},
	}
	logs := &stubOrderLogRepository{
		deleteByOrderFunc: func(ctx context.Context, orderID string) (int, error) {
			return 0, errors.New("bulk writer unavailable")
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{Orders: orders, Logs: logs})

	if err := service.DeleteOrder(context.Background(), DeleteOrderCommand{OrderID: "ord_9"}); err != nil {
		t.Fatalf("expected history failure to be swallowed, got %v", err)
	}
}

func TestOrderServiceGetOrderByInvoiceLoadsHistory(t *testing.T) {
	orders := &stubOrderRepository{
		findByInvoiceFunc: func(ctx context.Context, invoice string) (domain.Order, error) {
			if invoice != "INV-20250312-ABCDE" {
				t.Fatalf("expected upper-cased invoice, got %q", invoice)
			}
			return domain.Order{ID: "ord_1", InvoiceNumber: invoice}, nil
		},
	}
	logs := &stubOrderLogRepository{
		listFunc: func(ctx context.Context, orderID string) ([]domain.OrderLogEntry, error) {
			return []domain.OrderLogEntry{{ID: "olg_1", OrderID: orderID}}, nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{Orders: orders, Logs: logs})

	order, history, err := service.GetOrderByInvoice(context.Background(), " inv-20250312-abcde ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "ord_1" {
		t.Fatalf("unexpected order %+v", order)
	}
	if len(history) != 1 || history[0].OrderID != "ord_1" {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestOrderServiceMapsNotFound(t *testing.T) {
	orders := &stubOrderRepository{
		findByIDFunc: func(ctx context.Context, id string) (domain.Order, error) {
			return domain.Order{}, &repositoryErrorStub{notFound: true}
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{Orders: orders})

	_, err := service.GetOrder(context.Background(), "ord_missing")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderServiceRequestProofUploadRequiresPending(t *testing.T) {
	orders := &stubOrderRepository{
		findByInvoiceFunc: func(ctx context.Context, invoice string) (domain.Order, error) {
			return domain.Order{ID: "ord_1", Status: domain.OrderStatusPaid}, nil
		},
	}
	assets := &stubAssetRepository{}

	service := newTestOrderService(t, OrderServiceDeps{Orders: orders, Assets: assets})

	_, err := service.RequestProofUpload(context.Background(), ProofUploadCommand{
		InvoiceNumber: "INV-1",
		FileName:      "receipt.jpg",
		ContentType:   "image/jpeg",
		SizeBytes:     1024,
	})
	if !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected ErrOrderInvalidState, got %v", err)
	}
}

func TestOrderServiceRequestProofUploadIssuesSignedURL(t *testing.T) {
	orders := &stubOrderRepository{
		findByInvoiceFunc: func(ctx context.Context, invoice string) (domain.Order, error) {
			return domain.Order{ID: "ord_1", InvoiceNumber: invoice, Status: domain.OrderStatusPendingPayment}, nil
		},
	}
	assets := &stubAssetRepository{
		createFunc: func(ctx context.Context, cmd repositories.SignedUploadRecord) (domain.SignedAssetResponse, error) {
			if cmd.InvoiceNumber != "INV-1" || cmd.FileName != "receipt.jpg" {
				t.Fatalf("unexpected upload record %+v", cmd)
			}
			return domain.SignedAssetResponse{AssetID: "ast_1", URL: "https://signed.example.com", Method: "PUT"}, nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{Orders: orders, Assets: assets})

	signed, err := service.RequestProofUpload(context.Background(), ProofUploadCommand{
		InvoiceNumber: "inv-1",
		FileName:      " receipt.jpg ",
		ContentType:   "image/jpeg",
		SizeBytes:     2048,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed.AssetID != "ast_1" || signed.Method != "PUT" {
		t.Fatalf("unexpected signed response %+v", signed)
	}
}

func TestOrderServiceProofDownload(t *testing.T) {
	orders := &stubOrderRepository{
		findByIDFunc: func(ctx context.Context, orderID string) (domain.Order, error) {
			if orderID != "ord_1" {
				t.Fatalf("unexpected order id %q", orderID)
			}
			return domain.Order{ID: "ord_1", InvoiceNumber: "INV-1", Status: domain.OrderStatusPaid}, nil
		},
	}
	assets := &stubAssetRepository{
		downloadFunc: func(ctx context.Context, invoiceNumber string) (domain.SignedAssetResponse, error) {
			if invoiceNumber != "INV-1" {
				t.Fatalf("unexpected invoice %q", invoiceNumber)
			}
			return domain.SignedAssetResponse{AssetID: "ast_1", URL: "https://signed.example.com/receipt", Method: "GET"}, nil
		},
	}

	service := newTestOrderService(t, OrderServiceDeps{Orders: orders, Assets: assets})

	signed, err := service.ProofDownload(context.Background(), " ord_1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed.Method != "GET" || signed.URL != "https://signed.example.com/receipt" {
		t.Fatalf("unexpected signed response %+v", signed)
	}

	if _, err := service.ProofDownload(context.Background(), ""); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}
