package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/repositories"
)

const (
	orderIDPrefix    = "ord_"
	orderLogIDPrefix = "olg_"
	invoicePrefix    = "INV"

	defaultPaymentDeadline = 24 * time.Hour
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates no order matches the given ID or invoice number.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates the requested operation is not allowed
	// from the order's current status.
	ErrOrderInvalidState = errors.New("order: invalid state")
	// ErrOrderConflict indicates a write collided with a concurrent change.
	ErrOrderConflict = errors.New("order: conflict")
)

// orderTransitions defines the allowed status machine. Cancellation is open
// from every non-terminal state; completed and cancelled are terminal.
var orderTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPendingPayment: {domain.OrderStatusPaid, domain.OrderStatusCancelled},
	domain.OrderStatusPaid:           {domain.OrderStatusAccepted, domain.OrderStatusCancelled},
	domain.OrderStatusAccepted:       {domain.OrderStatusInProgress, domain.OrderStatusCancelled},
	domain.OrderStatusInProgress:     {domain.OrderStatusCompleted, domain.OrderStatusCancelled},
	domain.OrderStatusCompleted:      {},
	domain.OrderStatusCancelled:      {},
}

func canTransition(from, to domain.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders         repositories.OrderRepository
	Logs           repositories.OrderLogRepository
	Catalog        repositories.CatalogRepository
	PaymentMethods repositories.PaymentMethodRepository
	Discounts      repositories.DiscountRepository
	Assets         repositories.AssetRepository
	Notifier       NotificationService
	UnitOfWork     repositories.UnitOfWork

	PaymentDeadline time.Duration
	Clock           func() time.Time
	IDGenerator     func() string
	InvoiceSuffix   func() string
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders         repositories.OrderRepository
	logs           repositories.OrderLogRepository
	catalog        repositories.CatalogRepository
	paymentMethods repositories.PaymentMethodRepository
	discounts      repositories.DiscountRepository
	assets         repositories.AssetRepository
	notifier       NotificationService
	uow            repositories.UnitOfWork

	paymentDeadline time.Duration
	clock           func() time.Time
	newID           func() string
	invoiceSuffix   func() string
	logger          func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Logs == nil {
		return nil, errors.New("order service: order log repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog repository is required")
	}
	if deps.PaymentMethods == nil {
		return nil, errors.New("order service: payment method repository is required")
	}

	uow := deps.UnitOfWork
	if uow == nil {
		uow = noopUnitOfWork{}
	}

	deadline := deps.PaymentDeadline
	if deadline <= 0 {
		deadline = defaultPaymentDeadline
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return strings.ToLower(ulid.Make().String())
		}
	}

	suffix := deps.InvoiceSuffix
	if suffix == nil {
		suffix = func() string {
			// Crockford base32 randomness from the ULID tail.
			raw := ulid.Make().String()
			return raw[len(raw)-5:]
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:          deps.Orders,
		logs:            deps.Logs,
		catalog:         deps.Catalog,
		paymentMethods:  deps.PaymentMethods,
		discounts:       deps.Discounts,
		assets:          deps.Assets,
		notifier:        deps.Notifier,
		uow:             uow,
		paymentDeadline: deadline,
		clock:           func() time.Time { return clock().UTC() },
		newID:           idGen,
		invoiceSuffix:   suffix,
		logger:          logger,
	}, nil
}

// CreateOrder places a new service order. The chosen package is copied onto
// the order so later catalog edits never change what was sold, and the
// discount usage slot is consumed in the same transaction that persists the
// order.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	if err := validateCreateOrder(cmd); err != nil {
		return Order{}, err
	}

	svc, err := s.catalog.FindService(ctx, cmd.ServiceID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err, "service")
	}
	if !svc.IsPublished {
		return Order{}, fmt.Errorf("%w: service %s is not available", ErrOrderInvalidInput, cmd.ServiceID)
	}

	pkg, ok := findPackage(svc, cmd.PackageID)
	if !ok {
		return Order{}, fmt.Errorf("%w: package %s not found in service %s", ErrOrderNotFound, cmd.PackageID, cmd.ServiceID)
	}

	method, err := s.paymentMethods.FindByID(ctx, cmd.PaymentMethodID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err, "payment method")
	}
	if !method.IsActive {
		return Order{}, fmt.Errorf("%w: payment method %s is not active", ErrOrderInvalidInput, cmd.PaymentMethodID)
	}

	now := s.clock()
	order := Order{
		ID:            orderIDPrefix + s.newID(),
		InvoiceNumber: s.newInvoiceNumber(now),
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		Package: PackageSnapshot{
			ID:           pkg.ID,
			Name:         pkg.Name,
			Description:  pkg.Description,
			Features:     append([]string(nil), pkg.Features...),
			DurationDays: pkg.DurationDays,
			Price:        pkg.Price,
		},
		Customer:          normaliseCustomer(cmd.Customer),
		BasePrice:         pkg.Price,
		FinalPrice:        pkg.Price,
		PaymentMethodID:   method.ID,
		PaymentMethodName: method.Name,
		PaymentDeadline:   now.Add(s.paymentDeadline),
		Status:            domain.OrderStatusPendingPayment,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var discount *Discount
	code := strings.ToUpper(strings.TrimSpace(cmd.DiscountCode))
	if code != "" {
		if s.discounts == nil {
			return Order{}, fmt.Errorf("%w: discount codes are not supported", ErrOrderInvalidInput)
		}
		found, err := s.discounts.FindByCode(ctx, code)
		if err != nil {
			return Order{}, s.mapDiscountError(err)
		}
		if err := checkApplicability(found, svc.ID, now); err != nil {
			return Order{}, err
		}
		amount := ComputeDiscountAmount(found, order.BasePrice)
		order.DiscountCode = valuePtr(found.Code)
		order.DiscountAmount = valuePtr(amount)
		order.FinalPrice = finalPrice(order.BasePrice, amount)
		discount = &found
	}

	entry := OrderLogEntry{
		ID:        orderLogIDPrefix + s.newID(),
		OrderID:   order.ID,
		Status:    domain.OrderStatusPendingPayment,
		Note:      strings.TrimSpace(cmd.Notes),
		CreatedAt: now,
	}

	// Firestore buffers transactional writes, so the invoice-number check
	// and the usage-counter read have to run before any insert.
	var consumed Discount
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		taken, err := s.orders.ExistsByInvoiceNumber(ctx, order.InvoiceNumber)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: invoice number %s already exists", ErrOrderConflict, order.InvoiceNumber)
		}
		if discount != nil {
			updated, err := s.discounts.ConsumeUsage(ctx, discount.ID, now)
			if err != nil {
				return err
			}
			consumed = updated
		}
		if err := s.orders.Insert(ctx, order); err != nil {
			return err
		}
		return s.logs.Append(ctx, entry)
	})
	if err != nil {
		if isDiscountSentinel(err) {
			return Order{}, s.mapDiscountError(err)
		}
		return Order{}, s.mapRepositoryError(err, "order")
	}

	s.logger(ctx, "order.created", map[string]any{
		"order":   order.ID,
		"invoice": order.InvoiceNumber,
		"service": order.ServiceID,
	})
	s.notify(ctx, NotificationEvent{
		Type:       domain.NotificationTypeNewOrder,
		Title:      "Pesanan Baru",
		Message:    fmt.Sprintf("%s memesan %s (%s)", order.Customer.Name, order.ServiceName, order.Package.Name),
		Link:       "/admin/orders/" + order.ID,
		RelatedID:  order.ID,
		OccurredAt: now,
		Metadata: map[string]any{
			"invoiceNumber": order.InvoiceNumber,
			"finalPrice":    order.FinalPrice,
		},
	})
	if discount != nil {
		for _, event := range discountHousekeepingEvents(consumed, now) {
			s.notify(ctx, event)
		}
	}
	return order, nil
}

// GetOrder loads one order by its internal ID.
func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.mapRepositoryError(err, "order")
	}
	return order, nil
}

// GetOrderByInvoice loads one order plus its status history for the public
// invoice page.
func (s *orderService) GetOrderByInvoice(ctx context.Context, invoiceNumber string) (Order, []OrderLogEntry, error) {
	invoice := strings.ToUpper(strings.TrimSpace(invoiceNumber))
	if invoice == "" {
		return Order{}, nil, fmt.Errorf("%w: invoice number is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByInvoiceNumber(ctx, invoice)
	if err != nil {
		return Order{}, nil, s.mapRepositoryError(err, "order")
	}
	history, err := s.logs.List(ctx, order.ID)
	if err != nil {
		return Order{}, nil, s.mapRepositoryError(err, "order history")
	}
	return order, history, nil
}

// ListOrders pages through orders for the admin dashboard.
func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, s.mapRepositoryError(err, "orders")
	}
	return page, nil
}

// ConfirmPayment attaches proof of payment and moves the order to paid.
func (s *orderService) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (Order, error) {
	invoice := strings.ToUpper(strings.TrimSpace(cmd.InvoiceNumber))
	if invoice == "" {
		return Order{}, fmt.Errorf("%w: invoice number is required", ErrOrderInvalidInput)
	}
	proofURL := strings.TrimSpace(cmd.ProofOfPaymentURL)
	if proofURL == "" {
		return Order{}, fmt.Errorf("%w: proof of payment url is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByInvoiceNumber(ctx, invoice)
	if err != nil {
		return Order{}, s.mapRepositoryError(err, "order")
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return Order{}, fmt.Errorf("%w: order %s is %s, payment can only be confirmed while pending",
			ErrOrderInvalidState, order.ID, order.Status)
	}

	now := s.clock()
	order.Status = domain.OrderStatusPaid
	order.ProofOfPaymentURL = valuePtr(proofURL)
	order.UpdatedAt = now

	entry := OrderLogEntry{
		ID:        orderLogIDPrefix + s.newID(),
		OrderID:   order.ID,
		Status:    domain.OrderStatusPaid,
		Note:      "Bukti pembayaran diterima",
		CreatedAt: now,
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Update(ctx, order); err != nil {
			return err
		}
		return s.logs.Append(ctx, entry)
	})
	if err != nil {
		return Order{}, s.mapRepositoryError(err, "order")
	}

	s.notify(ctx, NotificationEvent{
		Type:       domain.NotificationTypeOrderStatus,
		Title:      "Pembayaran Dikonfirmasi",
		Message:    fmt.Sprintf("Pesanan %s menunggu verifikasi pembayaran", order.InvoiceNumber),
		Link:       "/admin/orders/" + order.ID,
		RelatedID:  order.ID,
		OccurredAt: now,
	})
	return order, nil
}

// RequestProofUpload issues a signed URL the customer can PUT a payment
// receipt to. Only orders still awaiting payment may request one.
func (s *orderService) RequestProofUpload(ctx context.Context, cmd ProofUploadCommand) (SignedAssetResponse, error) {
	if s.assets == nil {
		return SignedAssetResponse{}, errors.New("order service: asset repository not configured")
	}
	invoice := strings.ToUpper(strings.TrimSpace(cmd.InvoiceNumber))
	if invoice == "" {
		return SignedAssetResponse{}, fmt.Errorf("%w: invoice number is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByInvoiceNumber(ctx, invoice)
	if err != nil {
		return SignedAssetResponse{}, s.mapRepositoryError(err, "order")
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return SignedAssetResponse{}, fmt.Errorf("%w: order %s no longer accepts payment proofs", ErrOrderInvalidState, order.ID)
	}

	signed, err := s.assets.CreateSignedUpload(ctx, repositories.SignedUploadRecord{
		InvoiceNumber: order.InvoiceNumber,
		FileName:      strings.TrimSpace(cmd.FileName),
		ContentType:   strings.TrimSpace(cmd.ContentType),
		SizeBytes:     cmd.SizeBytes,
	})
	if err != nil {
		return SignedAssetResponse{}, s.mapRepositoryError(err, "upload")
	}
	return signed, nil
}

// ProofDownload signs a download URL for the newest payment receipt on an
// order, for staff verifying the payment from the admin console.
func (s *orderService) ProofDownload(ctx context.Context, orderID string) (SignedAssetResponse, error) {
	if s.assets == nil {
		return SignedAssetResponse{}, errors.New("order service: asset repository not configured")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return SignedAssetResponse{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return SignedAssetResponse{}, s.mapRepositoryError(err, "order")
	}

	signed, err := s.assets.CreateSignedProofDownload(ctx, order.InvoiceNumber)
	if err != nil {
		return SignedAssetResponse{}, s.mapRepositoryError(err, "receipt")
	}
	return signed, nil
}

// TransitionStatus moves an order along the status machine on behalf of staff.
func (s *orderService) TransitionStatus(ctx context.Context, cmd TransitionStatusCommand) (Order, error) {
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	target := cmd.TargetStatus
	if _, known := orderTransitions[target]; !known {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, target)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.mapRepositoryError(err, "order")
	}
	if !canTransition(order.Status, target) {
		return Order{}, fmt.Errorf("%w: cannot move order %s from %s to %s",
			ErrOrderInvalidState, order.ID, order.Status, target)
	}

	now := s.clock()
	order.Status = target
	order.UpdatedAt = now

	entry := OrderLogEntry{
		ID:        orderLogIDPrefix + s.newID(),
		OrderID:   order.ID,
		Status:    target,
		Note:      strings.TrimSpace(cmd.Note),
		CreatedAt: now,
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Update(ctx, order); err != nil {
			return err
		}
		return s.logs.Append(ctx, entry)
	})
	if err != nil {
		return Order{}, s.mapRepositoryError(err, "order")
	}

	s.logger(ctx, "order.status_changed", map[string]any{
		"order":  order.ID,
		"status": string(target),
		"actor":  cmd.ActorID,
	})
	s.notify(ctx, NotificationEvent{
		Type:       domain.NotificationTypeOrderStatus,
		Title:      "Status Pesanan Diperbarui",
		Message:    fmt.Sprintf("Pesanan %s sekarang %s", order.InvoiceNumber, statusLabel(target)),
		Link:       "/admin/orders/" + order.ID,
		RelatedID:  order.ID,
		OccurredAt: now,
	})
	return order, nil
}

// DeleteOrder removes an order and its status history.
func (s *orderService) DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) error {
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return s.mapRepositoryError(err, "order")
	}

	if err := s.orders.Delete(ctx, order.ID); err != nil {
		return s.mapRepositoryError(err, "order")
	}
	removed, err := s.logs.DeleteByOrder(ctx, order.ID)
	if err != nil {
		// The order itself is gone; orphaned history rows are harmless.
		s.logger(ctx, "order.history_cleanup_failed", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
	}

	now := s.clock()
	s.logger(ctx, "order.deleted", map[string]any{
		"order":        order.ID,
		"invoice":      order.InvoiceNumber,
		"actor":        cmd.ActorID,
		"history_rows": removed,
	})
	s.notify(ctx, NotificationEvent{
		Type:       domain.NotificationTypeOrderDeleted,
		Title:      "Pesanan Dihapus",
		Message:    fmt.Sprintf("Pesanan %s (%s) telah dihapus", order.InvoiceNumber, order.Customer.Name),
		RelatedID:  order.ID,
		OccurredAt: now,
		Metadata:   map[string]any{"reason": strings.TrimSpace(cmd.Reason)},
	})
	return nil
}

func (s *orderService) newInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", invoicePrefix, now.Format("20060102"), s.invoiceSuffix())
}

func (s *orderService) notify(ctx context.Context, event NotificationEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, event)
}

func (s *orderService) mapRepositoryError(err error, subject string) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %s: %v", ErrOrderNotFound, subject, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %s: %v", ErrOrderConflict, subject, err)
		}
	}
	return err
}

func (s *orderService) mapDiscountError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrUsageLimitReached) {
		return fmt.Errorf("%w: %v", ErrDiscountExhausted, err)
	}
	if errors.Is(err, repositories.ErrDiscountInactive) {
		return fmt.Errorf("%w: %v", ErrDiscountNotApplicable, err)
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrDiscountNotFound, err)
	}
	return err
}

func isDiscountSentinel(err error) bool {
	return errors.Is(err, repositories.ErrUsageLimitReached) ||
		errors.Is(err, repositories.ErrDiscountInactive)
}

func validateCreateOrder(cmd CreateOrderCommand) error {
	if strings.TrimSpace(cmd.ServiceID) == "" {
		return fmt.Errorf("%w: service id is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.PackageID) == "" {
		return fmt.Errorf("%w: package id is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.PaymentMethodID) == "" {
		return fmt.Errorf("%w: payment method id is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.Customer.Name) == "" {
		return fmt.Errorf("%w: customer name is required", ErrOrderInvalidInput)
	}
	if !looksLikeEmail(cmd.Customer.Email) {
		return fmt.Errorf("%w: customer email is invalid", ErrOrderInvalidInput)
	}
	return nil
}

func findPackage(svc Service, packageID string) (ServicePackage, bool) {
	for _, pkg := range svc.Packages {
		if pkg.ID == packageID {
			return pkg, true
		}
	}
	return ServicePackage{}, false
}

func normaliseCustomer(c Customer) Customer {
	return Customer{
		Name:     strings.TrimSpace(c.Name),
		Email:    strings.ToLower(strings.TrimSpace(c.Email)),
		WhatsApp: strings.TrimSpace(c.WhatsApp),
	}
}

func looksLikeEmail(raw string) bool {
	email := strings.TrimSpace(raw)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}

func statusLabel(status domain.OrderStatus) string {
	if presentation, ok := domain.StatusPresentations[status]; ok {
		return presentation.Label
	}
	return string(status)
}
