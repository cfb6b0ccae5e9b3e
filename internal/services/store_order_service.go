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
	storeOrderIDPrefix = "sto_"
	storeOrderPrefix   = "ST"
)

// storeOrderTransitions is the shorter machine for digital purchases: a paid
// order is fulfilled straight to completed.
var storeOrderTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPendingPayment: {domain.OrderStatusPaid, domain.OrderStatusCancelled},
	domain.OrderStatusPaid:           {domain.OrderStatusCompleted, domain.OrderStatusCancelled},
	domain.OrderStatusCompleted:      {},
	domain.OrderStatusCancelled:      {},
}

func canTransitionStoreOrder(from, to domain.OrderStatus) bool {
	for _, allowed := range storeOrderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StoreOrderServiceDeps bundles collaborators required to construct the store order service.
type StoreOrderServiceDeps struct {
	StoreOrders    repositories.StoreOrderRepository
	Logs           repositories.OrderLogRepository
	Catalog        repositories.CatalogRepository
	PaymentMethods repositories.PaymentMethodRepository
	Discounts      repositories.DiscountRepository
	Notifier       NotificationService
	UnitOfWork     repositories.UnitOfWork

	PaymentDeadline time.Duration
	Clock           func() time.Time
	IDGenerator     func() string
	OrderSuffix     func() string
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type storeOrderService struct {
	storeOrders    repositories.StoreOrderRepository
	logs           repositories.OrderLogRepository
	catalog        repositories.CatalogRepository
	paymentMethods repositories.PaymentMethodRepository
	discounts      repositories.DiscountRepository
	notifier       NotificationService
	uow            repositories.UnitOfWork

	paymentDeadline time.Duration
	clock           func() time.Time
	newID           func() string
	orderSuffix     func() string
	logger          func(context.Context, string, map[string]any)
}

// NewStoreOrderService wires dependencies into a concrete StoreOrderService implementation.
func NewStoreOrderService(deps StoreOrderServiceDeps) (StoreOrderService, error) {
	if deps.StoreOrders == nil {
		return nil, errors.New("store order service: store order repository is required")
	}
	if deps.Logs == nil {
		return nil, errors.New("store order service: order log repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("store order service: catalog repository is required")
	}
	if deps.PaymentMethods == nil {
		return nil, errors.New("store order service: payment method repository is required")
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

	suffix := deps.OrderSuffix
	if suffix == nil {
		suffix = func() string {
			raw := ulid.Make().String()
			return raw[len(raw)-5:]
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &storeOrderService{
		storeOrders:     deps.StoreOrders,
		logs:            deps.Logs,
		catalog:         deps.Catalog,
		paymentMethods:  deps.PaymentMethods,
		discounts:       deps.Discounts,
		notifier:        deps.Notifier,
		uow:             uow,
		paymentDeadline: deadline,
		clock:           func() time.Time { return clock().UTC() },
		newID:           idGen,
		orderSuffix:     suffix,
		logger:          logger,
	}, nil
}

// CreateStoreOrder places a purchase for a digital product. Only discounts
// without a service scope apply to store purchases.
func (s *storeOrderService) CreateStoreOrder(ctx context.Context, cmd CreateStoreOrderCommand) (StoreOrder, error) {
	if err := validateCreateStoreOrder(cmd); err != nil {
		return StoreOrder{}, err
	}

	product, err := s.catalog.FindProduct(ctx, cmd.ProductID)
	if err != nil {
		return StoreOrder{}, s.mapRepositoryError(err, "product")
	}
	if !product.IsPublished {
		return StoreOrder{}, fmt.Errorf("%w: product %s is not available", ErrOrderInvalidInput, cmd.ProductID)
	}

	method, err := s.paymentMethods.FindByID(ctx, cmd.PaymentMethodID)
	if err != nil {
		return StoreOrder{}, s.mapRepositoryError(err, "payment method")
	}
	if !method.IsActive {
		return StoreOrder{}, fmt.Errorf("%w: payment method %s is not active", ErrOrderInvalidInput, cmd.PaymentMethodID)
	}

	now := s.clock()
	order := StoreOrder{
		ID:                storeOrderIDPrefix + s.newID(),
		OrderNumber:       s.newOrderNumber(now),
		ProductID:         product.ID,
		ProductName:       product.Name,
		Customer:          normaliseCustomer(cmd.Customer),
		BasePrice:         product.Price,
		FinalPrice:        product.Price,
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
			return StoreOrder{}, fmt.Errorf("%w: discount codes are not supported", ErrOrderInvalidInput)
		}
		found, err := s.discounts.FindByCode(ctx, code)
		if err != nil {
			return StoreOrder{}, s.mapDiscountError(err)
		}
		if err := checkApplicability(found, "", now); err != nil {
			return StoreOrder{}, err
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
		CreatedAt: now,
	}

	// Usage-counter read first, buffered writes after.
	var consumed Discount
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		taken, err := s.storeOrders.ExistsByOrderNumber(ctx, order.OrderNumber)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: order number %s already exists", ErrOrderConflict, order.OrderNumber)
		}
		if discount != nil {
			updated, err := s.discounts.ConsumeUsage(ctx, discount.ID, now)
			if err != nil {
				return err
			}
			consumed = updated
		}
		if err := s.storeOrders.Insert(ctx, order); err != nil {
			return err
		}
		return s.logs.Append(ctx, entry)
	})
	if err != nil {
		if isDiscountSentinel(err) {
			return StoreOrder{}, s.mapDiscountError(err)
		}
		return StoreOrder{}, s.mapRepositoryError(err, "store order")
	}

	s.logger(ctx, "store_order.created", map[string]any{
		"order":   order.ID,
		"number":  order.OrderNumber,
		"product": order.ProductID,
	})
	s.notify(ctx, NotificationEvent{
		Type:       domain.NotificationTypeNewStoreOrder,
		Title:      "Pesanan Toko Baru",
		Message:    fmt.Sprintf("%s membeli %s", order.Customer.Name, order.ProductName),
		Link:       "/admin/store-orders/" + order.ID,
		RelatedID:  order.ID,
		OccurredAt: now,
		Metadata: map[string]any{
			"orderNumber": order.OrderNumber,
			"finalPrice":  order.FinalPrice,
		},
	})
	if discount != nil {
		for _, event := range discountHousekeepingEvents(consumed, now) {
			s.notify(ctx, event)
		}
	}
	return order, nil
}

// GetStoreOrderByNumber loads a store order plus its history for the public
// order page.
func (s *storeOrderService) GetStoreOrderByNumber(ctx context.Context, orderNumber string) (StoreOrder, []OrderLogEntry, error) {
	number := strings.ToUpper(strings.TrimSpace(orderNumber))
	if number == "" {
		return StoreOrder{}, nil, fmt.Errorf("%w: order number is required", ErrOrderInvalidInput)
	}
	order, err := s.storeOrders.FindByOrderNumber(ctx, number)
	if err != nil {
		return StoreOrder{}, nil, s.mapRepositoryError(err, "store order")
	}
	history, err := s.logs.List(ctx, order.ID)
	if err != nil {
		return StoreOrder{}, nil, s.mapRepositoryError(err, "order history")
	}
	return order, history, nil
}

// ListStoreOrders pages through store orders for the admin dashboard.
func (s *storeOrderService) ListStoreOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[StoreOrder], error) {
	page, err := s.storeOrders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[StoreOrder]{}, s.mapRepositoryError(err, "store orders")
	}
	return page, nil
}

// ConfirmPayment attaches proof of payment and moves the order to paid.
func (s *storeOrderService) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (StoreOrder, error) {
	number := strings.ToUpper(strings.TrimSpace(cmd.InvoiceNumber))
	if number == "" {
		return StoreOrder{}, fmt.Errorf("%w: order number is required", ErrOrderInvalidInput)
	}
	proofURL := strings.TrimSpace(cmd.ProofOfPaymentURL)
	if proofURL == "" {
		return StoreOrder{}, fmt.Errorf("%w: proof of payment url is required", ErrOrderInvalidInput)
	}

	order, err := s.storeOrders.FindByOrderNumber(ctx, number)
	if err != nil {
		return StoreOrder{}, s.mapRepositoryError(err, "store order")
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return StoreOrder{}, fmt.Errorf("%w: order %s is %s, payment can only be confirmed while pending",
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
		if err := s.storeOrders.Update(ctx, order); err != nil {
			return err
		}
		return s.logs.Append(ctx, entry)
	})
	if err != nil {
		return StoreOrder{}, s.mapRepositoryError(err, "store order")
	}

	s.notify(ctx, NotificationEvent{
		Type:       domain.NotificationTypeOrderStatus,
		Title:      "Pembayaran Dikonfirmasi",
		Message:    fmt.Sprintf("Pesanan toko %s menunggu verifikasi pembayaran", order.OrderNumber),
		Link:       "/admin/store-orders/" + order.ID,
		RelatedID:  order.ID,
		OccurredAt: now,
	})
	return order, nil
}

// Fulfil completes a paid store order by attaching the download link.
func (s *storeOrderService) Fulfil(ctx context.Context, cmd FulfilStoreOrderCommand) (StoreOrder, error) {
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return StoreOrder{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	link := strings.TrimSpace(cmd.DownloadLink)
	if link == "" {
		return StoreOrder{}, fmt.Errorf("%w: download link is required", ErrOrderInvalidInput)
	}

	order, err := s.storeOrders.FindByID(ctx, id)
	if err != nil {
		return StoreOrder{}, s.mapRepositoryError(err, "store order")
	}
	if !canTransitionStoreOrder(order.Status, domain.OrderStatusCompleted) {
		return StoreOrder{}, fmt.Errorf("%w: order %s is %s, only paid orders can be fulfilled",
			ErrOrderInvalidState, order.ID, order.Status)
	}

	now := s.clock()
	order.Status = domain.OrderStatusCompleted
	order.DownloadLink = valuePtr(link)
	order.UpdatedAt = now

	entry := OrderLogEntry{
		ID:        orderLogIDPrefix + s.newID(),
		OrderID:   order.ID,
		Status:    domain.OrderStatusCompleted,
		Note:      "Tautan unduhan dikirim",
		CreatedAt: now,
	}

	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.storeOrders.Update(ctx, order); err != nil {
			return err
		}
		return s.logs.Append(ctx, entry)
	})
	if err != nil {
		return StoreOrder{}, s.mapRepositoryError(err, "store order")
	}

	s.logger(ctx, "store_order.fulfilled", map[string]any{
		"order": order.ID,
		"actor": cmd.ActorID,
	})
	s.notify(ctx, NotificationEvent{
		Type:       domain.NotificationTypeOrderStatus,
		Title:      "Pesanan Toko Selesai",
		Message:    fmt.Sprintf("Pesanan toko %s telah dipenuhi", order.OrderNumber),
		Link:       "/admin/store-orders/" + order.ID,
		RelatedID:  order.ID,
		OccurredAt: now,
	})
	return order, nil
}

func (s *storeOrderService) newOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", storeOrderPrefix, now.Format("20060102"), s.orderSuffix())
}

func (s *storeOrderService) notify(ctx context.Context, event NotificationEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, event)
}

func (s *storeOrderService) mapRepositoryError(err error, subject string) error {
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

func (s *storeOrderService) mapDiscountError(err error) error {
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

func validateCreateStoreOrder(cmd CreateStoreOrderCommand) error {
	if strings.TrimSpace(cmd.ProductID) == "" {
		return fmt.Errorf("%w: product id is required", ErrOrderInvalidInput)
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
