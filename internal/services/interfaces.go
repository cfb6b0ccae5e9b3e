package services

import (
	"context"
	"time"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination          = domain.Pagination
	Order               = domain.Order
	StoreOrder          = domain.StoreOrder
	OrderStatus         = domain.OrderStatus
	OrderLogEntry       = domain.OrderLogEntry
	PackageSnapshot     = domain.PackageSnapshot
	Customer            = domain.Customer
	Discount            = domain.Discount
	DiscountType        = domain.DiscountType
	Notification        = domain.Notification
	NotificationType    = domain.NotificationType
	PaymentMethod       = domain.PaymentMethod
	Service             = domain.Service
	ServicePackage      = domain.ServicePackage
	Product             = domain.Product
	FileEntry           = domain.FileEntry
	FolderListing       = domain.FolderListing
	SignedAssetResponse = domain.SignedAssetResponse
	SystemHealthReport  = domain.SystemHealthReport
)

// OrderService orchestrates the commissioned-order lifecycle: creation with a
// catalog snapshot, payment confirmation, staff-driven status transitions, and
// the append-only status history.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetOrderByInvoice(ctx context.Context, invoiceNumber string) (Order, []OrderLogEntry, error)
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
	ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (Order, error)
	RequestProofUpload(ctx context.Context, cmd ProofUploadCommand) (SignedAssetResponse, error)
	ProofDownload(ctx context.Context, orderID string) (SignedAssetResponse, error)
	TransitionStatus(ctx context.Context, cmd TransitionStatusCommand) (Order, error)
	DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) error
}

// StoreOrderService manages digital-asset store purchases, which follow a
// shorter lifecycle from pending payment to fulfilment.
type StoreOrderService interface {
	CreateStoreOrder(ctx context.Context, cmd CreateStoreOrderCommand) (StoreOrder, error)
	GetStoreOrderByNumber(ctx context.Context, orderNumber string) (StoreOrder, []OrderLogEntry, error)
	ListStoreOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[StoreOrder], error)
	ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (StoreOrder, error)
	Fulfil(ctx context.Context, cmd FulfilStoreOrderCommand) (StoreOrder, error)
}

// DiscountService validates and applies discount codes and exposes admin CRUD.
type DiscountService interface {
	Validate(ctx context.Context, cmd ValidateDiscountCommand) (DiscountQuote, error)
	CreateDiscount(ctx context.Context, cmd UpsertDiscountCommand) (Discount, error)
	UpdateDiscount(ctx context.Context, cmd UpsertDiscountCommand) (Discount, error)
	DeleteDiscount(ctx context.Context, discountID string) error
	GetDiscount(ctx context.Context, discountID string) (Discount, error)
	ListDiscounts(ctx context.Context, filter DiscountListFilter) (domain.CursorPage[Discount], error)
}

// NotificationService records admin-facing notifications and fans events out
// to external channels. Dispatch failures never propagate to callers.
type NotificationService interface {
	Notify(ctx context.Context, event NotificationEvent)
	List(ctx context.Context, filter NotificationListFilter) (domain.CursorPage[Notification], error)
	CountUnread(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context) (int, error)
	Delete(ctx context.Context, notificationID string) error
}

// FileBrowserService lists deliverable files stored in the Drive folder bound
// to a fulfilled store order.
type FileBrowserService interface {
	BrowseOrderFiles(ctx context.Context, cmd BrowseFilesCommand) (FolderListing, error)
}

// CatalogService serves the public service and product catalog.
type CatalogService interface {
	GetService(ctx context.Context, idOrSlug string) (Service, error)
	ListServices(ctx context.Context, pager Pagination) (domain.CursorPage[Service], error)
	GetProduct(ctx context.Context, idOrSlug string) (Product, error)
	ListProducts(ctx context.Context, pager Pagination) (domain.CursorPage[Product], error)
}

// PaymentMethodService exposes payment reference data to checkout flows and
// admin CRUD for maintaining it.
type PaymentMethodService interface {
	ListActive(ctx context.Context) ([]PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, cmd UpsertPaymentMethodCommand) (PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, cmd UpsertPaymentMethodCommand) (PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, paymentMethodID string) error
}

// SystemService reports dependency health and build metadata.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// Commands and filters --------------------------------------------------------

// CreateOrderCommand captures the public checkout payload for a service order.
type CreateOrderCommand struct {
	ServiceID       string
	PackageID       string
	Customer        Customer
	PaymentMethodID string
	DiscountCode    string
	Notes           string
}

// CreateStoreOrderCommand captures the checkout payload for a store purchase.
type CreateStoreOrderCommand struct {
	ProductID       string
	Customer        Customer
	PaymentMethodID string
	DiscountCode    string
}

// ConfirmPaymentCommand attaches proof of payment to an order awaiting it.
type ConfirmPaymentCommand struct {
	InvoiceNumber     string
	ProofOfPaymentURL string
}

// ProofUploadCommand requests a signed upload URL for a payment receipt.
type ProofUploadCommand struct {
	InvoiceNumber string
	FileName      string
	ContentType   string
	SizeBytes     int64
}

// TransitionStatusCommand moves an order to a new lifecycle state.
type TransitionStatusCommand struct {
	OrderID      string
	TargetStatus OrderStatus
	Note         string
	ActorID      string
}

// DeleteOrderCommand removes an order and its history.
type DeleteOrderCommand struct {
	OrderID string
	ActorID string
	Reason  string
}

// FulfilStoreOrderCommand completes a paid store order with a download link.
type FulfilStoreOrderCommand struct {
	OrderID      string
	DownloadLink string
	ActorID      string
}

// ValidateDiscountCommand checks a code against a prospective purchase.
type ValidateDiscountCommand struct {
	Code      string
	ServiceID string
	BasePrice int64
}

// DiscountQuote is the outcome of validating a discount against a base price.
type DiscountQuote struct {
	Discount   Discount
	Amount     int64
	FinalPrice int64
}

// UpsertDiscountCommand carries admin create/update payloads for discounts.
type UpsertDiscountCommand struct {
	DiscountID string
	Code       string
	Type       DiscountType
	Value      int64
	ServiceID  *string
	StartsAt   *time.Time
	ExpiresAt  *time.Time
	UsageLimit *int64
	IsActive   bool
}

// UpsertPaymentMethodCommand carries admin create/update payloads for payment methods.
type UpsertPaymentMethodCommand struct {
	PaymentMethodID string
	Type            string
	Name            string
	AccountHolder   string
	AccountNumber   string
	IsActive        bool
}

// NotificationEvent is the internal event raised by order and discount flows.
type NotificationEvent struct {
	Type       NotificationType
	Title      string
	Message    string
	Link       string
	RelatedID  string
	OccurredAt time.Time
	Metadata   map[string]any
}

// BrowseFilesCommand requests the deliverable listing for a store order.
type BrowseFilesCommand struct {
	OrderNumber   string
	CustomerEmail string
	FolderID      string
}

// OrderListFilter narrows order listings for admin screens.
type OrderListFilter = repositories.OrderListFilter

// DiscountListFilter narrows discount listings.
type DiscountListFilter = repositories.DiscountListFilter

// NotificationListFilter narrows notification listings.
type NotificationListFilter = repositories.NotificationListFilter

// NotificationJobMessage is the payload published to the outbound
// notification topic for email and chat delivery workers.
type NotificationJobMessage struct {
	NotificationID string         `json:"notificationId"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Link           string         `json:"link,omitempty"`
	RelatedID      string         `json:"relatedId,omitempty"`
	OccurredAt     time.Time      `json:"occurredAt"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NotificationJobPublisher enqueues notification jobs for delivery workers.
type NotificationJobPublisher interface {
	PublishNotificationJob(ctx context.Context, message NotificationJobMessage) (string, error)
}
