package repositories

import (
	"context"
	"time"

	domain "github.com/karsa-studio/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists service orders and provides query helpers for admins
// and the public invoice pages.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (domain.Order, error)
	ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// StoreOrderRepository persists digital-asset store orders.
type StoreOrderRepository interface {
	Insert(ctx context.Context, order domain.StoreOrder) error
	Update(ctx context.Context, order domain.StoreOrder) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.StoreOrder, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (domain.StoreOrder, error)
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.StoreOrder], error)
}

// OrderLogRepository stores the append-only status audit trail. Entries are
// only ever inserted, never mutated.
type OrderLogRepository interface {
	Append(ctx context.Context, entry domain.OrderLogEntry) error
	List(ctx context.Context, orderID string) ([]domain.OrderLogEntry, error)
	DeleteByOrder(ctx context.Context, orderID string) (int, error)
}

// DiscountRepository maintains discount definitions and the shared usage
// counter. ConsumeUsage must re-check the usage limit inside the same
// transaction that increments used_count: the client-side applicability check
// alone is insufficient under concurrent redemption.
type DiscountRepository interface {
	Insert(ctx context.Context, discount domain.Discount) error
	Update(ctx context.Context, discount domain.Discount) error
	Delete(ctx context.Context, discountID string) error
	FindByID(ctx context.Context, discountID string) (domain.Discount, error)
	FindByCode(ctx context.Context, code string) (domain.Discount, error)
	List(ctx context.Context, filter DiscountListFilter) (domain.CursorPage[domain.Discount], error)
	ConsumeUsage(ctx context.Context, discountID string, now time.Time) (domain.Discount, error)
}

// NotificationRepository stores in-app notification rows.
type NotificationRepository interface {
	Insert(ctx context.Context, notification domain.Notification) error
	Delete(ctx context.Context, notificationID string) error
	MarkRead(ctx context.Context, notificationID string, readAt time.Time) error
	MarkAllRead(ctx context.Context, readAt time.Time) (int, error)
	CountUnread(ctx context.Context) (int64, error)
	List(ctx context.Context, filter NotificationListFilter) (domain.CursorPage[domain.Notification], error)
}

// PaymentMethodRepository stores payment reference data.
type PaymentMethodRepository interface {
	Insert(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error)
	Update(ctx context.Context, method domain.PaymentMethod) error
	Delete(ctx context.Context, paymentMethodID string) error
	FindByID(ctx context.Context, paymentMethodID string) (domain.PaymentMethod, error)
	ListActive(ctx context.Context) ([]domain.PaymentMethod, error)
}

// CatalogRepository serves the service and product catalog consumed by the
// order flows.
type CatalogRepository interface {
	FindService(ctx context.Context, serviceID string) (domain.Service, error)
	FindServiceBySlug(ctx context.Context, slug string) (domain.Service, error)
	ListServices(ctx context.Context, onlyPublished bool, pager domain.Pagination) (domain.CursorPage[domain.Service], error)

	FindProduct(ctx context.Context, productID string) (domain.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	ListProducts(ctx context.Context, onlyPublished bool, pager domain.Pagination) (domain.CursorPage[domain.Product], error)
}

// AssetRepository issues signed URLs for proof-of-payment receipts:
// uploads for customers, downloads for staff verifying a payment.
type AssetRepository interface {
	CreateSignedUpload(ctx context.Context, cmd SignedUploadRecord) (domain.SignedAssetResponse, error)
	CreateSignedProofDownload(ctx context.Context, invoiceNumber string) (domain.SignedAssetResponse, error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

// OrderListFilter narrows order listings for admin screens.
type OrderListFilter struct {
	Status        []string
	CustomerEmail string
	DateRange     domain.RangeQuery[time.Time]
	Pagination    domain.Pagination
}

// DiscountListFilter narrows discount listings.
type DiscountListFilter struct {
	ActiveOnly bool
	ServiceID  *string
	Pagination domain.Pagination
}

// NotificationListFilter narrows notification listings.
type NotificationListFilter struct {
	Types      []string
	UnreadOnly bool
	Pagination domain.Pagination
}

// SignedUploadRecord describes a proof-of-payment upload request.
type SignedUploadRecord struct {
	InvoiceNumber string
	FileName      string
	ContentType   string
	SizeBytes     int64
}
