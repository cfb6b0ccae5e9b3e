package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// OrderStatus enumerates valid lifecycle states for service orders.
type OrderStatus string

const (
	// OrderStatusPendingPayment indicates the order awaits payment confirmation.
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	// OrderStatusPaid indicates the customer submitted proof of payment.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusAccepted indicates staff accepted the order for work.
	OrderStatusAccepted OrderStatus = "accepted"
	// OrderStatusInProgress indicates the commissioned work is underway.
	OrderStatusInProgress OrderStatus = "in_progress"
	// OrderStatusCompleted indicates the order has been delivered and closed.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled indicates the order was cancelled before completion.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// StatusPresentation carries the customer-facing label and color for a status.
// Presentation only, never used for business decisions.
type StatusPresentation struct {
	Label string
	Color string
}

// PackageSnapshot is the package definition copied verbatim onto an order at
// creation time so later catalog edits never change a placed order.
type PackageSnapshot struct {
	ID           string
	Name         string
	Description  string
	Features     []string
	DurationDays int
	Price        int64
}

// Customer holds the contact identity captured at checkout.
type Customer struct {
	Name     string
	Email    string
	WhatsApp string
}

// Order is a commissioned service order.
type Order struct {
	ID                string
	InvoiceNumber     string
	ServiceID         string
	ServiceName       string
	Package           PackageSnapshot
	Customer          Customer
	DiscountCode      *string
	DiscountAmount    *int64
	BasePrice         int64
	FinalPrice        int64
	PaymentMethodID   string
	PaymentMethodName string
	PaymentDeadline   time.Time
	ProofOfPaymentURL *string
	Status            OrderStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StoreOrder is a purchase of a digital asset from the store.
type StoreOrder struct {
	ID                string
	OrderNumber       string
	ProductID         string
	ProductName       string
	Customer          Customer
	BasePrice         int64
	DiscountCode      *string
	DiscountAmount    *int64
	FinalPrice        int64
	PaymentMethodID   string
	PaymentMethodName string
	PaymentDeadline   time.Time
	ProofOfPaymentURL *string
	DownloadLink      *string
	Status            OrderStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderLogEntry is an append-only record of a status transition. The order's
// status column is a derived pointer to the most recent entry.
type OrderLogEntry struct {
	ID        string
	OrderID   string
	Status    OrderStatus
	Note      string
	CreatedAt time.Time
}

// DiscountType distinguishes percentage and fixed-amount discount rules.
type DiscountType string

const (
	// DiscountTypePercentage deducts value% of the base price.
	DiscountTypePercentage DiscountType = "percentage"
	// DiscountTypeFixed deducts a flat amount.
	DiscountTypeFixed DiscountType = "fixed"
)

// Discount is a redeemable code. Codes are stored upper-cased and compared
// case-insensitively. A nil ServiceID applies to every service; nil window
// bounds are unbounded; a nil UsageLimit is unlimited. UsedCount only ever
// increments.
type Discount struct {
	ID         string
	Code       string
	Type       DiscountType
	Value      int64
	ServiceID  *string
	StartsAt   *time.Time
	ExpiresAt  *time.Time
	UsageLimit *int64
	UsedCount  int64
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NotificationType enumerates the domain events that raise notifications.
type NotificationType string

const (
	NotificationTypeNewOrder          NotificationType = "new_order"
	NotificationTypeNewStoreOrder     NotificationType = "new_store_order"
	NotificationTypeOrderStatus       NotificationType = "order_status"
	NotificationTypeOrderDeleted      NotificationType = "order_deleted"
	NotificationTypeNewComment        NotificationType = "new_comment"
	NotificationTypeNewTestimonial    NotificationType = "new_testimonial"
	NotificationTypeDiscountExpiring  NotificationType = "discount_expiring"
	NotificationTypeDiscountExhausted NotificationType = "discount_exhausted"
)

// Notification is an in-app notification row. Mutated only by marking read
// or deleting.
type Notification struct {
	ID        string
	Type      NotificationType
	Title     string
	Message   string
	Link      string
	RelatedID string
	IsRead    bool
	CreatedAt time.Time
}

// PaymentMethod is reference data describing how customers can pay.
// Read-only from the order flow's perspective.
type PaymentMethod struct {
	ID            string
	Type          string
	Name          string
	AccountHolder string
	AccountNumber string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ServicePackage is a purchasable tier of a service.
type ServicePackage struct {
	ID           string
	Name         string
	Description  string
	Features     []string
	DurationDays int
	Price        int64
}

// Service is a commissioned-work offering with one or more packages.
type Service struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Packages    []ServicePackage
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product is a digital asset sold through the store.
type Product struct {
	ID            string
	Slug          string
	Name          string
	Description   string
	Price         int64
	PreviewURL    string
	DriveFolderID string
	IsPublished   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FileCategory classifies Drive entries for presentation.
type FileCategory string

const (
	FileCategoryFolder   FileCategory = "folder"
	FileCategoryImage    FileCategory = "image"
	FileCategoryVideo    FileCategory = "video"
	FileCategoryAudio    FileCategory = "audio"
	FileCategoryDocument FileCategory = "document"
	FileCategoryArchive  FileCategory = "archive"
	FileCategoryOther    FileCategory = "other"
)

// FileEntry is a single Drive listing entry. Exactly one of DownloadLink and
// ViewLink is set: Google-native documents cannot be downloaded directly and
// carry a view link instead.
type FileEntry struct {
	ID           string
	Name         string
	Category     FileCategory
	MimeType     string
	SizeBytes    int64
	ModifiedAt   time.Time
	DownloadLink string
	ViewLink     string
}

// FolderListing is the result of listing one Drive folder.
type FolderListing struct {
	FolderID   string
	FolderName string
	Entries    []FileEntry
}

// SignedAssetResponse returns signed URL payloads for upload flows.
type SignedAssetResponse struct {
	AssetID   string
	URL       string
	ExpiresAt time.Time
	Method    string
	Headers   map[string]string
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency check.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}

// StatusPresentations maps each order status to its display label and color.
var StatusPresentations = map[OrderStatus]StatusPresentation{
	OrderStatusPendingPayment: {Label: "Menunggu Pembayaran", Color: "yellow"},
	OrderStatusPaid:           {Label: "Sudah Dibayar", Color: "blue"},
	OrderStatusAccepted:       {Label: "Diterima", Color: "indigo"},
	OrderStatusInProgress:     {Label: "Sedang Dikerjakan", Color: "purple"},
	OrderStatusCompleted:      {Label: "Selesai", Color: "green"},
	OrderStatusCancelled:      {Label: "Dibatalkan", Color: "red"},
}
