package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/repositories"
)

type repositoryErrorStub struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repositoryErrorStub) Error() string       { return "repository error stub" }
func (e *repositoryErrorStub) IsNotFound() bool    { return e.notFound }
func (e *repositoryErrorStub) IsConflict() bool    { return e.conflict }
func (e *repositoryErrorStub) IsUnavailable() bool { return e.unavailable }

type stubOrderRepository struct {
	insertFunc        func(ctx context.Context, order domain.Order) error
	updateFunc        func(ctx context.Context, order domain.Order) error
	deleteFunc        func(ctx context.Context, orderID string) error
	findByIDFunc      func(ctx context.Context, orderID string) (domain.Order, error)
	findByInvoiceFunc func(ctx context.Context, invoiceNumber string) (domain.Order, error)
	existsFunc        func(ctx context.Context, invoiceNumber string) (bool, error)
	listFunc          func(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFunc != nil {
		return s.insertFunc(ctx, order)
	}
	return nil
}

func (s *stubOrderRepository) Update(ctx context.Context, order domain.Order) error {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, order)
	}
	return nil
}

func (s *stubOrderRepository) Delete(ctx context.Context, orderID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, orderID)
	}
	return nil
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findByIDFunc != nil {
		return s.findByIDFunc(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (domain.Order, error) {
	if s.findByInvoiceFunc != nil {
		return s.findByInvoiceFunc(ctx, invoiceNumber)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepository) ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	if s.existsFunc != nil {
		return s.existsFunc(ctx, invoiceNumber)
	}
	return false, nil
}

func (s *stubOrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, filter)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

type stubStoreOrderRepository struct {
	insertFunc       func(ctx context.Context, order domain.StoreOrder) error
	updateFunc       func(ctx context.Context, order domain.StoreOrder) error
	deleteFunc       func(ctx context.Context, orderID string) error
	findByIDFunc     func(ctx context.Context, orderID string) (domain.StoreOrder, error)
	findByNumberFunc func(ctx context.Context, orderNumber string) (domain.StoreOrder, error)
	existsFunc       func(ctx context.Context, orderNumber string) (bool, error)
	listFunc         func(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.StoreOrder], error)
}

func (s *stubStoreOrderRepository) Insert(ctx context.Context, order domain.StoreOrder) error {
	if s.insertFunc != nil {
		return s.insertFunc(ctx, order)
	}
	return nil
}

func (s *stubStoreOrderRepository) Update(ctx context.Context, order domain.StoreOrder) error {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, order)
	}
	return nil
}

func (s *stubStoreOrderRepository) Delete(ctx context.Context, orderID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, orderID)
	}
	return nil
}

func (s *stubStoreOrderRepository) FindByID(ctx context.Context, orderID string) (domain.StoreOrder, error) {
	if s.findByIDFunc != nil {
		return s.findByIDFunc(ctx, orderID)
	}
	return domain.StoreOrder{}, errors.New("not implemented")
}

func (s *stubStoreOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (domain.StoreOrder, error) {
	if s.findByNumberFunc != nil {
		return s.findByNumberFunc(ctx, orderNumber)
	}
	return domain.StoreOrder{}, errors.New("not implemented")
}

func (s *stubStoreOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	if s.existsFunc != nil {
		return s.existsFunc(ctx, orderNumber)
	}
	return false, nil
}

func (s *stubStoreOrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.StoreOrder], error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, filter)
	}
	return domain.CursorPage[domain.StoreOrder]{}, nil
}

type stubOrderLogRepository struct {
	appendFunc        func(ctx context.Context, entry domain.OrderLogEntry) error
	listFunc          func(ctx context.Context, orderID string) ([]domain.OrderLogEntry, error)
	deleteByOrderFunc func(ctx context.Context, orderID string) (int, error)
}

func (s *stubOrderLogRepository) Append(ctx context.Context, entry domain.OrderLogEntry) error {
	if s.appendFunc != nil {
		return s.appendFunc(ctx, entry)
	}
	return nil
}

func (s *stubOrderLogRepository) List(ctx context.Context, orderID string) ([]domain.OrderLogEntry, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, orderID)
	}
	return nil, nil
}

func (s *stubOrderLogRepository) DeleteByOrder(ctx context.Context, orderID string) (int, error) {
	if s.deleteByOrderFunc != nil {
		return s.deleteByOrderFunc(ctx, orderID)
	}
	return 0, nil
}

type stubDiscountRepository struct {
	insertFunc     func(ctx context.Context, discount domain.Discount) error
	updateFunc     func(ctx context.Context, discount domain.Discount) error
	deleteFunc     func(ctx context.Context, discountID string) error
	findByIDFunc   func(ctx context.Context, discountID string) (domain.Discount, error)
	findByCodeFunc func(ctx context.Context, code string) (domain.Discount, error)
	listFunc       func(ctx context.Context, filter repositories.DiscountListFilter) (domain.CursorPage[domain.Discount], error)
	consumeFunc    func(ctx context.Context, discountID string, now time.Time) (domain.Discount, error)
}

func (s *stubDiscountRepository) Insert(ctx context.Context, discount domain.Discount) error {
	if s.insertFunc != nil {
		return s.insertFunc(ctx, discount)
	}
	return nil
}

func (s *stubDiscountRepository) Update(ctx context.Context, discount domain.Discount) error {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, discount)
	}
	return nil
}

func (s *stubDiscountRepository) Delete(ctx context.Context, discountID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, discountID)
	}
	return nil
}

func (s *stubDiscountRepository) FindByID(ctx context.Context, discountID string) (domain.Discount, error) {
	if s.findByIDFunc != nil {
		return s.findByIDFunc(ctx, discountID)
	}
	return domain.Discount{}, errors.New("not implemented")
}

func (s *stubDiscountRepository) FindByCode(ctx context.Context, code string) (domain.Discount, error) {
	if s.findByCodeFunc != nil {
		return s.findByCodeFunc(ctx, code)
	}
	return domain.Discount{}, errors.New("not implemented")
}

func (s *stubDiscountRepository) List(ctx context.Context, filter repositories.DiscountListFilter) (domain.CursorPage[domain.Discount], error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, filter)
	}
	return domain.CursorPage[domain.Discount]{}, nil
}

func (s *stubDiscountRepository) ConsumeUsage(ctx context.Context, discountID string, now time.Time) (domain.Discount, error) {
	if s.consumeFunc != nil {
		return s.consumeFunc(ctx, discountID, now)
	}
	return domain.Discount{}, nil
}

type stubNotificationRepository struct {
	insertFunc      func(ctx context.Context, notification domain.Notification) error
	deleteFunc      func(ctx context.Context, notificationID string) error
	markReadFunc    func(ctx context.Context, notificationID string, readAt time.Time) error
	markAllReadFunc func(ctx context.Context, readAt time.Time) (int, error)
	countUnreadFunc func(ctx context.Context) (int64, error)
	listFunc        func(ctx context.Context, filter repositories.NotificationListFilter) (domain.CursorPage[domain.Notification], error)
}

func (s *stubNotificationRepository) Insert(ctx context.Context, notification domain.Notification) error {
	if s.insertFunc != nil {
		return s.insertFunc(ctx, notification)
	}
	return nil
}

func (s *stubNotificationRepository) Delete(ctx context.Context, notificationID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, notificationID)
	}
	return nil
}

func (s *stubNotificationRepository) MarkRead(ctx context.Context, notificationID string, readAt time.Time) error {
	if s.markReadFunc != nil {
		return s.markReadFunc(ctx, notificationID, readAt)
	}
	return nil
}

func (s *stubNotificationRepository) MarkAllRead(ctx context.Context, readAt time.Time) (int, error) {
	if s.markAllReadFunc != nil {
		return s.markAllReadFunc(ctx, readAt)
	}
	return 0, nil
}

func (s *stubNotificationRepository) CountUnread(ctx context.Context) (int64, error) {
	if s.countUnreadFunc != nil {
		return s.countUnreadFunc(ctx)
	}
	return 0, nil
}

func (s *stubNotificationRepository) List(ctx context.Context, filter repositories.NotificationListFilter) (domain.CursorPage[domain.Notification], error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, filter)
	}
	return domain.CursorPage[domain.Notification]{}, nil
}

type stubPaymentMethodRepository struct {
	insertFunc     func(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error)
	updateFunc     func(ctx context.Context, method domain.PaymentMethod) error
	deleteFunc     func(ctx context.Context, paymentMethodID string) error
	findByIDFunc   func(ctx context.Context, paymentMethodID string) (domain.PaymentMethod, error)
	listActiveFunc func(ctx context.Context) ([]domain.PaymentMethod, error)
}

func (s *stubPaymentMethodRepository) Insert(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	if s.insertFunc != nil {
		return s.insertFunc(ctx, method)
	}
	return method, nil
}

func (s *stubPaymentMethodRepository) Update(ctx context.Context, method domain.PaymentMethod) error {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, method)
	}
	return nil
}

func (s *stubPaymentMethodRepository) Delete(ctx context.Context, paymentMethodID string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, paymentMethodID)
	}
	return nil
}

func (s *stubPaymentMethodRepository) FindByID(ctx context.Context, paymentMethodID string) (domain.PaymentMethod, error) {
	if s.findByIDFunc != nil {
		return s.findByIDFunc(ctx, paymentMethodID)
	}
	return domain.PaymentMethod{}, errors.New("not implemented")
}

func (s *stubPaymentMethodRepository) ListActive(ctx context.Context) ([]domain.PaymentMethod, error) {
	if s.listActiveFunc != nil {
		return s.listActiveFunc(ctx)
	}
	return nil, nil
}

type stubCatalogRepository struct {
	findServiceFunc       func(ctx context.Context, serviceID string) (domain.Service, error)
	findServiceBySlugFunc func(ctx context.Context, slug string) (domain.Service, error)
	listServicesFunc      func(ctx context.Context, onlyPublished bool, pager domain.Pagination) (domain.CursorPage[domain.Service], error)
	findProductFunc       func(ctx context.Context, productID string) (domain.Product, error)
	findProductBySlugFunc func(ctx context.Context, slug string) (domain.Product, error)
	listProductsFunc      func(ctx context.Context, onlyPublished bool, pager domain.Pagination) (domain.CursorPage[domain.Product], error)
}

func (s *stubCatalogRepository) FindService(ctx context.Context, serviceID string) (domain.Service, error) {
	if s.findServiceFunc != nil {
		return s.findServiceFunc(ctx, serviceID)
	}
	return domain.Service{}, errors.New("not implemented")
}

func (s *stubCatalogRepository) FindServiceBySlug(ctx context.Context, slug string) (domain.Service, error) {
	if s.findServiceBySlugFunc != nil {
		return s.findServiceBySlugFunc(ctx, slug)
	}
	return domain.Service{}, errors.New("not implemented")
}

func (s *stubCatalogRepository) ListServices(ctx context.Context, onlyPublished bool, pager domain.Pagination) (domain.CursorPage[domain.Service], error) {
	if s.listServicesFunc != nil {
		return s.listServicesFunc(ctx, onlyPublished, pager)
	}
	return domain.CursorPage[domain.Service]{}, nil
}

func (s *stubCatalogRepository) FindProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.findProductFunc != nil {
		return s.findProductFunc(ctx, productID)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubCatalogRepository) FindProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if s.findProductBySlugFunc != nil {
		return s.findProductBySlugFunc(ctx, slug)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubCatalogRepository) ListProducts(ctx context.Context, onlyPublished bool, pager domain.Pagination) (domain.CursorPage[domain.Product], error) {
	if s.listProductsFunc != nil {
		return s.listProductsFunc(ctx, onlyPublished, pager)
	}
	return domain.CursorPage[domain.Product]{}, nil
}

type stubAssetRepository struct {
	createFunc   func(ctx context.Context, cmd repositories.SignedUploadRecord) (domain.SignedAssetResponse, error)
	downloadFunc func(ctx context.Context, invoiceNumber string) (domain.SignedAssetResponse, error)
}

func (s *stubAssetRepository) CreateSignedUpload(ctx context.Context, cmd repositories.SignedUploadRecord) (domain.SignedAssetResponse, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, cmd)
	}
	return domain.SignedAssetResponse{}, errors.New("not implemented")
}

func (s *stubAssetRepository) CreateSignedProofDownload(ctx context.Context, invoiceNumber string) (domain.SignedAssetResponse, error) {
	if s.downloadFunc != nil {
		return s.downloadFunc(ctx, invoiceNumber)
	}
	return domain.SignedAssetResponse{}, errors.New("not implemented")
}

type stubHealthRepository struct {
	collectFunc func(ctx context.Context) (domain.SystemHealthReport, error)
}

func (s *stubHealthRepository) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	if s.collectFunc != nil {
		return s.collectFunc(ctx)
	}
	return domain.SystemHealthReport{}, errors.New("not implemented")
}

// recordingNotifier captures events raised by order flows.
type recordingNotifier struct {
	events []NotificationEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event NotificationEvent) {
	r.events = append(r.events, event)
}

func (r *recordingNotifier) List(context.Context, NotificationListFilter) (domain.CursorPage[Notification], error) {
	return domain.CursorPage[Notification]{}, nil
}

func (r *recordingNotifier) CountUnread(context.Context) (int64, error) { return 0, nil }

func (r *recordingNotifier) MarkRead(context.Context, string) error { return nil }

func (r *recordingNotifier) MarkAllRead(context.Context) (int, error) { return 0, nil }

func (r *recordingNotifier) Delete(context.Context, string) error { return nil }

type stubPublisher struct {
	publishFunc func(ctx context.Context, message NotificationJobMessage) (string, error)
}

func (s *stubPublisher) PublishNotificationJob(ctx context.Context, message NotificationJobMessage) (string, error) {
	if s.publishFunc != nil {
		return s.publishFunc(ctx, message)
	}
	return "msg-1", nil
}

type stubDriveClient struct {
	listFunc    func(ctx context.Context, folderID string) (string, []DriveFile, error)
	parentsFunc func(ctx context.Context, folderID string) ([]string, error)
}

func (s *stubDriveClient) ListFolder(ctx context.Context, folderID string) (string, []DriveFile, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, folderID)
	}
	return "", nil, errors.New("not implemented")
}

func (s *stubDriveClient) FolderParents(ctx context.Context, folderID string) ([]string, error) {
	if s.parentsFunc != nil {
		return s.parentsFunc(ctx, folderID)
	}
	return nil, errors.New("not implemented")
}

func int64Ptr(v int64) *int64 {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}
