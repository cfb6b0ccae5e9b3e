package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/karsa-studio/api/internal/domain"
	pfirestore "github.com/karsa-studio/api/internal/platform/firestore"
	"github.com/karsa-studio/api/internal/repositories"
)

const storeOrdersCollection = "storeOrders"

// StoreOrderRepository persists digital-asset store orders.
type StoreOrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[storeOrderDocument]
}

// NewStoreOrderRepository constructs a Firestore-backed store order repository.
func NewStoreOrderRepository(provider *pfirestore.Provider) (*StoreOrderRepository, error) {
	if provider == nil {
		return nil, errors.New("store order repository requires firestore provider")
	}
	return &StoreOrderRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[storeOrderDocument](provider, storeOrdersCollection),
	}, nil
}

// Insert stores a new store order, joining any transaction carried by the context.
func (r *StoreOrderRepository) Insert(ctx context.Context, order domain.StoreOrder) error {
	if r == nil || r.base == nil {
		return errors.New("store order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("store order repository: id is required")
	}

	doc := encodeStoreOrderDocument(order)
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		if err := tx.Create(ref, doc); err != nil {
			return pfirestore.WrapError("store_orders.insert", err)
		}
		return nil
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return pfirestore.WrapError("store_orders.insert", err)
	}
	return nil
}

// Update replaces the stored document.
func (r *StoreOrderRepository) Update(ctx context.Context, order domain.StoreOrder) error {
	if r == nil || r.base == nil {
		return errors.New("store order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("store order repository: id is required")
	}

	doc := encodeStoreOrderDocument(order)
	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Set(ref, doc); err != nil {
			return pfirestore.WrapError("store_orders.update", err)
		}
		return nil
	}
	if err := r.base.Set(ctx, id, doc); err != nil {
		return err
	}
	return nil
}

// Delete removes the store order document.
func (r *StoreOrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.base == nil {
		return errors.New("store order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return errors.New("store order repository: id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		if err := tx.Delete(ref); err != nil {
			return pfirestore.WrapError("store_orders.delete", err)
		}
		return nil
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("store_orders.delete", err)
	}
	return nil
}

// FindByID loads one store order by document ID.
func (r *StoreOrderRepository) FindByID(ctx context.Context, orderID string) (domain.StoreOrder, error) {
	if r == nil || r.base == nil {
		return domain.StoreOrder{}, errors.New("store order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.StoreOrder{}, errors.New("store order repository: id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.StoreOrder{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindByOrderNumber loads one store order by its public order number.
func (r *StoreOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (domain.StoreOrder, error) {
	if r == nil || r.base == nil {
		return domain.StoreOrder{}, errors.New("store order repository not initialised")
	}
	number := strings.ToUpper(strings.TrimSpace(orderNumber))
	if number == "" {
		return domain.StoreOrder{}, errors.New("store order repository: order number is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderNumber", "==", number).Limit(1)
	})
	if err != nil {
		return domain.StoreOrder{}, err
	}
	if len(docs) == 0 {
		return domain.StoreOrder{}, pfirestore.WrapError("store_orders.find_by_number", status.Error(codes.NotFound, fmt.Sprintf("store order %s not found", number)))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// ExistsByOrderNumber reports whether any store order already carries the
// order number. Inside a transaction the read joins it; callers must run it
// before any write is buffered.
func (r *StoreOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	if r == nil || r.base == nil {
		return false, errors.New("store order repository not initialised")
	}
	number := strings.ToUpper(strings.TrimSpace(orderNumber))
	if number == "" {
		return false, errors.New("store order repository: order number is required")
	}

	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		ref, err := r.base.DocumentRef(ctx, number)
		if err != nil {
			return false, err
		}
		docs, err := tx.Documents(ref.Parent.Where("orderNumber", "==", number).Limit(1)).GetAll()
		if err != nil {
			return false, pfirestore.WrapError("store_orders.exists_by_number", err)
		}
		return len(docs) > 0, nil
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderNumber", "==", number).Limit(1)
	})
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// List returns store orders matching the filter ordered by most recent creation.
func (r *StoreOrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.StoreOrder], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.StoreOrder]{}, errors.New("store order repository not initialised")
	}

	limit := filter.Pagination.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := limit
	if limit > 0 {
		fetchLimit = limit + 1
	}

	var startAfter []any
	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		tokenTime, tokenID, err := decodeListToken(token)
		if err != nil {
			return domain.CursorPage[domain.StoreOrder]{}, fmt.Errorf("store order repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	statusFilters := normaliseStatuses(filter.Status)
	email := strings.ToLower(strings.TrimSpace(filter.CustomerEmail))

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if len(statusFilters) == 1 {
			q = q.Where("status", "==", statusFilters[0])
		} else if len(statusFilters) > 1 {
			if len(statusFilters) > 10 {
				statusFilters = statusFilters[:10]
			}
			q = q.Where("status", "in", statusFilters)
		}
		if email != "" {
			q = q.Where("customer.email", "==", email)
		}
		if filter.DateRange.From != nil {
			q = q.Where("createdAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil {
			q = q.Where("createdAt", "<=", filter.DateRange.To.UTC())
		}

		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if len(startAfter) == 2 {
			q = q.StartAfter(startAfter...)
		}
		if fetchLimit > 0 {
			q = q.Limit(fetchLimit)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.StoreOrder]{}, err
	}

	valueDocs := docs
	nextToken := ""
	if limit > 0 && len(valueDocs) == fetchLimit {
		last := valueDocs[len(valueDocs)-1]
		nextToken = encodeListToken(last.Data.CreatedAt, last.ID)
		valueDocs = valueDocs[:len(valueDocs)-1]
	}

	items := make([]domain.StoreOrder, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, doc.Data.toDomain(doc.ID))
	}

	return domain.CursorPage[domain.StoreOrder]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

type storeOrderDocument struct {
	OrderNumber       string           `firestore:"orderNumber"`
	ProductID         string           `firestore:"productId"`
	ProductName       string           `firestore:"productName"`
	Customer          customerDocument `firestore:"customer"`
	BasePrice         int64            `firestore:"basePrice"`
	DiscountCode      *string          `firestore:"discountCode,omitempty"`
	DiscountAmount    *int64           `firestore:"discountAmount,omitempty"`
	FinalPrice        int64            `firestore:"finalPrice"`
	PaymentMethodID   string           `firestore:"paymentMethodId"`
	PaymentMethodName string           `firestore:"paymentMethodName,omitempty"`
	PaymentDeadline   time.Time        `firestore:"paymentDeadline"`
	ProofOfPaymentURL *string          `firestore:"proofOfPaymentUrl,omitempty"`
	DownloadLink      *string          `firestore:"downloadLink,omitempty"`
	Status            string           `firestore:"status"`
	CreatedAt         time.Time        `firestore:"createdAt"`
	UpdatedAt         time.Time        `firestore:"updatedAt"`
}

func encodeStoreOrderDocument(order domain.StoreOrder) storeOrderDocument {
	return storeOrderDocument{
		OrderNumber: strings.ToUpper(strings.TrimSpace(order.OrderNumber)),
		ProductID:   strings.TrimSpace(order.ProductID),
		ProductName: strings.TrimSpace(order.ProductName),
		Customer: customerDocument{
			Name:     strings.TrimSpace(order.Customer.Name),
			Email:    strings.ToLower(strings.TrimSpace(order.Customer.Email)),
			WhatsApp: strings.TrimSpace(order.Customer.WhatsApp),
		},
		BasePrice:         order.BasePrice,
		DiscountCode:      order.DiscountCode,
		DiscountAmount:    order.DiscountAmount,
		FinalPrice:        order.FinalPrice,
		PaymentMethodID:   strings.TrimSpace(order.PaymentMethodID),
		PaymentMethodName: strings.TrimSpace(order.PaymentMethodName),
		PaymentDeadline:   order.PaymentDeadline.UTC(),
		ProofOfPaymentURL: order.ProofOfPaymentURL,
		DownloadLink:      order.DownloadLink,
		Status:            string(order.Status),
		CreatedAt:         order.CreatedAt.UTC(),
		UpdatedAt:         order.UpdatedAt.UTC(),
	}
}

func (d storeOrderDocument) toDomain(id string) domain.StoreOrder {
	return domain.StoreOrder{
		ID:          id,
		OrderNumber: d.OrderNumber,
		ProductID:   d.ProductID,
		ProductName: d.ProductName,
		Customer: domain.Customer{
			Name:     d.Customer.Name,
			Email:    d.Customer.Email,
			WhatsApp: d.Customer.WhatsApp,
		},
		BasePrice:         d.BasePrice,
		DiscountCode:      d.DiscountCode,
		DiscountAmount:    d.DiscountAmount,
		FinalPrice:        d.FinalPrice,
		PaymentMethodID:   d.PaymentMethodID,
		PaymentMethodName: d.PaymentMethodName,
		PaymentDeadline:   d.PaymentDeadline,
		ProofOfPaymentURL: d.ProofOfPaymentURL,
		DownloadLink:      d.DownloadLink,
		Status:            domain.OrderStatus(d.Status),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.StoreOrderRepository = (*StoreOrderRepository)(nil)
