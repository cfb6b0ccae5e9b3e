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

const ordersCollection = "orders"

// OrderRepository persists commissioned service orders.
type OrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection),
	}, nil
}

// Insert stores a new order. When the context carries a transaction the write
// joins it, so order creation can commit atomically with the status log and
// discount usage increment.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: id is required")
	}

	doc := encodeOrderDocument(order)
	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Create(ref, doc); err != nil {
			return pfirestore.WrapError("orders.insert", err)
		}
		return nil
	}

	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// Update replaces the stored order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: id is required")
	}

	doc := encodeOrderDocument(order)
	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Set(ref, doc); err != nil {
			return pfirestore.WrapError("orders.update", err)
		}
		return nil
	}

	if err := r.base.Set(ctx, id, doc); err != nil {
		return err
	}
	return nil
}

// Delete removes the order document.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return errors.New("order repository: id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		if err := tx.Delete(ref); err != nil {
			return pfirestore.WrapError("orders.delete", err)
		}
		return nil
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("orders.delete", err)
	}
	return nil
}

// FindByID loads one order by document ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindByInvoiceNumber loads one order by its public invoice number.
func (r *OrderRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	number := strings.ToUpper(strings.TrimSpace(invoiceNumber))
	if number == "" {
		return domain.Order{}, errors.New("order repository: invoice number is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("invoiceNumber", "==", number).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, pfirestore.WrapError("orders.find_by_invoice", status.Error(codes.NotFound, fmt.Sprintf("order %s not found", number)))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// ExistsByInvoiceNumber reports whether any order already carries the invoice
// number. Inside a transaction the read joins it; callers must run it before
// any write is buffered.
func (r *OrderRepository) ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	if r == nil || r.base == nil {
		return false, errors.New("order repository not initialised")
	}
	number := strings.ToUpper(strings.TrimSpace(invoiceNumber))
	if number == "" {
		return false, errors.New("order repository: invoice number is required")
	}

	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		ref, err := r.base.DocumentRef(ctx, number)
		if err != nil {
			return false, err
		}
		docs, err := tx.Documents(ref.Parent.Where("invoiceNumber", "==", number).Limit(1)).GetAll()
		if err != nil {
			return false, pfirestore.WrapError("orders.exists_by_invoice", err)
		}
		return len(docs) > 0, nil
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("invoiceNumber", "==", number).Limit(1)
	})
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// List returns orders matching the filter ordered by most recent creation.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
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
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("order repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	statusFilters := normaliseStatuses(filter.Status)
	email := strings.ToLower(strings.TrimSpace(filter.CustomerEmail))

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if len(statusFilters) == 1 {
			q = q.Where("status", "==", statusFilters[0])
		} else if len(statusFilters) > 1 {
			// Firestore in clause supports up to 10 values.
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
		return domain.CursorPage[domain.Order]{}, err
	}

	valueDocs := docs
	nextToken := ""
	if limit > 0 && len(valueDocs) == fetchLimit {
		last := valueDocs[len(valueDocs)-1]
		nextToken = encodeListToken(last.Data.CreatedAt, last.ID)
		valueDocs = valueDocs[:len(valueDocs)-1]
	}

	items := make([]domain.Order, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, doc.Data.toDomain(doc.ID))
	}

	return domain.CursorPage[domain.Order]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

type customerDocument struct {
	Name     string `firestore:"name"`
	Email    string `firestore:"email"`
	WhatsApp string `firestore:"whatsapp,omitempty"`
}

type packageSnapshotDocument struct {
	ID           string   `firestore:"id"`
	Name         string   `firestore:"name"`
	Description  string   `firestore:"description,omitempty"`
	Features     []string `firestore:"features,omitempty"`
	DurationDays int      `firestore:"durationDays,omitempty"`
	Price        int64    `firestore:"price"`
}

type orderDocument struct {
	InvoiceNumber     string                  `firestore:"invoiceNumber"`
	ServiceID         string                  `firestore:"serviceId"`
	ServiceName       string                  `firestore:"serviceName"`
	Package           packageSnapshotDocument `firestore:"package"`
	Customer          customerDocument        `firestore:"customer"`
	DiscountCode      *string                 `firestore:"discountCode,omitempty"`
	DiscountAmount    *int64                  `firestore:"discountAmount,omitempty"`
	BasePrice         int64                   `firestore:"basePrice"`
	FinalPrice        int64                   `firestore:"finalPrice"`
	PaymentMethodID   string                  `firestore:"paymentMethodId"`
	PaymentMethodName string                  `firestore:"paymentMethodName,omitempty"`
	PaymentDeadline   time.Time               `firestore:"paymentDeadline"`
	ProofOfPaymentURL *string                 `firestore:"proofOfPaymentUrl,omitempty"`
	Status            string                  `firestore:"status"`
	CreatedAt         time.Time               `firestore:"createdAt"`
	UpdatedAt         time.Time               `firestore:"updatedAt"`
}

func encodeOrderDocument(order domain.Order) orderDocument {
	return orderDocument{
		InvoiceNumber: strings.ToUpper(strings.TrimSpace(order.InvoiceNumber)),
		ServiceID:     strings.TrimSpace(order.ServiceID),
		ServiceName:   strings.TrimSpace(order.ServiceName),
		Package: packageSnapshotDocument{
			ID:           order.Package.ID,
			Name:         order.Package.Name,
			Description:  order.Package.Description,
			Features:     append([]string(nil), order.Package.Features...),
			DurationDays: order.Package.DurationDays,
			Price:        order.Package.Price,
		},
		Customer: customerDocument{
			Name:     strings.TrimSpace(order.Customer.Name),
			Email:    strings.ToLower(strings.TrimSpace(order.Customer.Email)),
			WhatsApp: strings.TrimSpace(order.Customer.WhatsApp),
		},
		DiscountCode:      order.DiscountCode,
		DiscountAmount:    order.DiscountAmount,
		BasePrice:         order.BasePrice,
		FinalPrice:        order.FinalPrice,
		PaymentMethodID:   strings.TrimSpace(order.PaymentMethodID),
		PaymentMethodName: strings.TrimSpace(order.PaymentMethodName),
		PaymentDeadline:   order.PaymentDeadline.UTC(),
		ProofOfPaymentURL: order.ProofOfPaymentURL,
		Status:            string(order.Status),
		CreatedAt:         order.CreatedAt.UTC(),
		UpdatedAt:         order.UpdatedAt.UTC(),
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	return domain.Order{
		ID:            id,
		InvoiceNumber: d.InvoiceNumber,
		ServiceID:     d.ServiceID,
		ServiceName:   d.ServiceName,
		Package: domain.PackageSnapshot{
			ID:           d.Package.ID,
			Name:         d.Package.Name,
			Description:  d.Package.Description,
			Features:     append([]string(nil), d.Package.Features...),
			DurationDays: d.Package.DurationDays,
			Price:        d.Package.Price,
		},
		Customer: domain.Customer{
			Name:     d.Customer.Name,
			Email:    d.Customer.Email,
			WhatsApp: d.Customer.WhatsApp,
		},
		DiscountCode:      d.DiscountCode,
		DiscountAmount:    d.DiscountAmount,
		BasePrice:         d.BasePrice,
		FinalPrice:        d.FinalPrice,
		PaymentMethodID:   d.PaymentMethodID,
		PaymentMethodName: d.PaymentMethodName,
		PaymentDeadline:   d.PaymentDeadline,
		ProofOfPaymentURL: d.ProofOfPaymentURL,
		Status:            domain.OrderStatus(d.Status),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.OrderRepository = (*OrderRepository)(nil)
