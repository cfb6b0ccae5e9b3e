package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/karsa-studio/api/internal/domain"
	pfirestore "github.com/karsa-studio/api/internal/platform/firestore"
	"github.com/karsa-studio/api/internal/repositories"
)

const paymentMethodsCollection = "paymentMethods"

// PaymentMethodRepository stores the bank account and e-wallet reference data
// customers pay into.
type PaymentMethodRepository struct {
	base *pfirestore.BaseRepository[paymentMethodDocument]
}

// NewPaymentMethodRepository constructs a Firestore-backed payment method repository.
func NewPaymentMethodRepository(provider *pfirestore.Provider) (*PaymentMethodRepository, error) {
	if provider == nil {
		return nil, errors.New("payment method repository requires firestore provider")
	}
	return &PaymentMethodRepository{
		base: pfirestore.NewBaseRepository[paymentMethodDocument](provider, paymentMethodsCollection),
	}, nil
}

// Insert stores a new payment method.
func (r *PaymentMethodRepository) Insert(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	if r == nil || r.base == nil {
		return domain.PaymentMethod{}, errors.New("payment method repository not initialised")
	}
	id := strings.TrimSpace(method.ID)
	if id == "" {
		return domain.PaymentMethod{}, errors.New("payment method repository: id is required")
	}

	doc := encodePaymentMethodDocument(method)
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return domain.PaymentMethod{}, pfirestore.WrapError("payment_methods.insert", err)
	}
	return doc.toDomain(id), nil
}

// Update replaces the stored payment method.
func (r *PaymentMethodRepository) Update(ctx context.Context, method domain.PaymentMethod) error {
	if r == nil || r.base == nil {
		return errors.New("payment method repository not initialised")
	}
	id := strings.TrimSpace(method.ID)
	if id == "" {
		return errors.New("payment method repository: id is required")
	}
	if err := r.base.Set(ctx, id, encodePaymentMethodDocument(method)); err != nil {
		return err
	}
	return nil
}

// Delete removes the payment method.
func (r *PaymentMethodRepository) Delete(ctx context.Context, paymentMethodID string) error {
	if r == nil || r.base == nil {
		return errors.New("payment method repository not initialised")
	}
	id := strings.TrimSpace(paymentMethodID)
	if id == "" {
		return errors.New("payment method repository: id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("payment_methods.delete", err)
	}
	return nil
}

// FindByID loads one payment method.
func (r *PaymentMethodRepository) FindByID(ctx context.Context, paymentMethodID string) (domain.PaymentMethod, error) {
	if r == nil || r.base == nil {
		return domain.PaymentMethod{}, errors.New("payment method repository not initialised")
	}
	id := strings.TrimSpace(paymentMethodID)
	if id == "" {
		return domain.PaymentMethod{}, errors.New("payment method repository: id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ListActive returns enabled payment methods ordered by name.
func (r *PaymentMethodRepository) ListActive(ctx context.Context) ([]domain.PaymentMethod, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("payment method repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("isActive", "==", true).OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	methods := make([]domain.PaymentMethod, 0, len(docs))
	for _, doc := range docs {
		methods = append(methods, doc.Data.toDomain(doc.ID))
	}
	return methods, nil
}

type paymentMethodDocument struct {
	Type          string    `firestore:"type"`
	Name          string    `firestore:"name"`
	AccountHolder string    `firestore:"accountHolder,omitempty"`
	AccountNumber string    `firestore:"accountNumber,omitempty"`
	IsActive      bool      `firestore:"isActive"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func encodePaymentMethodDocument(method domain.PaymentMethod) paymentMethodDocument {
	return paymentMethodDocument{
		Type:          strings.ToLower(strings.TrimSpace(method.Type)),
		Name:          strings.TrimSpace(method.Name),
		AccountHolder: strings.TrimSpace(method.AccountHolder),
		AccountNumber: strings.TrimSpace(method.AccountNumber),
		IsActive:      method.IsActive,
		CreatedAt:     method.CreatedAt.UTC(),
		UpdatedAt:     method.UpdatedAt.UTC(),
	}
}

func (d paymentMethodDocument) toDomain(id string) domain.PaymentMethod {
	return domain.PaymentMethod{
		ID:            id,
		Type:          d.Type,
		Name:          d.Name,
		AccountHolder: d.AccountHolder,
		AccountNumber: d.AccountNumber,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.PaymentMethodRepository = (*PaymentMethodRepository)(nil)
