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

const discountsCollection = "discounts"

// DiscountRepository maintains discount definitions and their shared usage counters.
type DiscountRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[discountDocument]
}

// NewDiscountRepository constructs a Firestore-backed discount repository.
func NewDiscountRepository(provider *pfirestore.Provider) (*DiscountRepository, error) {
	if provider == nil {
		return nil, errors.New("discount repository requires firestore provider")
	}
	return &DiscountRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[discountDocument](provider, discountsCollection),
	}, nil
}

// Insert stores a new discount, enforcing code uniqueness.
func (r *DiscountRepository) Insert(ctx context.Context, discount domain.Discount) error {
	if r == nil || r.provider == nil {
		return errors.New("discount repository not initialised")
	}
	id := strings.TrimSpace(discount.ID)
	if id == "" {
		return errors.New("discount repository: id is required")
	}
	code := strings.ToUpper(strings.TrimSpace(discount.Code))
	if code == "" {
		return errors.New("discount repository: code is required")
	}

	doc := encodeDiscountDocument(discount)
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		coll := ref.Parent
		existing, err := tx.Documents(coll.Where("code", "==", code).Limit(1)).GetAll()
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if len(existing) > 0 {
			return status.Error(codes.AlreadyExists, fmt.Sprintf("discount code %s already exists", code))
		}
		return tx.Create(ref, doc)
	})
	if err != nil {
		return pfirestore.WrapError("discounts.insert", err)
	}
	return nil
}

// Update replaces the stored definition. The usage counter is preserved from
// the stored document so admin edits never reset redemption counts.
func (r *DiscountRepository) Update(ctx context.Context, discount domain.Discount) error {
	if r == nil || r.provider == nil {
		return errors.New("discount repository not initialised")
	}
	id := strings.TrimSpace(discount.ID)
	if id == "" {
		return errors.New("discount repository: id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var stored discountDocument
		if err := snap.DataTo(&stored); err != nil {
			return fmt.Errorf("decode discount %s: %w", id, err)
		}

		doc := encodeDiscountDocument(discount)
		doc.UsedCount = stored.UsedCount
		doc.CreatedAt = stored.CreatedAt
		return tx.Set(ref, doc)
	})
	if err != nil {
		return pfirestore.WrapError("discounts.update", err)
	}
	return nil
}

// Delete removes the discount document.
func (r *DiscountRepository) Delete(ctx context.Context, discountID string) error {
	if r == nil || r.base == nil {
		return errors.New("discount repository not initialised")
	}
	id := strings.TrimSpace(discountID)
	if id == "" {
		return errors.New("discount repository: id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("discounts.delete", err)
	}
	return nil
}

// FindByID loads one discount by document ID.
func (r *DiscountRepository) FindByID(ctx context.Context, discountID string) (domain.Discount, error) {
	if r == nil || r.base == nil {
		return domain.Discount{}, errors.New("discount repository not initialised")
	}
	id := strings.TrimSpace(discountID)
	if id == "" {
		return domain.Discount{}, errors.New("discount repository: id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Discount{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindByCode loads one discount by its redemption code. Codes are stored
// upper-cased so the lookup is case-insensitive.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (domain.Discount, error) {
	if r == nil || r.base == nil {
		return domain.Discount{}, errors.New("discount repository not initialised")
	}
	normalised := strings.ToUpper(strings.TrimSpace(code))
	if normalised == "" {
		return domain.Discount{}, errors.New("discount repository: code is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("code", "==", normalised).Limit(1)
	})
	if err != nil {
		return domain.Discount{}, err
	}
	if len(docs) == 0 {
		return domain.Discount{}, pfirestore.WrapError("discounts.find_by_code", status.Error(codes.NotFound, fmt.Sprintf("discount %s not found", normalised)))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// List returns discounts ordered by most recent creation.
func (r *DiscountRepository) List(ctx context.Context, filter repositories.DiscountListFilter) (domain.CursorPage[domain.Discount], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Discount]{}, errors.New("discount repository not initialised")
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
			return domain.CursorPage[domain.Discount]{}, fmt.Errorf("discount repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	var serviceID string
	if filter.ServiceID != nil {
		serviceID = strings.TrimSpace(*filter.ServiceID)
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.ActiveOnly {
			q = q.Where("isActive", "==", true)
		}
		if serviceID != "" {
			q = q.Where("serviceId", "==", serviceID)
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
		return domain.CursorPage[domain.Discount]{}, err
	}

	valueDocs := docs
	nextToken := ""
	if limit > 0 && len(valueDocs) == fetchLimit {
		last := valueDocs[len(valueDocs)-1]
		nextToken = encodeListToken(last.Data.CreatedAt, last.ID)
		valueDocs = valueDocs[:len(valueDocs)-1]
	}

	items := make([]domain.Discount, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, doc.Data.toDomain(doc.ID))
	}

	return domain.CursorPage[domain.Discount]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

// ConsumeUsage atomically increments the usage counter after re-checking
// activation, window, and limit against the stored document. The read happens
// inside the transaction, so two concurrent redemptions of the last slot
// cannot both succeed. Joins a surrounding transaction when the context
// carries one; callers must invoke it before any buffered writes.
func (r *DiscountRepository) ConsumeUsage(ctx context.Context, discountID string, now time.Time) (domain.Discount, error) {
	if r == nil || r.provider == nil {
		return domain.Discount{}, errors.New("discount repository not initialised")
	}
	id := strings.TrimSpace(discountID)
	if id == "" {
		return domain.Discount{}, errors.New("discount repository: id is required")
	}
	now = now.UTC()

	var updated domain.Discount
	consume := func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc discountDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode discount %s: %w", id, err)
		}

		if !doc.IsActive {
			return repositories.ErrDiscountInactive
		}
		if doc.StartsAt != nil && now.Before(doc.StartsAt.UTC()) {
			return repositories.ErrDiscountInactive
		}
		if doc.ExpiresAt != nil && now.After(doc.ExpiresAt.UTC()) {
			return repositories.ErrDiscountInactive
		}
		if doc.UsageLimit != nil && doc.UsedCount >= *doc.UsageLimit {
			return repositories.ErrUsageLimitReached
		}

		doc.UsedCount++
		doc.UpdatedAt = now
		if err := tx.Update(ref, []firestore.Update{
			{Path: "usedCount", Value: doc.UsedCount},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		updated = doc.toDomain(snap.Ref.ID)
		return nil
	}

	var err error
	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		err = consume(ctx, tx)
	} else {
		err = r.provider.RunTransaction(ctx, consume)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrUsageLimitReached) || errors.Is(err, repositories.ErrDiscountInactive) {
			return domain.Discount{}, err
		}
		return domain.Discount{}, pfirestore.WrapError("discounts.consume_usage", err)
	}
	return updated, nil
}

type discountDocument struct {
	Code       string     `firestore:"code"`
	Type       string     `firestore:"type"`
	Value      int64      `firestore:"value"`
	ServiceID  *string    `firestore:"serviceId,omitempty"`
	StartsAt   *time.Time `firestore:"startsAt,omitempty"`
	ExpiresAt  *time.Time `firestore:"expiresAt,omitempty"`
	UsageLimit *int64     `firestore:"usageLimit,omitempty"`
	UsedCount  int64      `firestore:"usedCount"`
	IsActive   bool       `firestore:"isActive"`
	CreatedAt  time.Time  `firestore:"createdAt"`
	UpdatedAt  time.Time  `firestore:"updatedAt"`
}

func encodeDiscountDocument(discount domain.Discount) discountDocument {
	doc := discountDocument{
		Code:       strings.ToUpper(strings.TrimSpace(discount.Code)),
		Type:       string(discount.Type),
		Value:      discount.Value,
		UsageLimit: discount.UsageLimit,
		UsedCount:  discount.UsedCount,
		IsActive:   discount.IsActive,
		CreatedAt:  discount.CreatedAt.UTC(),
		UpdatedAt:  discount.UpdatedAt.UTC(),
	}
	if discount.ServiceID != nil {
		trimmed := strings.TrimSpace(*discount.ServiceID)
		if trimmed != "" {
			doc.ServiceID = &trimmed
		}
	}
	if discount.StartsAt != nil {
		ts := discount.StartsAt.UTC()
		doc.StartsAt = &ts
	}
	if discount.ExpiresAt != nil {
		ts := discount.ExpiresAt.UTC()
		doc.ExpiresAt = &ts
	}
	return doc
}

func (d discountDocument) toDomain(id string) domain.Discount {
	return domain.Discount{
		ID:         id,
		Code:       d.Code,
		Type:       domain.DiscountType(d.Type),
		Value:      d.Value,
		ServiceID:  d.ServiceID,
		StartsAt:   d.StartsAt,
		ExpiresAt:  d.ExpiresAt,
		UsageLimit: d.UsageLimit,
		UsedCount:  d.UsedCount,
		IsActive:   d.IsActive,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.DiscountRepository = (*DiscountRepository)(nil)
