package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/karsa-studio/api/internal/domain"
	pfirestore "github.com/karsa-studio/api/internal/platform/firestore"
	"github.com/karsa-studio/api/internal/repositories"
)

const orderLogsCollection = "orderLogs"

// OrderLogRepository stores the append-only status history for orders.
type OrderLogRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[orderLogDocument]
}

// NewOrderLogRepository constructs a Firestore-backed order log repository.
func NewOrderLogRepository(provider *pfirestore.Provider) (*OrderLogRepository, error) {
	if provider == nil {
		return nil, errors.New("order log repository requires firestore provider")
	}
	return &OrderLogRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[orderLogDocument](provider, orderLogsCollection),
	}, nil
}

// Append stores one log entry. Entries are immutable once written; Create
// rejects duplicate IDs so a retried transaction never rewrites history.
func (r *OrderLogRepository) Append(ctx context.Context, entry domain.OrderLogEntry) error {
	if r == nil || r.base == nil {
		return errors.New("order log repository not initialised")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return errors.New("order log repository: id is required")
	}
	if strings.TrimSpace(entry.OrderID) == "" {
		return errors.New("order log repository: order id is required")
	}

	doc := orderLogDocument{
		OrderID:   strings.TrimSpace(entry.OrderID),
		Status:    string(entry.Status),
		Note:      strings.TrimSpace(entry.Note),
		CreatedAt: entry.CreatedAt.UTC(),
	}

	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if tx, ok := pfirestore.TxFromContext(ctx); ok {
		if err := tx.Create(ref, doc); err != nil {
			return pfirestore.WrapError("order_logs.append", err)
		}
		return nil
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return pfirestore.WrapError("order_logs.append", err)
	}
	return nil
}

// List returns the full history for one order in chronological order.
func (r *OrderLogRepository) List(ctx context.Context, orderID string) ([]domain.OrderLogEntry, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order log repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, errors.New("order log repository: order id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderId", "==", id).
			OrderBy("createdAt", firestore.Asc).
			OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.OrderLogEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, domain.OrderLogEntry{
			ID:        doc.ID,
			OrderID:   doc.Data.OrderID,
			Status:    domain.OrderStatus(doc.Data.Status),
			Note:      doc.Data.Note,
			CreatedAt: doc.Data.CreatedAt,
		})
	}
	return entries, nil
}

// DeleteByOrder removes every history row belonging to one order. Runs
// outside any transaction since the row count is unbounded.
func (r *OrderLogRepository) DeleteByOrder(ctx context.Context, orderID string) (int, error) {
	if r == nil || r.provider == nil {
		return 0, errors.New("order log repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return 0, errors.New("order log repository: order id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}

	query := client.Collection(orderLogsCollection).
		Where("orderId", "==", id).
		Select()
	iter := query.Documents(ctx)
	defer iter.Stop()

	batch := client.BulkWriter(ctx)
	count := 0
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return count, pfirestore.WrapError("order_logs.delete_by_order", err)
		}
		if _, err := batch.Delete(snap.Ref); err != nil {
			return count, pfirestore.WrapError("order_logs.delete_by_order", err)
		}
		count++
	}
	batch.End()
	return count, nil
}

type orderLogDocument struct {
	OrderID   string    `firestore:"orderId"`
	Status    string    `firestore:"status"`
	Note      string    `firestore:"note,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// Ensure interface compliance.
var _ repositories.OrderLogRepository = (*OrderLogRepository)(nil)
