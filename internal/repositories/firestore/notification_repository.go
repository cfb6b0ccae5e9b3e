package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"

	domain "github.com/karsa-studio/api/internal/domain"
	pfirestore "github.com/karsa-studio/api/internal/platform/firestore"
	"github.com/karsa-studio/api/internal/repositories"
)

const notificationsCollection = "notifications"

// NotificationRepository stores in-app notification rows for the admin panel.
type NotificationRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[notificationDocument]
}

// NewNotificationRepository constructs a Firestore-backed notification repository.
func NewNotificationRepository(provider *pfirestore.Provider) (*NotificationRepository, error) {
	if provider == nil {
		return nil, errors.New("notification repository requires firestore provider")
	}
	return &NotificationRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[notificationDocument](provider, notificationsCollection),
	}, nil
}

// Insert stores a new notification row.
func (r *NotificationRepository) Insert(ctx context.Context, notification domain.Notification) error {
	if r == nil || r.base == nil {
		return errors.New("notification repository not initialised")
	}
	id := strings.TrimSpace(notification.ID)
	if id == "" {
		return errors.New("notification repository: id is required")
	}

	doc := notificationDocument{
		Type:      string(notification.Type),
		Title:     strings.TrimSpace(notification.Title),
		Message:   strings.TrimSpace(notification.Message),
		Link:      strings.TrimSpace(notification.Link),
		RelatedID: strings.TrimSpace(notification.RelatedID),
		IsRead:    notification.IsRead,
		CreatedAt: notification.CreatedAt.UTC(),
	}

	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return pfirestore.WrapError("notifications.insert", err)
	}
	return nil
}

// Delete removes a notification row.
func (r *NotificationRepository) Delete(ctx context.Context, notificationID string) error {
	if r == nil || r.base == nil {
		return errors.New("notification repository not initialised")
	}
	id := strings.TrimSpace(notificationID)
	if id == "" {
		return errors.New("notification repository: id is required")
	}
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("notifications.delete", err)
	}
	return nil
}

// MarkRead flags one notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID string, readAt time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("notification repository not initialised")
	}
	id := strings.TrimSpace(notificationID)
	if id == "" {
		return errors.New("notification repository: id is required")
	}
	return r.base.Update(ctx, id, []firestore.Update{
		{Path: "isRead", Value: true},
		{Path: "readAt", Value: readAt.UTC()},
	})
}

// MarkAllRead flags every unread notification as read and reports how many
// rows were touched.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, readAt time.Time) (int, error) {
	if r == nil || r.provider == nil {
		return 0, errors.New("notification repository not initialised")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}

	query := client.Collection(notificationsCollection).
		Where("isRead", "==", false).
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
			return count, pfirestore.WrapError("notifications.mark_all_read", err)
		}
		if _, err := batch.Update(snap.Ref, []firestore.Update{
			{Path: "isRead", Value: true},
			{Path: "readAt", Value: readAt.UTC()},
		}); err != nil {
			return count, pfirestore.WrapError("notifications.mark_all_read", err)
		}
		count++
	}
	batch.End()
	return count, nil
}

// CountUnread returns the number of unread rows using a server-side aggregation.
func (r *NotificationRepository) CountUnread(ctx context.Context) (int64, error) {
	if r == nil || r.provider == nil {
		return 0, errors.New("notification repository not initialised")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}

	query := client.Collection(notificationsCollection).Where("isRead", "==", false)
	results, err := query.NewAggregationQuery().WithCount("unread").Get(ctx)
	if err != nil {
		return 0, pfirestore.WrapError("notifications.count_unread", err)
	}
	raw, ok := results["unread"]
	if !ok {
		return 0, errors.New("notification repository: aggregation result missing")
	}
	value, ok := raw.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("notification repository: unexpected aggregation type %T", raw)
	}
	return value.GetIntegerValue(), nil
}

// List returns notifications ordered by most recent creation.
func (r *NotificationRepository) List(ctx context.Context, filter repositories.NotificationListFilter) (domain.CursorPage[domain.Notification], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Notification]{}, errors.New("notification repository not initialised")
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
			return domain.CursorPage[domain.Notification]{}, fmt.Errorf("notification repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	typeFilters := normaliseStatuses(filter.Types)

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.UnreadOnly {
			q = q.Where("isRead", "==", false)
		}
		if len(typeFilters) == 1 {
			q = q.Where("type", "==", typeFilters[0])
		} else if len(typeFilters) > 1 {
			if len(typeFilters) > 10 {
				typeFilters = typeFilters[:10]
			}
			q = q.Where("type", "in", typeFilters)
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
		return domain.CursorPage[domain.Notification]{}, err
	}

	valueDocs := docs
	nextToken := ""
	if limit > 0 && len(valueDocs) == fetchLimit {
		last := valueDocs[len(valueDocs)-1]
		nextToken = encodeListToken(last.Data.CreatedAt, last.ID)
		valueDocs = valueDocs[:len(valueDocs)-1]
	}

	items := make([]domain.Notification, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, domain.Notification{
			ID:        doc.ID,
			Type:      domain.NotificationType(doc.Data.Type),
			Title:     doc.Data.Title,
			Message:   doc.Data.Message,
			Link:      doc.Data.Link,
			RelatedID: doc.Data.RelatedID,
			IsRead:    doc.Data.IsRead,
			CreatedAt: doc.Data.CreatedAt,
		})
	}

	return domain.CursorPage[domain.Notification]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

type notificationDocument struct {
	Type      string     `firestore:"type"`
	Title     string     `firestore:"title"`
	Message   string     `firestore:"message,omitempty"`
	Link      string     `firestore:"link,omitempty"`
	RelatedID string     `firestore:"relatedId,omitempty"`
	IsRead    bool       `firestore:"isRead"`
	ReadAt    *time.Time `firestore:"readAt,omitempty"`
	CreatedAt time.Time  `firestore:"createdAt"`
}

// Ensure interface compliance.
var _ repositories.NotificationRepository = (*NotificationRepository)(nil)
