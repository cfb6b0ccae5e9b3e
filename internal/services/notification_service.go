package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/repositories"
)

const notificationIDPrefix = "ntf_"

var (
	// ErrNotificationInvalidInput signals the caller provided invalid data.
	ErrNotificationInvalidInput = errors.New("notification: invalid input")
	// ErrNotificationNotFound indicates no notification matches the given ID.
	ErrNotificationNotFound = errors.New("notification: not found")
)

// NotificationServiceDeps bundles collaborators required to construct the notification service.
type NotificationServiceDeps struct {
	Notifications repositories.NotificationRepository
	Publisher     NotificationJobPublisher
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type notificationService struct {
	notifications repositories.NotificationRepository
	publisher     NotificationJobPublisher
	sanitizer     *bluemonday.Policy
	clock         func() time.Time
	newID         func() string
	logger        func(context.Context, string, map[string]any)
}

// NewNotificationService wires dependencies into a concrete NotificationService implementation.
func NewNotificationService(deps NotificationServiceDeps) (NotificationService, error) {
	if deps.Notifications == nil {
		return nil, errors.New("notification service: notification repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return strings.ToLower(ulid.Make().String())
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &notificationService{
		notifications: deps.Notifications,
		publisher:     deps.Publisher,
		sanitizer:     bluemonday.StrictPolicy(),
		clock:         func() time.Time { return clock().UTC() },
		newID:         idGen,
		logger:        logger,
	}, nil
}

// Notify records the event as an in-app notification and enqueues the
// outbound delivery job. Best effort: every failure is logged and swallowed
// so a notification hiccup never fails the order flow that raised it.
func (s *notificationService) Notify(ctx context.Context, event NotificationEvent) {
	if event.Type == "" {
		s.logger(ctx, "notification.dropped", map[string]any{"reason": "missing type"})
		return
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock()
	}

	notification := Notification{
		ID:        notificationIDPrefix + s.newID(),
		Type:      event.Type,
		Title:     s.sanitize(event.Title),
		Message:   s.sanitize(event.Message),
		Link:      strings.TrimSpace(event.Link),
		RelatedID: strings.TrimSpace(event.RelatedID),
		CreatedAt: occurredAt.UTC(),
	}

	if err := s.notifications.Insert(ctx, notification); err != nil {
		s.logger(ctx, "notification.insert_failed", map[string]any{
			"type":  string(event.Type),
			"error": err.Error(),
		})
	}

	if s.publisher == nil {
		return
	}
	messageID, err := s.publisher.PublishNotificationJob(ctx, NotificationJobMessage{
		NotificationID: notification.ID,
		Type:           string(notification.Type),
		Title:          notification.Title,
		Message:        notification.Message,
		Link:           notification.Link,
		RelatedID:      notification.RelatedID,
		OccurredAt:     notification.CreatedAt,
		Metadata:       cloneMap(event.Metadata),
	})
	if err != nil {
		s.logger(ctx, "notification.publish_failed", map[string]any{
			"notification": notification.ID,
			"type":         string(event.Type),
			"error":        err.Error(),
		})
		return
	}
	s.logger(ctx, "notification.published", map[string]any{
		"notification": notification.ID,
		"message_id":   messageID,
	})
}

// List pages through notifications for the admin bell menu.
func (s *notificationService) List(ctx context.Context, filter NotificationListFilter) (domain.CursorPage[Notification], error) {
	page, err := s.notifications.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Notification]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// CountUnread returns the unread badge count.
func (s *notificationService) CountUnread(ctx context.Context) (int64, error) {
	count, err := s.notifications.CountUnread(ctx)
	if err != nil {
		return 0, s.mapRepositoryError(err)
	}
	return count, nil
}

// MarkRead flags one notification as read.
func (s *notificationService) MarkRead(ctx context.Context, notificationID string) error {
	id := strings.TrimSpace(notificationID)
	if id == "" {
		return fmt.Errorf("%w: notification id is required", ErrNotificationInvalidInput)
	}
	if err := s.notifications.MarkRead(ctx, id, s.clock()); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

// MarkAllRead flags every unread notification and reports how many changed.
func (s *notificationService) MarkAllRead(ctx context.Context) (int, error) {
	count, err := s.notifications.MarkAllRead(ctx, s.clock())
	if err != nil {
		return count, s.mapRepositoryError(err)
	}
	return count, nil
}

// Delete removes one notification.
func (s *notificationService) Delete(ctx context.Context, notificationID string) error {
	id := strings.TrimSpace(notificationID)
	if id == "" {
		return fmt.Errorf("%w: notification id is required", ErrNotificationInvalidInput)
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

// sanitize strips markup from user-authored text before it reaches admin
// screens or outbound channels.
func (s *notificationService) sanitize(raw string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(raw))
}

func (s *notificationService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrNotificationNotFound, err)
	}
	return err
}
