package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/karsa-studio/api/internal/platform/httpx"
	"github.com/karsa-studio/api/internal/services"
)

// NotificationHandlers exposes the admin notification inbox.
type NotificationHandlers struct {
	notifications services.NotificationService
}

// NewNotificationHandlers constructs a new NotificationHandlers instance.
func NewNotificationHandlers(notifications services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notifications: notifications}
}

// AdminRoutes registers the staff-facing notification endpoints.
func (h *NotificationHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/notifications", h.listNotifications)
	r.Get("/notifications/unread-count", h.countUnread)
	r.Post("/notifications/read-all", h.markAllRead)
	r.Post("/notifications/{notificationID}/read", h.markRead)
	r.Delete("/notifications/{notificationID}", h.deleteNotification)
}

func (h *NotificationHandlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	pagination, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.notifications.List(ctx, services.NotificationListFilter{
		Types:      parseFilterValues(r.URL.Query()["type"]),
		UnreadOnly: strings.EqualFold(r.URL.Query().Get("unread"), "true"),
		Pagination: pagination,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]notificationPayload, 0, len(page.Items))
	for _, notification := range page.Items {
		items = append(items, buildNotificationPayload(notification))
	}
	writeJSONResponse(w, http.StatusOK, notificationListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *NotificationHandlers) countUnread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	count, err := h.notifications.CountUnread(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"unread": count})
}

func (h *NotificationHandlers) markRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "notificationID"))
	if err := h.notifications.MarkRead(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	count, err := h.notifications.MarkAllRead(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"marked": count})
}

func (h *NotificationHandlers) deleteNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.notifications == nil {
		httpx.WriteError(ctx, w, httpx.NewError("notification_service_unavailable", "notification service unavailable", http.StatusServiceUnavailable))
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "notificationID"))
	if err := h.notifications.Delete(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Payloads -------------------------------------------------------------------

type notificationListResponse struct {
	Items         []notificationPayload `json:"items"`
	NextPageToken string                `json:"next_page_token,omitempty"`
}

type notificationPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
	RelatedID string `json:"related_id,omitempty"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func buildNotificationPayload(notification services.Notification) notificationPayload {
	return notificationPayload{
		ID:        notification.ID,
		Type:      string(notification.Type),
		Title:     notification.Title,
		Message:   notification.Message,
		Link:      notification.Link,
		RelatedID: notification.RelatedID,
		IsRead:    notification.IsRead,
		CreatedAt: formatTime(notification.CreatedAt),
	}
}
