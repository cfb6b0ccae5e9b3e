package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/services"
)

type stubNotificationService struct {
	listFn        func(context.Context, services.NotificationListFilter) (domain.CursorPage[services.Notification], error)
	countFn       func(context.Context) (int64, error)
	markReadFn    func(context.Context, string) error
	markAllReadFn func(context.Context) (int, error)
	deleteFn      func(context.Context, string) error
}

func (s *stubNotificationService) Notify(ctx context.Context, event services.NotificationEvent) {}

func (s *stubNotificationService) List(ctx context.Context, filter services.NotificationListFilter) (domain.CursorPage[services.Notification], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[services.Notification]{}, nil
}

func (s *stubNotificationService) CountUnread(ctx context.Context) (int64, error) {
	if s.countFn != nil {
		return s.countFn(ctx)
	}
	return 0, errors.New("not implemented")
}

func (s *stubNotificationService) MarkRead(ctx context.Context, notificationID string) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, notificationID)
	}
	return errors.New("not implemented")
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context) (int, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx)
	}
	return 0, errors.New("not implemented")
}

func (s *stubNotificationService) Delete(ctx context.Context, notificationID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, notificationID)
	}
	return errors.New("not implemented")
}

func TestNotificationHandlersListParsesFilter(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC)

	var captured services.NotificationListFilter
	service := &stubNotificationService{
		listFn: func(ctx context.Context, filter services.NotificationListFilter) (domain.CursorPage[services.Notification], error) {
			captured = filter
			return domain.CursorPage[services.Notification]{
				Items: []services.Notification{
					{
						ID:        "ntf_1",
						Type:      domain.NotificationTypeNewOrder,
						Title:     "Pesanan Baru",
						Message:   "Budi memesan Desain Logo",
						Link:      "/admin/orders/ord_1",
						RelatedID: "ord_1",
						CreatedAt: now,
					},
				},
			}, nil
		},
	}

	handler := NewNotificationHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/notifications?type=new_order,order_status&unread=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(captured.Types) != 2 || !captured.UnreadOnly {
		t.Fatalf("unexpected filter %+v", captured)
	}

	var resp notificationListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Pesanan Baru" {
		t.Fatalf("unexpected items %+v", resp.Items)
	}
	if resp.Items[0].IsRead {
		t.Fatalf("expected unread notification")
	}
}

func TestNotificationHandlersCountUnread(t *testing.T) {
	service := &stubNotificationService{
		countFn: func(ctx context.Context) (int64, error) { return 7, nil },
	}

	handler := NewNotificationHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]int64
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["unread"] != 7 {
		t.Fatalf("expected 7 unread, got %v", resp)
	}
}

func TestNotificationHandlersMarkRead(t *testing.T) {
	var marked string
	service := &stubNotificationService{
		markReadFn: func(ctx context.Context, notificationID string) error {
			marked = notificationID
			return nil
		},
	}

	handler := NewNotificationHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/notifications/ntf_1/read", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if marked != "ntf_1" {
		t.Fatalf("expected ntf_1 marked, got %q", marked)
	}
}

func TestNotificationHandlersMarkReadNotFound(t *testing.T) {
	service := &stubNotificationService{
		markReadFn: func(ctx context.Context, notificationID string) error {
			return services.ErrNotificationNotFound
		},
	}

	handler := NewNotificationHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/notifications/ntf_missing/read", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestNotificationHandlersMarkAllRead(t *testing.T) {
	service := &stubNotificationService{
		markAllReadFn: func(ctx context.Context) (int, error) { return 4, nil },
	}

	handler := NewNotificationHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["marked"] != 4 {
		t.Fatalf("expected 4 marked, got %v", resp)
	}
}

func TestNotificationHandlersDelete(t *testing.T) {
	var deleted string
	service := &stubNotificationService{
		deleteFn: func(ctx context.Context, notificationID string) error {
			deleted = notificationID
			return nil
		},
	}

	handler := NewNotificationHandlers(service)
	router := chi.NewRouter()
	handler.AdminRoutes(router)

	req := httptest.NewRequest(http.MethodDelete, "/notifications/ntf_1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if deleted != "ntf_1" {
		t.Fatalf("expected ntf_1 deleted, got %q", deleted)
	}
}

func TestNotificationHandlersServiceUnavailable(t *testing.T) {
	handler := NewNotificationHandlers(nil)
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rr := httptest.NewRecorder()
	handler.listNotifications(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
