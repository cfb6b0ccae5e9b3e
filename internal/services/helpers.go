package services

import (
	"context"
	"fmt"
	"time"

	domain "github.com/karsa-studio/api/internal/domain"
)

// noopUnitOfWork runs the callback without a transactional boundary. Used in
// tests and for deployments where the backing store handles atomicity itself.
type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const discountExpiryWarningWindow = 72 * time.Hour

// discountHousekeepingEvents reports the admin notifications a redemption
// owes: the code just hit its usage limit, or its expiry is near. Raised by
// the order builders after a successful consume, never by the preview path.
func discountHousekeepingEvents(discount Discount, now time.Time) []NotificationEvent {
	var events []NotificationEvent
	if discount.UsageLimit != nil && discount.UsedCount >= *discount.UsageLimit {
		events = append(events, NotificationEvent{
			Type:       domain.NotificationTypeDiscountExhausted,
			Title:      "Diskon Mencapai Batas",
			Message:    fmt.Sprintf("Kode %s telah mencapai batas penggunaan", discount.Code),
			Link:       "/admin/discounts/" + discount.ID,
			RelatedID:  discount.ID,
			OccurredAt: now,
		})
	}
	if discount.ExpiresAt != nil {
		remaining := discount.ExpiresAt.UTC().Sub(now)
		if remaining > 0 && remaining <= discountExpiryWarningWindow {
			events = append(events, NotificationEvent{
				Type:       domain.NotificationTypeDiscountExpiring,
				Title:      "Diskon Segera Berakhir",
				Message:    fmt.Sprintf("Kode %s berakhir pada %s", discount.Code, discount.ExpiresAt.UTC().Format("2 Jan 2006 15:04")),
				Link:       "/admin/discounts/" + discount.ID,
				RelatedID:  discount.ID,
				OccurredAt: now,
			})
		}
	}
	return events
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
