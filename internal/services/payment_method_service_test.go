package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/karsa-studio/api/internal/domain"
)

func newTestPaymentMethodService(t *testing.T, repo *stubPaymentMethodRepository, clock func() time.Time) PaymentMethodService {
	t.Helper()
	service, err := NewPaymentMethodService(PaymentMethodServiceDeps{
		PaymentMethods: repo,
		Clock:          clock,
	})
	if err != nil {
		t.Fatalf("unexpected error constructing payment method service: %v", err)
	}
	return service
}

func TestPaymentMethodServiceCreate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	repo := &stubPaymentMethodRepository{
		insertFunc: func(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
			method.ID = "pm_1"
			return method, nil
		},
	}

	service := newTestPaymentMethodService(t, repo, func() time.Time { return now })

	created, err := service.CreatePaymentMethod(context.Background(), UpsertPaymentMethodCommand{
		Type:          " Bank_Transfer ",
		Name:          "  BCA  ",
		AccountHolder: "Karsa Studio",
		AccountNumber: "1234567890",
		IsActive:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.ID != "pm_1" {
		t.Fatalf("expected repository-assigned id, got %q", created.ID)
	}
	if created.Type != "bank_transfer" {
		t.Fatalf("expected type lower-cased, got %q", created.Type)
	}
	if created.Name != "BCA" || created.AccountHolder != "Karsa Studio" {
		t.Fatalf("expected trimmed fields, got %+v", created)
	}
	if created.CreatedAt != now || created.UpdatedAt != now {
		t.Fatalf("expected timestamps stamped, got %+v", created)
	}
}

func TestPaymentMethodServiceCreateValidation(t *testing.T) {
	service := newTestPaymentMethodService(t, &stubPaymentMethodRepository{}, nil)

	cases := []struct {
		name string
		cmd  UpsertPaymentMethodCommand
	}{
		{name: "missing name", cmd: UpsertPaymentMethodCommand{Type: "ewallet"}},
		{name: "missing type", cmd: UpsertPaymentMethodCommand{Name: "GoPay"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.CreatePaymentMethod(context.Background(), tc.cmd); !errors.Is(err, ErrPaymentMethodInvalidInput) {
				t.Fatalf("expected ErrPaymentMethodInvalidInput, got %v", err)
			}
		})
	}
}

func TestPaymentMethodServiceUpdatePreservesIdentity(t *testing.T) {
	created := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var updated domain.PaymentMethod
	repo := &stubPaymentMethodRepository{
		findByIDFunc: func(ctx context.Context, id string) (domain.PaymentMethod, error) {
			return domain.PaymentMethod{ID: id, Name: "BCA", Type: "bank_transfer", CreatedAt: created}, nil
		},
		updateFunc: func(ctx context.Context, method domain.PaymentMethod) error {
			updated = method
			return nil
		},
	}

	service := newTestPaymentMethodService(t, repo, func() time.Time { return now })

	method, err := service.UpdatePaymentMethod(context.Background(), UpsertPaymentMethodCommand{
		PaymentMethodID: "pm_1",
		Type:            "ewallet",
		Name:            "GoPay",
		IsActive:        false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method.ID != "pm_1" || method.CreatedAt != created {
		t.Fatalf("expected identity preserved, got %+v", method)
	}
	if method.UpdatedAt != now || method.Type != "ewallet" || method.IsActive {
		t.Fatalf("expected fields replaced, got %+v", method)
	}
	if updated.ID != "pm_1" {
		t.Fatalf("expected update persisted, got %+v", updated)
	}
}

func TestPaymentMethodServiceUpdateUnknownID(t *testing.T) {
	repo := &stubPaymentMethodRepository{
		findByIDFunc: func(ctx context.Context, id string) (domain.PaymentMethod, error) {
			return domain.PaymentMethod{}, &repositoryErrorStub{notFound: true}
		},
	}

	service := newTestPaymentMethodService(t, repo, nil)

	_, err := service.UpdatePaymentMethod(context.Background(), UpsertPaymentMethodCommand{
		PaymentMethodID: "pm_missing",
		Type:            "ewallet",
		Name:            "GoPay",
	})
	if !errors.Is(err, ErrPaymentMethodNotFound) {
		t.Fatalf("expected ErrPaymentMethodNotFound, got %v", err)
	}
}

func TestPaymentMethodServiceDeleteRequiresID(t *testing.T) {
	service := newTestPaymentMethodService(t, &stubPaymentMethodRepository{}, nil)

	if err := service.DeletePaymentMethod(context.Background(), "  "); !errors.Is(err, ErrPaymentMethodInvalidInput) {
		t.Fatalf("expected ErrPaymentMethodInvalidInput, got %v", err)
	}
}

func TestPaymentMethodServiceListActive(t *testing.T) {
	repo := &stubPaymentMethodRepository{
		listActiveFunc: func(ctx context.Context) ([]domain.PaymentMethod, error) {
			return []domain.PaymentMethod{{ID: "pm_1", IsActive: true}}, nil
		},
	}

	service := newTestPaymentMethodService(t, repo, nil)

	methods, err := service.ListActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(methods) != 1 || methods[0].ID != "pm_1" {
		t.Fatalf("unexpected methods %+v", methods)
	}
}
