package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/karsa-studio/api/internal/repositories"
)

var (
	// ErrPaymentMethodInvalidInput signals the caller provided invalid data.
	ErrPaymentMethodInvalidInput = errors.New("payment method: invalid input")
	// ErrPaymentMethodNotFound indicates no payment method matches the given ID.
	ErrPaymentMethodNotFound = errors.New("payment method: not found")
)

// PaymentMethodServiceDeps bundles collaborators required to construct the payment method service.
type PaymentMethodServiceDeps struct {
	PaymentMethods repositories.PaymentMethodRepository
	Clock          func() time.Time
}

type paymentMethodService struct {
	paymentMethods repositories.PaymentMethodRepository
	clock          func() time.Time
}

// NewPaymentMethodService wires dependencies into a concrete PaymentMethodService implementation.
func NewPaymentMethodService(deps PaymentMethodServiceDeps) (PaymentMethodService, error) {
	if deps.PaymentMethods == nil {
		return nil, errors.New("payment method service: payment method repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &paymentMethodService{
		paymentMethods: deps.PaymentMethods,
		clock:          func() time.Time { return clock().UTC() },
	}, nil
}

// ListActive returns payment methods offered at checkout.
func (s *paymentMethodService) ListActive(ctx context.Context) ([]PaymentMethod, error) {
	return s.paymentMethods.ListActive(ctx)
}

// CreatePaymentMethod stores a new payment option.
func (s *paymentMethodService) CreatePaymentMethod(ctx context.Context, cmd UpsertPaymentMethodCommand) (PaymentMethod, error) {
	method, err := buildPaymentMethod(cmd)
	if err != nil {
		return PaymentMethod{}, err
	}
	now := s.clock()
	method.CreatedAt = now
	method.UpdatedAt = now

	created, err := s.paymentMethods.Insert(ctx, method)
	if err != nil {
		return PaymentMethod{}, s.mapRepositoryError(err)
	}
	return created, nil
}

// UpdatePaymentMethod replaces an existing payment option.
func (s *paymentMethodService) UpdatePaymentMethod(ctx context.Context, cmd UpsertPaymentMethodCommand) (PaymentMethod, error) {
	id := strings.TrimSpace(cmd.PaymentMethodID)
	if id == "" {
		return PaymentMethod{}, fmt.Errorf("%w: payment method id is required", ErrPaymentMethodInvalidInput)
	}
	method, err := buildPaymentMethod(cmd)
	if err != nil {
		return PaymentMethod{}, err
	}

	existing, err := s.paymentMethods.FindByID(ctx, id)
	if err != nil {
		return PaymentMethod{}, s.mapRepositoryError(err)
	}

	method.ID = existing.ID
	method.CreatedAt = existing.CreatedAt
	method.UpdatedAt = s.clock()

	if err := s.paymentMethods.Update(ctx, method); err != nil {
		return PaymentMethod{}, s.mapRepositoryError(err)
	}
	return method, nil
}

// DeletePaymentMethod removes a payment option.
func (s *paymentMethodService) DeletePaymentMethod(ctx context.Context, paymentMethodID string) error {
	id := strings.TrimSpace(paymentMethodID)
	if id == "" {
		return fmt.Errorf("%w: payment method id is required", ErrPaymentMethodInvalidInput)
	}
	if err := s.paymentMethods.Delete(ctx, id); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *paymentMethodService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrPaymentMethodNotFound, err)
	}
	return err
}

func buildPaymentMethod(cmd UpsertPaymentMethodCommand) (PaymentMethod, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return PaymentMethod{}, fmt.Errorf("%w: name is required", ErrPaymentMethodInvalidInput)
	}
	methodType := strings.ToLower(strings.TrimSpace(cmd.Type))
	if methodType == "" {
		return PaymentMethod{}, fmt.Errorf("%w: type is required", ErrPaymentMethodInvalidInput)
	}
	return PaymentMethod{
		Type:          methodType,
		Name:          name,
		AccountHolder: strings.TrimSpace(cmd.AccountHolder),
		AccountNumber: strings.TrimSpace(cmd.AccountNumber),
		IsActive:      cmd.IsActive,
	}, nil
}
