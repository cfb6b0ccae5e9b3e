package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/repositories"
)

const discountIDPrefix = "dsc_"

var (
	// ErrDiscountInvalidInput signals the caller provided invalid data.
	ErrDiscountInvalidInput = errors.New("discount: invalid input")
	// ErrDiscountNotFound indicates no discount matches the given code or ID.
	ErrDiscountNotFound = errors.New("discount: not found")
	// ErrDiscountNotApplicable indicates the discount exists but cannot apply
	// to this purchase: inactive, wrong service, or outside its window.
	ErrDiscountNotApplicable = errors.New("discount: not applicable")
	// ErrDiscountExhausted indicates the usage limit has been reached.
	ErrDiscountExhausted = errors.New("discount: usage limit reached")
	// ErrDiscountConflict indicates a duplicate code or concurrent edit.
	ErrDiscountConflict = errors.New("discount: conflict")
)

// DiscountServiceDeps bundles collaborators required to construct the discount service.
type DiscountServiceDeps struct {
	Discounts   repositories.DiscountRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type discountService struct {
	discounts repositories.DiscountRepository
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewDiscountService wires dependencies into a concrete DiscountService implementation.
func NewDiscountService(deps DiscountServiceDeps) (DiscountService, error) {
	if deps.Discounts == nil {
		return nil, errors.New("discount service: discount repository is required")
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

	return &discountService{
		discounts: deps.Discounts,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// Validate resolves a code and quotes the discounted price without consuming
// a usage slot. The client-facing preview; redemption re-checks everything
// transactionally at order creation.
func (s *discountService) Validate(ctx context.Context, cmd ValidateDiscountCommand) (DiscountQuote, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return DiscountQuote{}, fmt.Errorf("%w: code is required", ErrDiscountInvalidInput)
	}
	if cmd.BasePrice < 0 {
		return DiscountQuote{}, fmt.Errorf("%w: base price must not be negative", ErrDiscountInvalidInput)
	}

	discount, err := s.discounts.FindByCode(ctx, code)
	if err != nil {
		return DiscountQuote{}, s.mapRepositoryError(err)
	}

	now := s.clock()
	if err := checkApplicability(discount, strings.TrimSpace(cmd.ServiceID), now); err != nil {
		return DiscountQuote{}, err
	}

	amount := ComputeDiscountAmount(discount, cmd.BasePrice)
	return DiscountQuote{
		Discount:   discount,
		Amount:     amount,
		FinalPrice: finalPrice(cmd.BasePrice, amount),
	}, nil
}

// CreateDiscount stores a new discount definition.
func (s *discountService) CreateDiscount(ctx context.Context, cmd UpsertDiscountCommand) (Discount, error) {
	discount, err := s.buildDiscount(cmd)
	if err != nil {
		return Discount{}, err
	}

	now := s.clock()
	discount.ID = discountIDPrefix + s.newID()
	discount.UsedCount = 0
	discount.CreatedAt = now
	discount.UpdatedAt = now

	if err := s.discounts.Insert(ctx, discount); err != nil {
		return Discount{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "discount.created", map[string]any{
		"discount": discount.ID,
		"code":     discount.Code,
	})
	return discount, nil
}

// UpdateDiscount replaces an existing definition. The usage counter is
// preserved by the repository.
func (s *discountService) UpdateDiscount(ctx context.Context, cmd UpsertDiscountCommand) (Discount, error) {
	id := strings.TrimSpace(cmd.DiscountID)
	if id == "" {
		return Discount{}, fmt.Errorf("%w: discount id is required", ErrDiscountInvalidInput)
	}

	discount, err := s.buildDiscount(cmd)
	if err != nil {
		return Discount{}, err
	}

	existing, err := s.discounts.FindByID(ctx, id)
	if err != nil {
		return Discount{}, s.mapRepositoryError(err)
	}

	discount.ID = existing.ID
	discount.UsedCount = existing.UsedCount
	discount.CreatedAt = existing.CreatedAt
	discount.UpdatedAt = s.clock()

	if err := s.discounts.Update(ctx, discount); err != nil {
		return Discount{}, s.mapRepositoryError(err)
	}
	return discount, nil
}

// DeleteDiscount removes the definition.
func (s *discountService) DeleteDiscount(ctx context.Context, discountID string) error {
	id := strings.TrimSpace(discountID)
	if id == "" {
		return fmt.Errorf("%w: discount id is required", ErrDiscountInvalidInput)
	}
	if err := s.discounts.Delete(ctx, id); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

// GetDiscount loads one definition by ID.
func (s *discountService) GetDiscount(ctx context.Context, discountID string) (Discount, error) {
	id := strings.TrimSpace(discountID)
	if id == "" {
		return Discount{}, fmt.Errorf("%w: discount id is required", ErrDiscountInvalidInput)
	}
	discount, err := s.discounts.FindByID(ctx, id)
	if err != nil {
		return Discount{}, s.mapRepositoryError(err)
	}
	return discount, nil
}

// ListDiscounts pages through definitions for the admin screen.
func (s *discountService) ListDiscounts(ctx context.Context, filter DiscountListFilter) (domain.CursorPage[Discount], error) {
	page, err := s.discounts.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Discount]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *discountService) buildDiscount(cmd UpsertDiscountCommand) (Discount, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return Discount{}, fmt.Errorf("%w: code is required", ErrDiscountInvalidInput)
	}
	switch cmd.Type {
	case domain.DiscountTypePercentage:
		if cmd.Value <= 0 || cmd.Value > 100 {
			return Discount{}, fmt.Errorf("%w: percentage value must be between 1 and 100", ErrDiscountInvalidInput)
		}
	case domain.DiscountTypeFixed:
		if cmd.Value <= 0 {
			return Discount{}, fmt.Errorf("%w: fixed value must be positive", ErrDiscountInvalidInput)
		}
	default:
		return Discount{}, fmt.Errorf("%w: unknown discount type %q", ErrDiscountInvalidInput, cmd.Type)
	}
	if cmd.StartsAt != nil && cmd.ExpiresAt != nil && cmd.ExpiresAt.Before(*cmd.StartsAt) {
		return Discount{}, fmt.Errorf("%w: expiry must not precede start", ErrDiscountInvalidInput)
	}
	if cmd.UsageLimit != nil && *cmd.UsageLimit <= 0 {
		return Discount{}, fmt.Errorf("%w: usage limit must be positive", ErrDiscountInvalidInput)
	}

	discount := Discount{
		Code:       code,
		Type:       cmd.Type,
		Value:      cmd.Value,
		UsageLimit: cmd.UsageLimit,
		IsActive:   cmd.IsActive,
	}
	if cmd.ServiceID != nil {
		if trimmed := strings.TrimSpace(*cmd.ServiceID); trimmed != "" {
			discount.ServiceID = valuePtr(trimmed)
		}
	}
	if cmd.StartsAt != nil {
		ts := cmd.StartsAt.UTC()
		discount.StartsAt = &ts
	}
	if cmd.ExpiresAt != nil {
		ts := cmd.ExpiresAt.UTC()
		discount.ExpiresAt = &ts
	}
	return discount, nil
}

func (s *discountService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrUsageLimitReached) {
		return fmt.Errorf("%w: %v", ErrDiscountExhausted, err)
	}
	if errors.Is(err, repositories.ErrDiscountInactive) {
		return fmt.Errorf("%w: %v", ErrDiscountNotApplicable, err)
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrDiscountNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrDiscountConflict, err)
		}
	}
	return err
}

// checkApplicability enforces activation, service scope, validity window, and
// usage headroom. Exhaustion reports a distinct error so callers can message
// it separately from a dead or mismatched code.
func checkApplicability(discount Discount, serviceID string, now time.Time) error {
	if !discount.IsActive {
		return fmt.Errorf("%w: code %s is inactive", ErrDiscountNotApplicable, discount.Code)
	}
	if discount.ServiceID != nil && *discount.ServiceID != serviceID {
		return fmt.Errorf("%w: code %s does not cover this service", ErrDiscountNotApplicable, discount.Code)
	}
	if discount.StartsAt != nil && now.Before(discount.StartsAt.UTC()) {
		return fmt.Errorf("%w: code %s is not yet valid", ErrDiscountNotApplicable, discount.Code)
	}
	if discount.ExpiresAt != nil && now.After(discount.ExpiresAt.UTC()) {
		return fmt.Errorf("%w: code %s has expired", ErrDiscountNotApplicable, discount.Code)
	}
	if discount.UsageLimit != nil && discount.UsedCount >= *discount.UsageLimit {
		return fmt.Errorf("%w: code %s", ErrDiscountExhausted, discount.Code)
	}
	return nil
}

// ComputeDiscountAmount derives the deduction for a base price. Percentage
// discounts truncate toward zero. Fixed discounts report their full value
// even when it exceeds the base price; only finalPrice clamps.
func ComputeDiscountAmount(discount Discount, basePrice int64) int64 {
	var amount int64
	switch discount.Type {
	case domain.DiscountTypePercentage:
		amount = basePrice * discount.Value / 100
	case domain.DiscountTypeFixed:
		amount = discount.Value
	default:
		return 0
	}
	if amount < 0 {
		return 0
	}
	return amount
}

func finalPrice(basePrice, amount int64) int64 {
	final := basePrice - amount
	if final < 0 {
		return 0
	}
	return final
}

func valuePtr[T any](v T) *T {
	return &v
}
