package repositories

import "errors"

var (
	// ErrUsageLimitReached is returned by DiscountRepository.ConsumeUsage when
	// the usage counter has no headroom left under the configured limit.
	ErrUsageLimitReached = errors.New("repositories: discount usage limit reached")

	// ErrDiscountInactive is returned by ConsumeUsage when the discount is
	// disabled or outside its validity window at redemption time.
	ErrDiscountInactive = errors.New("repositories: discount not redeemable")
)
