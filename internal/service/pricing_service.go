package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/membership-pricing/internal/model"
)

// SettingsLoader supplies the discount configuration for one evaluation.
type SettingsLoader interface {
	Load(ctx context.Context) (model.DiscountSettings, error)
}

// UserRepositoryInterface defines the interface for user profile lookups.
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.UserProfile, error)
}

// CouponFinder looks up a coupon by its exact code. Returns nil, nil when no coupon matches.
type CouponFinder interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
}

// PricingService computes discounted prices for service purchases and renewals.
// It only reads from its collaborators and is safe for concurrent use.
type PricingService struct {
	settings SettingsLoader
	users    UserRepositoryInterface
	coupons  CouponFinder
	now      func() time.Time
}

// NewPricingService creates a PricingService using the wall clock.
func NewPricingService(settings SettingsLoader, users UserRepositoryInterface, coupons CouponFinder) *PricingService {
	return NewPricingServiceWithClock(settings, users, coupons, time.Now)
}

// NewPricingServiceWithClock creates a PricingService with a custom clock for expiry checks.
// Primarily used for testing.
func NewPricingServiceWithClock(settings SettingsLoader, users UserRepositoryInterface, coupons CouponFinder, now func() time.Time) *PricingService {
	return &PricingService{
		settings: settings,
		users:    users,
		coupons:  coupons,
		now:      now,
	}
}

// ComputePrice evaluates automatic and coupon discounts for req.
// Returns:
//   - ErrInvalidRequest if req is out of bounds
//   - a *CouponError if the coupon is missing or ineligible
//   - a wrapped error if the coupon store fails
func (s *PricingService) ComputePrice(ctx context.Context, req model.PurchaseRequest) (*model.PricingResult, error) {
	if req.UserID == "" || !req.ServiceType.Valid() || req.Months < 1 || req.BasePrice < 0 {
		return nil, ErrInvalidRequest
	}

	settings := s.loadSettings(ctx)
	discounts := make([]model.Discount, 0, 3)

	// 1. Bulk discount
	if req.Months >= model.BulkMinMonths {
		discounts = append(discounts, model.Discount{
			ID:     model.DiscountIDBulk,
			Name:   fmt.Sprintf("Bulk discount (%d months)", req.Months),
			Amount: percentOf(req.BasePrice, settings.BulkPercent),
			Type:   model.DiscountTypeAutomated,
		})
	}

	// 2. Bundle discount
	if d, ok := s.bundleDiscount(ctx, req, settings); ok {
		discounts = append(discounts, d)
	}

	// 3. Coupon discount
	if req.CouponCode != "" {
		coupon, err := s.coupons.GetByCode(ctx, req.CouponCode)
		if err != nil {
			return nil, fmt.Errorf("get coupon: %w", err)
		}
		if coupon == nil {
			return nil, ErrInvalidCoupon
		}
		if cerr := s.checkCoupon(coupon, req); cerr != nil {
			return nil, cerr
		}
		if !coupon.Stackable && len(discounts) > 0 {
			discounts = discounts[:0]
		}
		discounts = append(discounts, model.Discount{
			ID:     coupon.ID,
			Name:   fmt.Sprintf("Coupon %s", coupon.Code),
			Amount: couponAmount(coupon, req.BasePrice),
			Type:   model.DiscountTypeCoupon,
			Code:   coupon.Code,
			DocID:  coupon.ID,
		})
	}

	// 4. Aggregate
	total := totalOf(discounts)
	return &model.PricingResult{
		BasePrice:     req.BasePrice,
		Discounts:     discounts,
		TotalDiscount: total,
		FinalPrice:    req.BasePrice - min(total, req.BasePrice),
	}, nil
}

// loadSettings never fails; a store error degrades to the built-in defaults.
func (s *PricingService) loadSettings(ctx context.Context) model.DiscountSettings {
	if s.settings == nil {
		return model.DefaultDiscountSettings()
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("discount settings unavailable, using defaults")
		return model.DefaultDiscountSettings()
	}
	return settings
}

func (s *PricingService) bundleDiscount(ctx context.Context, req model.PurchaseRequest, settings model.DiscountSettings) (model.Discount, bool) {
	if req.ServiceType != model.ServiceHostel && req.ServiceType != model.ServiceReadingRoom {
		return model.Discount{}, false
	}
	if s.users == nil {
		return model.Discount{}, false
	}
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil || user == nil {
		return model.Discount{}, false
	}

	var reason string
	switch {
	case req.ServiceType == model.ServiceHostel && user.HasActiveSeat():
		reason = "active reading room seat"
	case req.ServiceType == model.ServiceReadingRoom && user.HasActiveHostelRoom():
		reason = "active hostel room"
	default:
		return model.Discount{}, false
	}
	return model.Discount{
		ID:     model.DiscountIDBundle,
		Name:   fmt.Sprintf("Bundle discount (%s)", reason),
		Amount: capAmount(decimal.NewFromInt(settings.BundleFixed), req.BasePrice),
		Type:   model.DiscountTypeAutomated,
	}, true
}

// checkCoupon runs every eligibility check in order. When several fail, the last failure
// is the one reported.
func (s *PricingService) checkCoupon(c *model.Coupon, req model.PurchaseRequest) *CouponError {
	var failure *CouponError

	if c.ExpiryDate != nil && s.now().After(*c.ExpiryDate) {
		failure = ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		failure = ErrCouponLimitReached
	}
	if len(c.ApplicableServices) > 0 && !lo.Contains(c.ApplicableServices, req.ServiceType) {
		failure = ErrNotApplicableForService
	}
	if c.MinAmount != nil && req.BasePrice < *c.MinAmount {
		failure = minSpendError(*c.MinAmount)
	}
	if len(c.AllowedUsers) > 0 && !lo.Contains(c.AllowedUsers, req.UserID) {
		failure = ErrNotValidForAccount
	}

	return failure
}

func couponAmount(c *model.Coupon, basePrice int64) int64 {
	if c.Type == model.CouponTypePercentage {
		return percentOf(basePrice, c.Value)
	}
	return capAmount(decimal.NewFromFloat(c.Value), basePrice)
}

var (
	hundred  = decimal.NewFromInt(100)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// percentOf returns base × percent / 100 rounded half away from zero to whole units,
// bounded by capAmount.
func percentOf(base int64, percent float64) int64 {
	amount := decimal.NewFromInt(base).Mul(decimal.NewFromFloat(percent)).Div(hundred)
	return capAmount(amount, base)
}

// capAmount rounds d to whole units and bounds it to [0, base]. A single line item
// never exceeds the price being charged.
func capAmount(d decimal.Decimal, base int64) int64 {
	d = d.Round(0)
	if d.Sign() <= 0 {
		return 0
	}
	if b := decimal.NewFromInt(base); d.GreaterThan(b) {
		return base
	}
	return d.IntPart()
}

// totalOf adds the line items in decimal and saturates at math.MaxInt64.
func totalOf(discounts []model.Discount) int64 {
	total := lo.Reduce(discounts, func(acc decimal.Decimal, d model.Discount, _ int) decimal.Decimal {
		return acc.Add(decimal.NewFromInt(d.Amount))
	}, decimal.Zero)
	if total.GreaterThan(maxInt64) {
		return math.MaxInt64
	}
	return total.IntPart()
}
