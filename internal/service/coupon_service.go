package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/fairyhunter13/membership-pricing/internal/model"
	"github.com/fairyhunter13/membership-pricing/pkg/database"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetCouponForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	IncrementUsage(ctx context.Context, tx database.TxQuerier, id string) error
}

// RedemptionRepositoryInterface defines the interface for redemption data access.
type RedemptionRepositoryInterface interface {
	GetUsersByCoupon(ctx context.Context, couponID string) ([]string, error)
	Insert(ctx context.Context, tx database.TxQuerier, couponID, userID, reference string) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponService provides business logic for coupon administration and redemption.
type CouponService struct {
	pool           TxBeginner
	couponRepo     CouponRepositoryInterface
	redemptionRepo RedemptionRepositoryInterface
	now            func() time.Time
}

// NewCouponService creates a new CouponService with the given pool and repositories.
func NewCouponService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, redemptionRepo RedemptionRepositoryInterface) *CouponService {
	return &CouponService{
		pool:           pool,
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		now:            time.Now,
	}
}

// NewCouponServiceWithTxBeginner creates a CouponService with a custom TxBeginner.
// Primarily used for testing.
func NewCouponServiceWithTxBeginner(pool TxBeginner, couponRepo CouponRepositoryInterface, redemptionRepo RedemptionRepositoryInterface) *CouponService {
	return &CouponService{
		pool:           pool,
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		now:            time.Now,
	}
}

// Create creates a new coupon from the request and returns it with its generated id.
// Returns ErrCouponExists if a coupon with the same code already exists.
// Returns ErrInvalidRequest if request data is nil or incomplete, or if a percentage
// coupon exceeds MaxCouponPercent.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if req == nil || req.Value == nil || req.Code == "" {
		return nil, ErrInvalidRequest
	}
	if req.Type == model.CouponTypePercentage && *req.Value > model.MaxCouponPercent {
		return nil, ErrInvalidRequest
	}

	coupon := &model.Coupon{
		ID:                 uuid.NewString(),
		Code:               req.Code,
		Value:              *req.Value,
		Type:               req.Type,
		ExpiryDate:         req.ExpiryDate,
		UsageLimit:         req.UsageLimit,
		ApplicableServices: req.ApplicableServices,
		MinAmount:          req.MinAmount,
		AllowedUsers:       req.AllowedUsers,
		Stackable:          req.Stackable,
	}
	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// GetByCode retrieves a coupon by code with the users who redeemed it.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) GetByCode(ctx context.Context, code string) (*model.CouponResponse, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	redeemedBy, err := s.redemptionRepo.GetUsersByCoupon(ctx, coupon.ID)
	if err != nil {
		return nil, fmt.Errorf("get redemptions: %w", err)
	}

	return &model.CouponResponse{
		Coupon:     *coupon,
		RedeemedBy: redeemedBy,
	}, nil
}

// Redeem atomically records one use of a coupon for a purchase reference.
// Uses SELECT FOR UPDATE to lock the coupon row during the transaction.
// Expiry, usage limit and allowed users are checked against the locked row; when several
// fail, the last one is reported.
// Returns:
//   - ErrInvalidCoupon if the coupon doesn't exist
//   - ErrCouponExpired if the coupon expired
//   - ErrCouponLimitReached if the usage limit is exhausted
//   - ErrNotValidForAccount if the user is not on the allowed list
//   - ErrAlreadyRedeemed if the reference already redeemed this coupon
func (s *CouponService) Redeem(ctx context.Context, userID, couponCode, reference string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	// 1. Lock the coupon row (SELECT FOR UPDATE)
	coupon, err := s.couponRepo.GetCouponForUpdate(ctx, tx, couponCode)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return ErrInvalidCoupon
		}
		return fmt.Errorf("get coupon for update: %w", err)
	}

	// 2. Re-check eligibility under the lock
	if cerr := s.checkRedeemable(coupon, userID); cerr != nil {
		return cerr
	}

	// 3. Insert redemption (UNIQUE constraint catches duplicates)
	err = s.redemptionRepo.Insert(ctx, tx, coupon.ID, userID, reference)
	if err != nil {
		if errors.Is(err, ErrAlreadyRedeemed) {
			return ErrAlreadyRedeemed
		}
		return fmt.Errorf("insert redemption: %w", err)
	}

	// 4. Increment usage
	err = s.couponRepo.IncrementUsage(ctx, tx, coupon.ID)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *CouponService) checkRedeemable(c *model.Coupon, userID string) *CouponError {
	var failure *CouponError

	if c.ExpiryDate != nil && s.now().After(*c.ExpiryDate) {
		failure = ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		failure = ErrCouponLimitReached
	}
	if len(c.AllowedUsers) > 0 && !lo.Contains(c.AllowedUsers, userID) {
		failure = ErrNotValidForAccount
	}

	return failure
}
