package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/fairyhunter13/membership-pricing/internal/model"
	"github.com/fairyhunter13/membership-pricing/internal/service"
	"github.com/fairyhunter13/membership-pricing/pkg/database"
)

const uniqueViolation = "23505"

const couponColumns = `id, code, value, type, expiry_date, usage_limit, used_count,
	applicable_services, min_amount, allowed_users, stackable, created_at`

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert inserts a new coupon into the database. used_count starts at zero.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, value, type, expiry_date, usage_limit, used_count,
			applicable_services, min_amount, allowed_users, stackable)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10)`,
		coupon.ID, coupon.Code, coupon.Value, coupon.Type, coupon.ExpiryDate, coupon.UsageLimit,
		serviceStrings(coupon.ApplicableServices), coupon.MinAmount, coupon.AllowedUsers, coupon.Stackable)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its exact, case-sensitive code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// GetCouponForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// This locks the row until the transaction completes.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetCouponForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 FOR UPDATE`

	coupon, err := scanCoupon(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", code, err)
	}
	return coupon, nil
}

// IncrementUsage increments the used_count of a coupon by 1.
// Must be called within a transaction after locking the row.
func (r *CouponRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, id string) error {
	query := `UPDATE coupons SET used_count = used_count + 1 WHERE id = $1`

	_, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment usage for %s: %w", id, err)
	}
	return nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var (
		coupon   model.Coupon
		services []string
	)
	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Value,
		&coupon.Type,
		&coupon.ExpiryDate,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&services,
		&coupon.MinAmount,
		&coupon.AllowedUsers,
		&coupon.Stackable,
		&coupon.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(services) > 0 {
		coupon.ApplicableServices = lo.Map(services, func(s string, _ int) model.ServiceType {
			return model.ServiceType(s)
		})
	}
	return &coupon, nil
}

func serviceStrings(services []model.ServiceType) []string {
	if len(services) == 0 {
		return nil
	}
	return lo.Map(services, func(s model.ServiceType, _ int) string { return string(s) })
}
