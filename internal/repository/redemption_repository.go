package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/membership-pricing/internal/service"
	"github.com/fairyhunter13/membership-pricing/pkg/database"
)

// RedemptionPoolInterface defines the database operations needed by RedemptionRepository.
type RedemptionPoolInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RedemptionRepository provides data access for coupon redemptions using pgx.
type RedemptionRepository struct {
	pool RedemptionPoolInterface
}

// NewRedemptionRepository creates a new RedemptionRepository with the given pool.
func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// NewRedemptionRepositoryWithPool creates a new RedemptionRepository with a custom pool interface.
// This is primarily used for testing.
func NewRedemptionRepositoryWithPool(pool RedemptionPoolInterface) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// GetUsersByCoupon retrieves the user IDs of every redemption of a coupon, oldest first.
// On success, returns an empty slice (not nil) when no redemptions exist.
// On error, returns nil and the wrapped error.
func (r *RedemptionRepository) GetUsersByCoupon(ctx context.Context, couponID string) ([]string, error) {
	query := `SELECT user_id FROM coupon_redemptions WHERE coupon_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, couponID)
	if err != nil {
		return nil, fmt.Errorf("get redemptions for coupon %s: %w", couponID, err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan redemption user_id: %w", err)
		}
		users = append(users, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redemption rows: %w", err)
	}

	// Return empty slice, not nil
	if users == nil {
		users = []string{}
	}

	return users, nil
}

// Insert inserts a new redemption record within a transaction.
// Returns service.ErrAlreadyRedeemed if the reference already redeemed this coupon.
func (r *RedemptionRepository) Insert(ctx context.Context, tx database.TxQuerier, couponID, userID, reference string) error {
	query := `INSERT INTO coupon_redemptions (coupon_id, user_id, reference) VALUES ($1, $2, $3)`

	_, err := tx.Exec(ctx, query, couponID, userID, reference)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrAlreadyRedeemed
		}
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}
