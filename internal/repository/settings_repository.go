package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/membership-pricing/internal/model"
)

// settingsRecordID is the key of the singleton discount settings row.
const settingsRecordID = "discounts"

// SettingsRepository provides access to the discount settings record.
type SettingsRepository struct {
	pool PoolInterface
}

// NewSettingsRepository creates a new SettingsRepository with the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// NewSettingsRepositoryWithPool creates a new SettingsRepository with a custom pool interface.
// This is primarily used for testing.
func NewSettingsRepositoryWithPool(pool PoolInterface) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get reads the settings record. Returns nil, nil if it has never been written.
func (r *SettingsRepository) Get(ctx context.Context) (*model.StoredDiscountSettings, error) {
	query := `SELECT referral_percent, bulk_percent, bundle_fixed, loyalty_threshold, updated_at
		FROM discount_settings WHERE id = $1`

	var s model.StoredDiscountSettings
	err := r.pool.QueryRow(ctx, query, settingsRecordID).Scan(
		&s.ReferralPercent,
		&s.BulkPercent,
		&s.BundleFixed,
		&s.LoyaltyThreshold,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get discount settings: %w", err)
	}
	return &s, nil
}

// Upsert replaces the settings record. Nil fields are stored as NULL.
func (r *SettingsRepository) Upsert(ctx context.Context, s *model.StoredDiscountSettings) error {
	query := `INSERT INTO discount_settings (id, referral_percent, bulk_percent, bundle_fixed, loyalty_threshold, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			referral_percent = EXCLUDED.referral_percent,
			bulk_percent = EXCLUDED.bulk_percent,
			bundle_fixed = EXCLUDED.bundle_fixed,
			loyalty_threshold = EXCLUDED.loyalty_threshold,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query, settingsRecordID,
		s.ReferralPercent, s.BulkPercent, s.BundleFixed, s.LoyaltyThreshold)
	if err != nil {
		return fmt.Errorf("upsert discount settings: %w", err)
	}
	return nil
}
