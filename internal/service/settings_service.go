package service

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/membership-pricing/internal/model"
)

const settingsCacheKey = "discount_settings"

// SettingsRepositoryInterface defines the interface for the discount settings record.
type SettingsRepositoryInterface interface {
	Get(ctx context.Context) (*model.StoredDiscountSettings, error)
	Upsert(ctx context.Context, settings *model.StoredDiscountSettings) error
}

// SettingsService loads and updates discount settings. It implements SettingsLoader.
type SettingsService struct {
	repo  SettingsRepositoryInterface
	cache *gocache.Cache
	ttl   time.Duration
}

// NewSettingsService creates a SettingsService. A ttl of zero reads the store on every Load.
func NewSettingsService(repo SettingsRepositoryInterface, ttl time.Duration) *SettingsService {
	s := &SettingsService{repo: repo, ttl: ttl}
	if ttl > 0 {
		s.cache = gocache.New(ttl, 2*ttl)
	}
	return s
}

// Load returns the resolved settings, substituting defaults for missing fields.
// A missing record is not an error. Store failures are returned and never cached.
func (s *SettingsService) Load(ctx context.Context) (model.DiscountSettings, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(settingsCacheKey); ok {
			return v.(model.DiscountSettings), nil
		}
	}

	stored, err := s.repo.Get(ctx)
	if err != nil {
		return model.DiscountSettings{}, fmt.Errorf("get discount settings: %w", err)
	}
	if stored == nil {
		log.Debug().Msg("no discount settings record, using defaults")
	}

	settings := stored.Resolve()
	if s.cache != nil {
		s.cache.SetDefault(settingsCacheKey, settings)
	}
	return settings, nil
}

// Update stores the given settings record and drops any cached copy.
// Returns ErrInvalidRequest if settings is nil.
func (s *SettingsService) Update(ctx context.Context, settings *model.StoredDiscountSettings) (model.DiscountSettings, error) {
	if settings == nil {
		return model.DiscountSettings{}, ErrInvalidRequest
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return model.DiscountSettings{}, fmt.Errorf("upsert discount settings: %w", err)
	}
	if s.cache != nil {
		s.cache.Delete(settingsCacheKey)
	}
	return settings.Resolve(), nil
}

// StaticSettingsLoader always returns the same settings.
type StaticSettingsLoader struct {
	Settings model.DiscountSettings
}

// Load implements SettingsLoader.
func (l StaticSettingsLoader) Load(context.Context) (model.DiscountSettings, error) {
	return l.Settings, nil
}
