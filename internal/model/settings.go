package model

import "time"

// Built-in discount defaults used when the settings record or a field is missing.
const (
	DefaultReferralPercent  = 5.0
	DefaultBulkPercent      = 10.0
	DefaultBundleFixed      = int64(500)
	DefaultLoyaltyThreshold = int64(50)
)

// DiscountSettings is the resolved discount configuration.
// ReferralPercent and LoyaltyThreshold are carried for other purchase paths and are not
// consumed by price computation.
type DiscountSettings struct {
	ReferralPercent  float64 `json:"referral_percent"`
	BulkPercent      float64 `json:"bulk_percent"`
	BundleFixed      int64   `json:"bundle_fixed"`
	LoyaltyThreshold int64   `json:"loyalty_threshold"`
}

// DefaultDiscountSettings returns the built-in configuration.
func DefaultDiscountSettings() DiscountSettings {
	return DiscountSettings{
		ReferralPercent:  DefaultReferralPercent,
		BulkPercent:      DefaultBulkPercent,
		BundleFixed:      DefaultBundleFixed,
		LoyaltyThreshold: DefaultLoyaltyThreshold,
	}
}

// StoredDiscountSettings mirrors the settings record. Nil fields were never configured.
type StoredDiscountSettings struct {
	ReferralPercent  *float64  `json:"referral_percent" validate:"omitempty,gte=0,lte=100"`
	BulkPercent      *float64  `json:"bulk_percent" validate:"omitempty,gte=0,lte=100"`
	BundleFixed      *int64    `json:"bundle_fixed" validate:"omitempty,gte=0,lte=1000000000"`
	LoyaltyThreshold *int64    `json:"loyalty_threshold" validate:"omitempty,gte=0"`
	UpdatedAt        time.Time `json:"-"`
}

// Resolve substitutes the default for every field that is not configured.
func (s *StoredDiscountSettings) Resolve() DiscountSettings {
	out := DefaultDiscountSettings()
	if s == nil {
		return out
	}
	if s.ReferralPercent != nil {
		out.ReferralPercent = *s.ReferralPercent
	}
	if s.BulkPercent != nil {
		out.BulkPercent = *s.BulkPercent
	}
	if s.BundleFixed != nil {
		out.BundleFixed = *s.BundleFixed
	}
	if s.LoyaltyThreshold != nil {
		out.LoyaltyThreshold = *s.LoyaltyThreshold
	}
	return out
}
