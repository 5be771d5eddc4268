package model

import "time"

// CouponTypePercentage marks a coupon whose value is a percentage of the base price.
// Any other type is treated as a flat amount.
const CouponTypePercentage = "percentage"

// MaxCouponPercent is the largest value a percentage coupon may carry.
const MaxCouponPercent = 100.0

// Coupon represents a coupon document. Optional constraints are nil or empty when unset.
type Coupon struct {
	ID                 string        `json:"id"`
	Code               string        `json:"code"`
	Value              float64       `json:"value"`
	Type               string        `json:"type"`
	ExpiryDate         *time.Time    `json:"expiry_date,omitempty"`
	UsageLimit         *int          `json:"usage_limit,omitempty"`
	UsedCount          int           `json:"used_count"`
	ApplicableServices []ServiceType `json:"applicable_services,omitempty"`
	MinAmount          *int64        `json:"min_amount,omitempty"`
	AllowedUsers       []string      `json:"allowed_users,omitempty"`
	Stackable          bool          `json:"stackable"`
	CreatedAt          time.Time     `json:"-"` // Not exposed in API
}

// CouponResponse is the API response DTO for GET /api/coupons/:code
type CouponResponse struct {
	Coupon
	RedeemedBy []string `json:"redeemed_by"`
}

// CreateCouponRequest is the DTO for creating a coupon. A percentage value is further
// bounded by MaxCouponPercent.
type CreateCouponRequest struct {
	Code               string        `json:"code" validate:"required,notblank,max=64"`
	Value              *float64      `json:"value" validate:"required,gte=0,lte=1000000000"`
	Type               string        `json:"type" validate:"required,oneof=percentage fixed"`
	ExpiryDate         *time.Time    `json:"expiry_date"`
	UsageLimit         *int          `json:"usage_limit" validate:"omitempty,gte=1"`
	ApplicableServices []ServiceType `json:"applicable_services" validate:"omitempty,dive,servicetype"`
	MinAmount          *int64        `json:"min_amount" validate:"omitempty,gte=0"`
	AllowedUsers       []string      `json:"allowed_users" validate:"omitempty,dive,notblank,max=255"`
	Stackable          bool          `json:"stackable"`
}

// RedeemCouponRequest is the DTO for recording a coupon redemption
type RedeemCouponRequest struct {
	UserID     string `json:"user_id" validate:"required,notblank,max=255"`
	CouponCode string `json:"coupon_code" validate:"required,notblank,max=64"`
	Reference  string `json:"reference" validate:"required,notblank,max=255"`
}
