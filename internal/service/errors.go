package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCouponExists is returned when attempting to create a coupon whose code already exists
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAlreadyRedeemed is returned when a purchase reference already redeemed the coupon
	ErrAlreadyRedeemed = errors.New("coupon already redeemed for this reference")
)

// CouponFailureKind classifies why a coupon could not be applied.
type CouponFailureKind int

const (
	InvalidCoupon CouponFailureKind = iota + 1
	CouponExpired
	CouponLimitReached
	NotApplicableForService
	MinSpendRequired
	NotValidForAccount
)

func (k CouponFailureKind) String() string {
	switch k {
	case InvalidCoupon:
		return "InvalidCoupon"
	case CouponExpired:
		return "CouponExpired"
	case CouponLimitReached:
		return "CouponLimitReached"
	case NotApplicableForService:
		return "NotApplicableForService"
	case MinSpendRequired:
		return "MinSpendRequired"
	case NotValidForAccount:
		return "NotValidForAccount"
	default:
		return fmt.Sprintf("CouponFailureKind(%d)", int(k))
	}
}

// CouponError is returned when a coupon is missing or ineligible.
// Message is safe to show to the end user.
type CouponError struct {
	Kind    CouponFailureKind
	Message string
}

func (e *CouponError) Error() string {
	return e.Message
}

// Is matches any CouponError of the same kind, so the sentinels below work with errors.Is
// regardless of message.
func (e *CouponError) Is(target error) bool {
	t, ok := target.(*CouponError)
	return ok && t.Kind == e.Kind
}

// Coupon failure sentinels, one per kind.
var (
	ErrInvalidCoupon           = &CouponError{Kind: InvalidCoupon, Message: "Invalid coupon code"}
	ErrCouponExpired           = &CouponError{Kind: CouponExpired, Message: "Coupon expired"}
	ErrCouponLimitReached      = &CouponError{Kind: CouponLimitReached, Message: "Coupon usage limit reached"}
	ErrNotApplicableForService = &CouponError{Kind: NotApplicableForService, Message: "Coupon not applicable for this service"}
	ErrMinSpendRequired        = &CouponError{Kind: MinSpendRequired, Message: "Minimum spend required"}
	ErrNotValidForAccount      = &CouponError{Kind: NotValidForAccount, Message: "Coupon not valid for your account"}
)

func minSpendError(minAmount int64) *CouponError {
	return &CouponError{Kind: MinSpendRequired, Message: fmt.Sprintf("Minimum spend of %d required", minAmount)}
}
