package model

// ServiceType is the category of membership being purchased.
type ServiceType string

const (
	ServiceHostel      ServiceType = "hostel"
	ServiceReadingRoom ServiceType = "readingRoom"
	ServiceCanteen     ServiceType = "canteen"
)

// Valid reports whether s is one of the known service types.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceHostel, ServiceReadingRoom, ServiceCanteen:
		return true
	}
	return false
}

// Discount types.
const (
	DiscountTypeAutomated = "automated"
	DiscountTypeCoupon    = "coupon"
)

// Automatic discount identifiers.
const (
	DiscountIDBulk   = "auto_bulk"
	DiscountIDBundle = "auto_bundle"
)

// BulkMinMonths is the smallest purchase length that earns the bulk discount.
const BulkMinMonths = 6

// PurchaseRequest describes one pricing evaluation.
type PurchaseRequest struct {
	UserID      string
	ServiceType ServiceType
	CouponCode  string
	Months      int
	BasePrice   int64
}

// QuoteRequest is the DTO for POST /api/pricing/quote
type QuoteRequest struct {
	UserID      string      `json:"user_id" validate:"required,notblank,max=255"`
	ServiceType ServiceType `json:"service_type" validate:"required,servicetype"`
	CouponCode  string      `json:"coupon_code" validate:"max=64"`
	Months      *int        `json:"months" validate:"required,gte=1"`
	BasePrice   *int64      `json:"base_price" validate:"required,gte=0"`
}

// PurchaseRequest converts the DTO. Callers must validate first.
func (q *QuoteRequest) PurchaseRequest() PurchaseRequest {
	req := PurchaseRequest{
		UserID:      q.UserID,
		ServiceType: q.ServiceType,
		CouponCode:  q.CouponCode,
	}
	if q.Months != nil {
		req.Months = *q.Months
	}
	if q.BasePrice != nil {
		req.BasePrice = *q.BasePrice
	}
	return req
}

// Discount is a single line item subtracted from the base price.
type Discount struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
	Code   string `json:"code,omitempty"`
	DocID  string `json:"doc_id,omitempty"`
}

// PricingResult is the outcome of a pricing evaluation.
type PricingResult struct {
	BasePrice     int64      `json:"base_price"`
	Discounts     []Discount `json:"discounts"`
	TotalDiscount int64      `json:"total_discount"`
	FinalPrice    int64      `json:"final_price"`
}
