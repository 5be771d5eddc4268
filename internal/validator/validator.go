package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/membership-pricing/internal/model"
)

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// Report JSON field names in validation errors so handlers can echo them to clients
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// Register custom "notblank" validator - rejects whitespace-only strings
	// This is used for fields like coupon codes and user ids that must have meaningful content
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// Register custom "servicetype" validator - accepts only known membership services
	_ = v.RegisterValidation("servicetype", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return model.ServiceType(fl.Field().String()).Valid()
	})

	// Percentage coupons cannot discount more than the whole price
	v.RegisterStructValidation(couponValueBounds, model.CreateCouponRequest{})

	return v
}

func couponValueBounds(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(model.CreateCouponRequest)
	if !ok || req.Value == nil || req.Type != model.CouponTypePercentage {
		return
	}
	if *req.Value > model.MaxCouponPercent {
		sl.ReportError(*req.Value, "value", "Value", "lte", "100")
	}
}
