package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/membership-pricing/internal/model"
	"github.com/fairyhunter13/membership-pricing/internal/service"
)

// PricingServiceInterface defines the interface for price computation.
type PricingServiceInterface interface {
	ComputePrice(ctx context.Context, req model.PurchaseRequest) (*model.PricingResult, error)
}

// PricingHandler handles HTTP requests for price quotes.
type PricingHandler struct {
	service   PricingServiceInterface
	validator *validator.Validate
}

// NewPricingHandler creates a new PricingHandler with the given service and validator.
func NewPricingHandler(svc PricingServiceInterface, v *validator.Validate) *PricingHandler {
	return &PricingHandler{service: svc, validator: v}
}

// Quote handles POST /api/pricing/quote requests.
// Coupon failures are returned as 422 with the user-facing message and the failure kind.
func (h *PricingHandler) Quote(c *fiber.Ctx) error {
	var req model.QuoteRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	result, err := h.service.ComputePrice(c.Context(), req.PurchaseRequest())
	if err != nil {
		var couponErr *service.CouponError
		if errors.As(err, &couponErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  couponErr.Message,
				"reason": couponErr.Kind.String(),
			})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("user_id", req.UserID).
			Str("service_type", string(req.ServiceType)).
			Str("coupon_code", req.CouponCode).
			Msg("failed to compute price")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("user_id", req.UserID).
		Str("service_type", string(req.ServiceType)).
		Int("discounts", len(result.Discounts)).
		Int64("final_price", result.FinalPrice).
		Msg("price quoted")

	return c.JSON(result)
}
