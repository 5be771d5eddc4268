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

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.CouponResponse, error)
	Redeem(ctx context.Context, userID, couponCode, reference string) error
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// CreateCoupon handles POST /api/coupons requests to create a new coupon.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCouponExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("coupon_code", req.Code).Msg("failed to create coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// GetCoupon handles GET /api/coupons/:code requests to retrieve coupon details.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: code is required",
		})
	}

	coupon, err := h.service.GetByCode(c.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "coupon not found",
			})
		}
		log.Error().Err(err).Str("coupon_code", code).Msg("failed to get coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	log.Info().
		Str("coupon_code", coupon.Code).
		Int("used_count", coupon.UsedCount).
		Int("redemptions", len(coupon.RedeemedBy)).
		Msg("coupon retrieved")

	return c.JSON(coupon)
}

// RedeemCoupon handles POST /api/coupons/redeem requests to record one coupon use.
func (h *CouponHandler) RedeemCoupon(c *fiber.Ctx) error {
	var req model.RedeemCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.service.Redeem(c.Context(), req.UserID, req.CouponCode, req.Reference); err != nil {
		var couponErr *service.CouponError
		if errors.As(err, &couponErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  couponErr.Message,
				"reason": couponErr.Kind.String(),
			})
		}
		if errors.Is(err, service.ErrAlreadyRedeemed) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon already redeemed for this reference"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("user_id", req.UserID).
			Str("coupon_code", req.CouponCode).
			Str("reference", req.Reference).
			Msg("failed to redeem coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("user_id", req.UserID).
		Str("coupon_code", req.CouponCode).
		Str("reference", req.Reference).
		Msg("coupon redeemed")

	return c.Status(fiber.StatusOK).Send(nil)
}
