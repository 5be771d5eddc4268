package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/membership-pricing/internal/model"
)

// SettingsServiceInterface defines the interface for discount settings administration.
type SettingsServiceInterface interface {
	Load(ctx context.Context) (model.DiscountSettings, error)
	Update(ctx context.Context, settings *model.StoredDiscountSettings) (model.DiscountSettings, error)
}

// SettingsHandler handles HTTP requests for discount settings.
type SettingsHandler struct {
	service   SettingsServiceInterface
	validator *validator.Validate
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(svc SettingsServiceInterface, v *validator.Validate) *SettingsHandler {
	return &SettingsHandler{service: svc, validator: v}
}

// GetSettings handles GET /api/settings/discounts. Unset fields are reported with their defaults.
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.service.Load(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load discount settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(settings)
}

// UpdateSettings handles PUT /api/settings/discounts. Omitted fields fall back to defaults.
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req model.StoredDiscountSettings

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	settings, err := h.service.Update(c.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("failed to update discount settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Float64("bulk_percent", settings.BulkPercent).
		Int64("bundle_fixed", settings.BundleFixed).
		Msg("discount settings updated")

	return c.JSON(settings)
}
