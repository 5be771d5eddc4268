package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Pricing  *PricingHandler
	Coupon   *CouponHandler
	Settings *SettingsHandler
	Health   *HealthHandler
}

// NewApp creates the Fiber application with the standard middleware chain.
func NewApp(name string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      name,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())
	return app
}

// RegisterRoutes mounts every endpoint. Literal coupon paths are registered
// before the :code parameter route.
func RegisterRoutes(r fiber.Router, h Handlers) {
	r.Get("/health", h.Health.Check)

	api := r.Group("/api")
	api.Post("/pricing/quote", h.Pricing.Quote)

	coupons := api.Group("/coupons")
	coupons.Post("", h.Coupon.CreateCoupon)
	coupons.Post("/redeem", h.Coupon.RedeemCoupon)
	coupons.Get("/:code", h.Coupon.GetCoupon)

	settings := api.Group("/settings")
	settings.Get("/discounts", h.Settings.GetSettings)
	settings.Put("/discounts", h.Settings.UpdateSettings)
}
