package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/membership-pricing/internal/config"
	"github.com/fairyhunter13/membership-pricing/internal/handler"
	"github.com/fairyhunter13/membership-pricing/internal/repository"
	"github.com/fairyhunter13/membership-pricing/internal/service"
	"github.com/fairyhunter13/membership-pricing/internal/validator"
	"github.com/fairyhunter13/membership-pricing/pkg/database"
)

const serviceName = "membership-pricing"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()
	retry := database.DefaultRetryPolicy()
	retry.Attempts = cfg.DB.ConnectRetries
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), retry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	app := handler.NewApp("Membership Pricing Service")
	validate := validator.New()

	// Repositories
	couponRepo := repository.NewCouponRepository(pool)
	redemptionRepo := repository.NewRedemptionRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Services
	settingsService := service.NewSettingsService(settingsRepo, cfg.Pricing.SettingsCacheTTL)
	pricingService := service.NewPricingService(settingsService, userRepo, couponRepo)
	couponService := service.NewCouponService(pool, couponRepo, redemptionRepo)

	handler.RegisterRoutes(app, handler.Handlers{
		Pricing:  handler.NewPricingHandler(pricingService, validate),
		Coupon:   handler.NewCouponHandler(couponService, validate),
		Settings: handler.NewSettingsHandler(settingsService, validate),
		Health:   handler.NewHealthHandler(pool),
	})

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdown(app, pool, time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
}

// shutdown drains in-flight requests, then closes the pool even if draining timed out.
func shutdown(app *fiber.App, pool *pgxpool.Pool, timeout time.Duration) {
	log.Info().Dur("timeout", timeout).Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	pool.Close()
	log.Info().Msg("server stopped")
}

// initLogger configures the global zerolog logger from cfg.Log.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	if cfg.Log.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}
	log.Logger = zerolog.New(out).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}
