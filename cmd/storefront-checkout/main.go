package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cache"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cart"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/checkout"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/health"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/ratelimit"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/storefront"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/telemetry"
	sendGrid "github.com/aaravmahajanofficial/storefront-checkout/pkg/sendgrid"
	stripeClient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Otel, cfg.Env, logger)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis setup
	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisConnect)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Redis connection closed")
		}
	}()

	storefrontClient := storefront.NewClient(cfg.Storefront, logger)

	carts := cart.NewRegistry(storefrontClient, cfg.Cart, logger)
	go carts.Run(ctx)

	deps := checkout.Dependencies{
		Carts:         carts,
		Gateway:       storefrontClient,
		Confirmations: cache.NewConfirmations(cache.NewRedisCache(redisClient, &cfg.Cache), cfg.Checkout.ConfirmationTTL),
		Limiter:       ratelimit.New(redisClient, cfg.RateConfig, "order_attempts"),
		Currency:      cfg.Stripe.Currency,
		Logger:        logger,
	}

	endpoints := &health.Endpoints{Storefront: storefrontClient}

	if cfg.Stripe.APIKey != "" {
		payments := stripeClient.NewStripeClient(cfg.Stripe.APIKey)
		deps.Payments = payments
		endpoints.Stripe = payments
	} else {
		slog.Warn("Stripe is not configured, card orders will not get a payment intent")
	}

	if cfg.SendGrid.APIKey != "" {
		deps.Mailer = sendGrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	} else {
		slog.Warn("SendGrid is not configured, confirmation emails are disabled")
	}

	checkoutService := checkout.NewService(deps)

	healthHandler, err := health.NewHealthHandler(cfg, endpoints)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.Router{
		Auth:     middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey)),
		Cart:     handlers.NewCartHandler(carts),
		Checkout: handlers.NewCheckoutHandler(checkoutService),
		Session:  handlers.NewSessionHandler(carts, checkoutService),
		Health:   healthHandler.Handler(),
	}

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           router.Handler(cfg.Otel.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr), slog.String("env", cfg.Env))

	go func() { // Starts the HTTP server in a new goroutine so it doesn't block the main thread.

		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	// Late storefront responses for torn-down carts are discarded.
	carts.Close()

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Failed to flush traces", slog.String("error", err.Error()))
	}

}
