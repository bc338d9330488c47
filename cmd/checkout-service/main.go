package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/checkout-engine/internal/checkout/app"
	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/adapters/authz"
	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/adapters/identity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/adapters/sqlite"
	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/httpx"
	"github.com/jcmexdev/checkout-engine/internal/pkg/cache"
	"github.com/jcmexdev/checkout-engine/internal/pkg/metrics"
	"github.com/jcmexdev/checkout-engine/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger("checkout-service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "checkout-service"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	store, err := sqlite.Open(getEnv("DB_PATH", "checkout.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	redisCache := cache.NewRedisCache(getEnv("REDIS_ADDR", "redis-cache:6379"), "checkout")
	resolver := authz.NewCachedResolver(store, redisCache, mustDuration("CAPABILITY_CACHE_TTL", 5*time.Minute))
	tokenIdentity := identity.NewTokenIdentity(store)

	shippingCost := mustDecimal("SHIPPING_COST", "0")
	tax := mustDecimal("TAX_AMOUNT", "0")

	serverMetrics := metrics.NewServerMetrics("api")
	locks := app.NewUserLocks()
	handler := httpx.NewHandler(
		app.NewCartService(store, locks),
		app.NewCheckoutService(store, locks, shippingCost, tax),
		app.NewOrderService(store),
		app.NewVoucherService(store),
		app.NewUserService(store, app.DefaultRoleHook(resolver)),
		serverMetrics,
	)

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           httpx.NewRouter(handler, tokenIdentity, resolver, serverMetrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("checkout service running", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to serve", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func mustDecimal(key, fallback string) decimal.Decimal {
	raw := getEnv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		slog.Error("invalid decimal in environment", "key", key, "value", raw)
		os.Exit(1)
	}
	return d
}

func mustDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Error("invalid duration in environment", "key", key, "value", raw)
		os.Exit(1)
	}
	return d
}
