package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/adapters/sqlite"
	"github.com/jcmexdev/checkout-engine/internal/checkout/relay"
	"github.com/jcmexdev/checkout-engine/internal/pkg/kafkax"
	"github.com/jcmexdev/checkout-engine/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger("outbox-relay")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := kafkax.NewClient(getEnv("KAFKA_BROKERS", ""))
	if !client.Enabled() {
		slog.Error("KAFKA_BROKERS is empty, nothing to relay to")
		os.Exit(1)
	}

	store, err := sqlite.Open(getEnv("DB_PATH", "checkout.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	interval, err := time.ParseDuration(getEnv("RELAY_INTERVAL", "1s"))
	if err != nil {
		slog.Error("invalid RELAY_INTERVAL", "error", err)
		os.Exit(1)
	}
	batchSize, err := strconv.Atoi(getEnv("RELAY_BATCH_SIZE", "100"))
	if err != nil {
		slog.Error("invalid RELAY_BATCH_SIZE", "error", err)
		os.Exit(1)
	}

	slog.Info("outbox relay running", "brokers", client.Brokers, "interval", interval)

	r := relay.New(store, client, interval, batchSize)
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
