package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
	"github.com/jcmexdev/checkout-engine/internal/pkg/kafkax"
)

// Relay drains the transactional outbox into kafka. Delivery is at least
// once: an event is marked sent only after the broker acknowledged it, so a
// crash between publish and mark replays the event on the next pass.
type Relay struct {
	outbox    ports.Outbox
	client    *kafkax.Client
	interval  time.Duration
	batchSize int

	writers map[string]*kafka.Writer
}

func New(outbox ports.Outbox, client *kafkax.Client, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{
		outbox:    outbox,
		client:    client,
		interval:  interval,
		batchSize: batchSize,
		writers:   map[string]*kafka.Writer{},
	}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.closeWriters()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := r.Drain(ctx); err != nil {
				slog.ErrorContext(ctx, "outbox drain failed", "error", err)
			} else if n > 0 {
				slog.InfoContext(ctx, "outbox drained", "events", n)
			}
		}
	}
}

// Drain publishes one batch of pending events and returns how many it sent.
// It stops at the first publish failure so ordering within a topic is kept.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	events, err := r.outbox.FetchPendingOutboxEvents(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range events {
		if err := kafkax.Publish(ctx, r.writer(event.Topic), event.Key, event.Payload); err != nil {
			return sent, err
		}
		if err := r.outbox.MarkOutboxEventSent(ctx, event.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (r *Relay) writer(topic string) *kafka.Writer {
	w, ok := r.writers[topic]
	if !ok {
		w = r.client.NewWriter(topic)
		r.writers[topic] = w
	}
	return w
}

func (r *Relay) closeWriters() {
	for _, w := range r.writers {
		_ = w.Close()
	}
}
