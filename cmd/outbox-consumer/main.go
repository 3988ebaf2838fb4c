// Command outbox-consumer tails the published progression events and logs
// them. It doubles as a smoke test for the outbox pipeline and as a
// template for downstream consumers (notifications, analytics).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/studyloop/progression/internal/domain"
	"github.com/studyloop/progression/internal/infra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := infra.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if !cfg.KafkaEnabled {
		logger.Error("KAFKA_ENABLED must be true for the outbox consumer")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	topics := []string{
		infra.TopicPrefix + "." + string(domain.EventProgressionCreated),
		infra.TopicPrefix + "." + string(domain.EventEnergyConsumed),
		infra.TopicPrefix + "." + string(domain.EventStreakRecorded),
		infra.TopicPrefix + "." + string(domain.EventMilestoneClaimed),
	}

	var wg sync.WaitGroup
	for _, topic := range topics {
		consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topic, "progression-outbox-consumer", true, logger)
		wg.Add(1)
		go func(topic string, c *infra.KafkaConsumer) {
			defer wg.Done()
			defer c.Close()
			consume(ctx, topic, c, logger)
		}(topic, consumer)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	wg.Wait()
	logger.Info("outbox consumer stopped")
}

func consume(ctx context.Context, topic string, c *infra.KafkaConsumer, logger *slog.Logger) {
	logger.Info("consuming", "topic", topic)
	for {
		msg, err := c.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("read message", "topic", topic, "error", err)
			continue
		}

		var event domain.OutboxDraft
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("malformed event", "topic", topic, "error", err)
			continue
		}

		logger.Info("event received",
			"topic", topic,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"aggregate_id", event.AggregateID,
			"occurred_at", event.OccurredAt,
		)
	}
}
