package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyloop/progression/internal/domain"
	"github.com/studyloop/progression/internal/repository"
)

// TopicPrefix namespaces all published progression events.
const TopicPrefix = "studyloop"

// OutboxPoller polls the event_outbox table and publishes events to Kafka.
type OutboxPoller struct {
	pool      *pgxpool.Pool
	outbox    repository.OutboxRepository
	producer  *KafkaProducer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(pool *pgxpool.Pool, outbox repository.OutboxRepository, producer *KafkaProducer, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		pool:      pool,
		outbox:    outbox,
		producer:  producer,
		logger:    logger,
		interval:  500 * time.Millisecond,
		batchSize: 100,
	}
}

// Start begins polling in a goroutine. Stops when ctx is cancelled.
func (p *OutboxPoller) Start(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("outbox poller stopped")
				return
			case <-ticker.C:
				if err := p.poll(ctx); err != nil {
					p.logger.Error("outbox poll error", "error", err)
				}
			}
		}
	}()
}

// Topic returns the Kafka topic for an outbox draft, e.g.
// "studyloop.progression.milestone.claimed".
func Topic(d domain.OutboxDraft) string {
	return TopicPrefix + "." + string(d.EventType)
}

func (p *OutboxPoller) poll(ctx context.Context) error {
	events, err := p.outbox.FetchUnpublished(ctx, p.pool, p.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		msg, _ := json.Marshal(e)

		if err := p.producer.Publish(ctx, Topic(e), []byte(e.PartitionKey), msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "error", err)
			continue
		}
		published = append(published, e.EventID)
	}

	if err := p.outbox.MarkPublished(ctx, p.pool, published); err != nil {
		return err
	}

	p.logger.Debug("outbox poll complete", "published", len(published))
	return nil
}
