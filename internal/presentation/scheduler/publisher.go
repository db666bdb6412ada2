package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db/repo"
	dbs "github.com/Builder-Lawyers/execution-service/pkg/db"
	"github.com/Builder-Lawyers/execution-service/pkg/env"
)

const unknownCorrelationID = "unknown"

type PublisherConfig struct {
	Interval time.Duration
	Limit    int
}

func NewPublisherConfig() PublisherConfig {
	return PublisherConfig{
		Interval: env.GetDuration("PUBLISHER_INTERVAL", 5*time.Second),
		Limit:    env.GetInt("PUBLISHER_LIMIT", 100),
	}
}

// OutboxPublisher drains unpublished outbox rows to the execution topic in insertion order.
type OutboxPublisher struct {
	uowFactory *dbs.UOWFactory
	topic      interfaces.Topic
	metrics    interfaces.Metrics
	cfg        PublisherConfig
	now        func() time.Time
}

func NewOutboxPublisher(uowFactory *dbs.UOWFactory, topic interfaces.Topic, metrics interfaces.Metrics,
	cfg PublisherConfig,
) *OutboxPublisher {
	return &OutboxPublisher{uowFactory: uowFactory, topic: topic, metrics: metrics, cfg: cfg, now: utcNow}
}

func (p *OutboxPublisher) Start(ctx context.Context) error {
	return runEvery(ctx, "outbox publisher", p.cfg.Interval, func(ctx context.Context) {
		if _, err := p.Publish(ctx); err != nil {
			slog.Error("error in outbox publisher", "err", err)
		}
	})
}

// Publish sends one batch. Rows are locked with SKIP LOCKED for the whole batch, so
// concurrent publishers split the backlog instead of sending a row twice. A row whose
// publish fails stays unpublished for the next tick.
func (p *OutboxPublisher) Publish(ctx context.Context) (published int, err error) {
	ctx = context.WithoutCancel(ctx)

	uow := p.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer uow.Finalize(ctx, &err)

	eventRepo := repo.NewEventRepo(tx)
	pending, err := eventRepo.ListUnpublished(ctx, p.cfg.Limit)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		slog.Debug("no events to publish")
		return 0, nil
	}

	for _, event := range pending {
		header := db.MapOutboxModelToHeader(event)
		correlationID := header.CorrelationID
		if correlationID == "" {
			correlationID = unknownCorrelationID
		}
		now := p.now()

		messageID, pubErr := p.topic.Publish(ctx, string(event.Payload), map[string]string{
			interfaces.AttrEventType:     event.Event,
			interfaces.AttrEventID:       event.ID.String(),
			interfaces.AttrCorrelationID: correlationID,
			interfaces.AttrPublishedAt:   now.Format(time.RFC3339Nano),
		})
		p.metrics.EventPublished(ctx, event.Event, pubErr)
		if pubErr != nil {
			log := slog.Error
			if errs.IsRetryable(pubErr) {
				log = slog.Warn
			}
			log("error publishing event, left for the next tick", "id", event.ID, "type", event.Event,
				"correlationId", correlationID, "err", pubErr)
			continue
		}

		if err = eventRepo.MarkPublished(ctx, event.ID, now); err != nil {
			return published, fmt.Errorf("event %s published as %s but not marked, %w", event.ID, messageID, err)
		}
		published++
		slog.Info("published event", "id", event.ID, "type", event.Event, "messageId", messageID,
			"correlationId", correlationID)
	}

	return published, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
