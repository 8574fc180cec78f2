package producer

import (
	"context"
	"time"

	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/metrics"

	"go.uber.org/zap"
)

const batchSize = 50

// ProcessOutboxEvents relays claimed batches every pollInterval until ctx is
// cancelled, refreshing the backlog gauge after each tick.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	m *metrics.Metrics,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if _, err := ProcessPendingEvents(ctx, repo, writer, m, log); err != nil {
				log.Error("process outbox events failed", zap.Error(err))
			}
			if err := ReportBacklog(ctx, repo, m); err != nil {
				log.Warn("outbox backlog query failed", zap.Error(err))
			}
		}
	}
}

// ProcessPendingEvents publishes one claimed batch and reports how many were
// sent. A failed publish is recorded on the row and does not stop the batch.
func ProcessPendingEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	m *metrics.Metrics,
	logger *zap.Logger,
) (int, error) {
	events, err := repo.ClaimBatch(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	logger.Debug("processing pending outbox events", zap.Int("count", len(events)))

	sent := 0
	for _, event := range events {
		if err := publishEvent(ctx, writer, event); err != nil {
			logger.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.String("topic", event.Topic),
				zap.Int("retry_count", event.RetryCount),
				zap.Error(err),
			)
			m.OutboxRelayed.WithLabelValues("failed").Inc()
			if markErr := repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				logger.Error("mark outbox failed failed", zap.String("outbox_id", event.ID), zap.Error(markErr))
			}
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			logger.Error("mark outbox sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
		m.OutboxRelayed.WithLabelValues("sent").Inc()

		logger.Info("outbox event sent",
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
		)
	}

	return sent, nil
}

// ReportBacklog copies the per-status outbox counts into the backlog gauge.
func ReportBacklog(ctx context.Context, repo kafka.OutboxRepository, m *metrics.Metrics) error {
	counts, err := repo.Backlog(ctx)
	if err != nil {
		return err
	}
	for status, n := range counts {
		m.OutboxBacklog.WithLabelValues(status).Set(float64(n))
	}
	return nil
}
