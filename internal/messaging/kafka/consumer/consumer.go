package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-leave/internal/domain"
	"go-leave/internal/events"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type LeadNotifier interface {
	NotifyLeads(ctx context.Context, actor domain.Actor, id string) (leave.NotifyResult, error)
}

const maxBackoff = 30 * time.Second

type options struct {
	backoff func(attempt int) time.Duration
}

type Option func(*options)

// WithBackoff sets the wait before retry number attempt (1-based).
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(o *options) { o.backoff = fn }
}

func defaultBackoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 500 * time.Millisecond
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// ConsumeLeaveLifecycle notifies project leads for every leave_submitted
// event. Redelivery is harmless because NotifyLeads is idempotent per request.
// A transient NotifyLeads failure is retried in place with backoff until it
// succeeds or ctx is cancelled; a cancelled message stays uncommitted.
func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader MessageReader,
	notifier LeadNotifier,
	logger *zap.Logger,
	opts ...Option,
) {
	o := options{backoff: defaultBackoff}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}

		if !handleLeaveEvent(ctx, msg, notifier, o.backoff, log) {
			log.Info("leave lifecycle consumer stopped mid-retry", zap.Int64("offset", msg.Offset))
			return
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit leave lifecycle message failed", zap.Error(err))
		}
	}
}

// handleLeaveEvent reports whether the message is done with and may be committed.
func handleLeaveEvent(
	ctx context.Context,
	msg kafkago.Message,
	notifier LeadNotifier,
	backoff func(int) time.Duration,
	log *zap.Logger,
) bool {
	var event events.LeaveEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("decode leave event failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		return true
	}

	if event.EventType != events.LeaveSubmitted {
		log.Debug("leave event ignored",
			zap.String("event_type", event.EventType),
			zap.String("leave_id", event.LeaveID),
		)
		return true
	}

	var (
		res leave.NotifyResult
		err error
	)
	for attempt := 1; ; attempt++ {
		res, err = notifier.NotifyLeads(ctx, domain.SystemActor(), event.LeaveID)
		if err == nil {
			break
		}
		if errors.Is(err, leaveerrors.ErrLeaveNotFound) || errors.Is(err, leaveerrors.ErrInvalidLeaveID) {
			log.Warn("leave event references unknown request, skipping",
				zap.String("leave_id", event.LeaveID),
				zap.Error(err),
			)
			return true
		}

		wait := backoff(attempt)
		log.Error("notify leads from leave event failed, retrying",
			zap.String("leave_id", event.LeaveID),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}

	log.Info("project leads notified from leave event",
		zap.String("leave_id", event.LeaveID),
		zap.Int("created", res.Created),
		zap.Bool("already_notified", res.AlreadyNotified),
	)
	return true
}
