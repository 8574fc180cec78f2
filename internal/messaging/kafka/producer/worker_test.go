package producer_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-leave/internal/messaging/kafka"
	"go-leave/internal/messaging/kafka/producer"
	"go-leave/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOutbox struct {
	pending []kafka.OutboxEvent
	sent    []string
	failed  map[string]string
}

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository                 { return f }
func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error { return nil }
func (f *fakeOutbox) ClaimBatch(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return f.pending, nil
}
func (f *fakeOutbox) Backlog(ctx context.Context) (map[string]int, error) {
	return map[string]int{kafka.OutboxStatusPending: len(f.pending), kafka.OutboxStatusDead: 1}, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}
func (f *fakeOutbox) MarkFailed(ctx context.Context, id string, reason string) error {
	f.failed[id] = reason
	return nil
}

type fakeWriter struct {
	messages []kafkago.Message
	failKey  string
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if string(m.Key) == w.failKey {
			return errors.New("broker unavailable")
		}
		w.messages = append(w.messages, m)
	}
	return nil
}

func TestProcessPendingEvents(t *testing.T) {
	repo := &fakeOutbox{
		failed: map[string]string{},
		pending: []kafka.OutboxEvent{
			{ID: "e-1", RequestID: "rid-1", AggregateType: "leave_request", AggregateID: "l-1",
				EventType: "leave_submitted", Topic: "leave.lifecycle.v1", Payload: []byte(`{}`)},
			{ID: "e-2", AggregateType: "leave_request", AggregateID: "l-2",
				EventType: "leave_approved", Topic: "leave.lifecycle.v1", Payload: []byte(`{}`)},
		},
	}
	writer := &fakeWriter{failKey: "l-2"}

	m := metrics.Nop()
	sent, err := producer.ProcessPendingEvents(context.Background(), repo, writer, m, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxRelayed.WithLabelValues("sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxRelayed.WithLabelValues("failed")))
	assert.Equal(t, []string{"e-1"}, repo.sent)
	assert.Equal(t, "broker unavailable", repo.failed["e-2"])

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "leave.lifecycle.v1", msg.Topic)
	assert.Equal(t, "l-1", string(msg.Key))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "leave_submitted", headers["event_type"])
	assert.Equal(t, "rid-1", headers["request_id"])
	assert.Equal(t, "e-1", headers["outbox_id"])
}

func TestProcessPendingEvents_Empty(t *testing.T) {
	sent, err := producer.ProcessPendingEvents(context.Background(), &fakeOutbox{}, &fakeWriter{}, metrics.Nop(), zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestReportBacklog(t *testing.T) {
	m := metrics.Nop()
	repo := &fakeOutbox{pending: []kafka.OutboxEvent{{ID: "e-1"}, {ID: "e-2"}}}

	require.NoError(t, producer.ReportBacklog(context.Background(), repo, m))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OutboxBacklog.WithLabelValues(kafka.OutboxStatusPending)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxBacklog.WithLabelValues(kafka.OutboxStatusDead)))
}
