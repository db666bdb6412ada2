package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/presentation/scheduler"
	"github.com/Builder-Lawyers/execution-service/internal/testinfra"
	"github.com/Builder-Lawyers/execution-service/internal/testinfra/fakes"
	"github.com/stretchr/testify/require"
)

func newPublisher(topic *fakes.Topic, metrics *fakes.Metrics, limit int) *scheduler.OutboxPublisher {
	return scheduler.NewOutboxPublisher(uowFactory, topic, metrics,
		scheduler.PublisherConfig{Interval: 10 * time.Millisecond, Limit: limit})
}

func TestPublishSendsPendingEventsOnce(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)
	confirmPayment(t, "e1", "os-1")
	confirmPayment(t, "e2", "os-2")
	pending := loadOutbox(t)

	topic := fakes.NewTopic()
	metrics := fakes.NewMetrics()
	publisher := newPublisher(topic, metrics, 100)

	published, err := publisher.Publish(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, published)

	sent := topic.Snapshot()
	require.Len(t, sent, 2)
	for i, msg := range sent {
		require.JSONEq(t, string(pending[i].Payload), msg.Message)
		require.Equal(t, "ExecutionStarted", msg.Attributes["EventType"])
		require.Equal(t, pending[i].ID.String(), msg.Attributes["EventId"])
		_, err = time.Parse(time.RFC3339Nano, msg.Attributes["PublishedAt"])
		require.NoError(t, err)
	}
	require.Equal(t, "c-os-1", sent[0].Attributes["CorrelationId"])
	require.Equal(t, "c-os-2", sent[1].Attributes["CorrelationId"])

	for _, row := range loadOutbox(t) {
		require.True(t, row.Published)
		require.NotNil(t, row.PublishedAt)
	}
	require.Equal(t, 2, metrics.Published["ExecutionStarted"])

	published, err = publisher.Publish(ctx)
	require.NoError(t, err)
	require.Zero(t, published)
	require.Len(t, topic.Snapshot(), 2)
}

func TestPublishRespectsLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)
	confirmPayment(t, "e1", "os-1")
	confirmPayment(t, "e2", "os-2")
	confirmPayment(t, "e3", "os-3")
	pending := loadOutbox(t)

	topic := fakes.NewTopic()
	publisher := newPublisher(topic, fakes.NewMetrics(), 2)

	published, err := publisher.Publish(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, published)
	published, err = publisher.Publish(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, published)

	sent := topic.Snapshot()
	require.Len(t, sent, 3)
	for i := range sent {
		require.Equal(t, pending[i].ID.String(), sent[i].Attributes["EventId"])
	}
}

func TestPublishFailureLeavesEventPending(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)
	confirmPayment(t, "e1", "os-1")

	topic := fakes.NewTopic()
	topic.FailAll = errors.New("topic unavailable")
	metrics := fakes.NewMetrics()
	publisher := newPublisher(topic, metrics, 100)

	published, err := publisher.Publish(ctx)
	require.NoError(t, err)
	require.Zero(t, published)
	require.False(t, loadOutbox(t)[0].Published)
	require.Equal(t, 1, metrics.PublishErrs)

	topic.FailAll = nil
	published, err = publisher.Publish(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, published)
	require.True(t, loadOutbox(t)[0].Published)
}

func TestPublishFailureDoesNotBlockLaterEvents(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)
	confirmPayment(t, "e1", "os-1")
	_, err := testinfra.Pool.Exec(ctx, `INSERT INTO execution.outbox (id, event_type, payload, created_at)
		VALUES (gen_random_uuid(), 'ExecutionProgressed', '{"OsId":"os-1"}', now())`)
	require.NoError(t, err)

	topic := fakes.NewTopic()
	topic.FailOn["ExecutionStarted"] = true
	publisher := newPublisher(topic, fakes.NewMetrics(), 100)

	published, err := publisher.Publish(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, published)

	sent := topic.Snapshot()
	require.Len(t, sent, 1)
	require.Equal(t, "unknown", sent[0].Attributes["CorrelationId"])

	outbox := loadOutbox(t)
	require.False(t, outbox[0].Published)
	require.True(t, outbox[1].Published)
}

func TestConcurrentPublishersNeverSendTwice(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)
	for i := 1; i <= 5; i++ {
		confirmPayment(t, fmt.Sprintf("e%d", i), fmt.Sprintf("os-%d", i))
	}

	topic := fakes.NewTopic()
	first := newPublisher(topic, fakes.NewMetrics(), 100)
	second := newPublisher(topic, fakes.NewMetrics(), 100)

	done := make(chan int, 2)
	for _, p := range []*scheduler.OutboxPublisher{first, second} {
		go func(p *scheduler.OutboxPublisher) {
			n, err := p.Publish(ctx)
			if err != nil {
				n = -1
			}
			done <- n
		}(p)
	}
	total := <-done + <-done

	require.Equal(t, 5, total)
	seen := make(map[string]bool)
	for _, msg := range topic.Snapshot() {
		require.False(t, seen[msg.Attributes["EventId"]])
		seen[msg.Attributes["EventId"]] = true
	}
	require.Len(t, seen, 5)
}

func TestPublisherStartStopsOnCancel(t *testing.T) {
	testinfra.Reset(context.Background())
	confirmPayment(t, "e1", "os-1")
	topic := fakes.NewTopic()
	publisher := newPublisher(topic, fakes.NewMetrics(), 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- publisher.Start(ctx) }()

	require.Eventually(t, func() bool { return len(topic.Snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not stop")
	}
}
