package metrics

import (
	"context"
	"fmt"

	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/domain/consts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "execution-service"

	// createdFromLabel stands in for the missing previous status of a new job.
	createdFromLabel = "none"
)

type ExecutionMetrics struct {
	consumed    metric.Int64Counter
	published   metric.Int64Counter
	transitions metric.Int64Counter
	pruned      metric.Int64Counter
}

var _ interfaces.Metrics = (*ExecutionMetrics)(nil)

func NewExecutionMetrics(provider metric.MeterProvider) (*ExecutionMetrics, error) {
	meter := provider.Meter(meterName)

	consumed, err := meter.Int64Counter("execution.inbox.messages",
		metric.WithDescription("Inbound messages by event type and outcome"),
		metric.WithUnit("{message}"))
	if err != nil {
		return nil, fmt.Errorf("create execution.inbox.messages counter: %w", err)
	}
	published, err := meter.Int64Counter("execution.outbox.published",
		metric.WithDescription("Outbox publish attempts by event type and status"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("create execution.outbox.published counter: %w", err)
	}
	transitions, err := meter.Int64Counter("execution.job.transitions",
		metric.WithDescription("Execution job status transitions"),
		metric.WithUnit("{transition}"))
	if err != nil {
		return nil, fmt.Errorf("create execution.job.transitions counter: %w", err)
	}
	pruned, err := meter.Int64Counter("execution.ledger.pruned",
		metric.WithDescription("Ledger rows removed by retention"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, fmt.Errorf("create execution.ledger.pruned counter: %w", err)
	}

	return &ExecutionMetrics{
		consumed:    consumed,
		published:   published,
		transitions: transitions,
		pruned:      pruned,
	}, nil
}

func (m *ExecutionMetrics) MessageConsumed(ctx context.Context, eventType, outcome string) {
	m.consumed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	))
}

func (m *ExecutionMetrics) EventPublished(ctx context.Context, eventType string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("status", status),
	))
}

func (m *ExecutionMetrics) JobTransitioned(ctx context.Context, from, to consts.ExecutionStatus) {
	fromLabel := from.String()
	if from == "" {
		fromLabel = createdFromLabel
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", fromLabel),
		attribute.String("to", to.String()),
	))
}

func (m *ExecutionMetrics) LedgerPruned(ctx context.Context, table string, rows int) {
	if rows <= 0 {
		return
	}
	m.pruned.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("table", table)))
}
