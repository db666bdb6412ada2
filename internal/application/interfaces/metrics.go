package interfaces

import (
	"context"

	"github.com/Builder-Lawyers/execution-service/internal/domain/consts"
)

// Consume outcomes reported through Metrics.MessageConsumed.
const (
	OutcomeHandled   = "handled"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// Metrics is the observability port handed to every background component.
// JobTransitioned gets an empty from for a job that was just created.
type Metrics interface {
	MessageConsumed(ctx context.Context, eventType, outcome string)
	EventPublished(ctx context.Context, eventType string, err error)
	JobTransitioned(ctx context.Context, from, to consts.ExecutionStatus)
	LedgerPruned(ctx context.Context, table string, rows int)
}
