package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/Builder-Lawyers/execution-service/internal/application/events"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/domain/entity"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db/repo"
	dbs "github.com/Builder-Lawyers/execution-service/pkg/db"
)

// PaymentConfirmed opens an execution job for a paid service order.
type PaymentConfirmed struct {
	uowFactory *dbs.UOWFactory
	metrics    interfaces.Metrics
	now        func() time.Time
}

func NewPaymentConfirmed(uowFactory *dbs.UOWFactory, metrics interfaces.Metrics) *PaymentConfirmed {
	return &PaymentConfirmed{uowFactory: uowFactory, metrics: metrics, now: utcNow}
}

// Handle applies the event at most once per EventId. The bool result reports whether the
// event had already been processed.
func (h *PaymentConfirmed) Handle(ctx context.Context, event events.PaymentConfirmed) (duplicate bool, err error) {
	uow := h.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer uow.Finalize(ctx, &err)

	inboxRepo := repo.NewInboxRepo(tx)
	exists, err := inboxRepo.IsDuplicate(ctx, event.EventID)
	if err != nil {
		return false, err
	}
	if exists {
		slog.Info("duplicate event skipped", "eventId", event.EventID, "type", event.GetType(),
			"correlationId", event.CorrelationID)
		return true, nil
	}

	now := h.now()
	err = inboxRepo.Record(ctx, db.Inbox{EventID: event.EventID, EventType: event.GetType(), ReceivedAt: now})
	if err != nil {
		if errs.IsConflict(err) {
			slog.Info("event recorded concurrently", "eventId", event.EventID, "correlationId", event.CorrelationID)
			return true, nil
		}
		return false, err
	}

	jobRepo := repo.NewJobRepo(tx)
	existing, err := jobRepo.GetJobByOsID(ctx, event.OsID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return false, fmt.Errorf("error looking up job, %w", err)
	}
	if existing != nil {
		slog.Info("job already exists for os", "osId", event.OsID, "jobId", existing.ID,
			"status", existing.Status, "correlationId", event.CorrelationID)
		return false, nil
	}

	job := entity.NewExecutionJob(event.OsID, event.CorrelationID, now)
	err = jobRepo.InsertJob(ctx, job)
	if err != nil {
		if errs.IsConflict(err) {
			// another event for the same os created the job first
			slog.Info("job created concurrently", "osId", event.OsID, "correlationId", event.CorrelationID)
			return false, nil
		}
		return false, err
	}

	err = repo.NewEventRepo(tx).Enqueue(ctx, events.ExecutionStarted{
		OsID:          job.OsID,
		CorrelationID: job.Correlation(),
		JobID:         job.ID,
		Status:        job.Status.String(),
		CreatedAt:     job.CreatedAt,
	}, now)
	if err != nil {
		return false, err
	}

	h.metrics.JobTransitioned(ctx, "", job.Status)
	slog.Info("execution job queued", "osId", job.OsID, "jobId", job.ID, "paymentId", event.PaymentID,
		"amount", event.Amount.String(), "correlationId", event.CorrelationID)
	return false, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
