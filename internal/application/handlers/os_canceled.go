package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/Builder-Lawyers/execution-service/internal/application/events"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/domain/consts"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db/repo"
	dbs "github.com/Builder-Lawyers/execution-service/pkg/db"
)

// OsCanceled stops the active execution job of a canceled service order.
type OsCanceled struct {
	uowFactory *dbs.UOWFactory
	metrics    interfaces.Metrics
	now        func() time.Time
}

func NewOsCanceled(uowFactory *dbs.UOWFactory, metrics interfaces.Metrics) *OsCanceled {
	return &OsCanceled{uowFactory: uowFactory, metrics: metrics, now: utcNow}
}

func (h *OsCanceled) Handle(ctx context.Context, event events.OsCanceled) (duplicate bool, err error) {
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
	job, err := jobRepo.GetActiveJobByOsIDForUpdate(ctx, event.OsID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			slog.Info("no active job to cancel", "osId", event.OsID, "correlationId", event.CorrelationID)
			return false, nil
		}
		return false, err
	}

	from := job.Status
	if err = job.Cancel(event.Reason, now); err != nil {
		return false, err
	}
	if err = jobRepo.UpdateJob(ctx, job); err != nil {
		return false, err
	}

	correlationID := job.Correlation()
	if correlationID == "" {
		correlationID = event.CorrelationID
	}
	err = repo.NewEventRepo(tx).Enqueue(ctx, events.ExecutionCanceled{
		OsID:          job.OsID,
		CorrelationID: correlationID,
		JobID:         job.ID,
		Status:        consts.ExecutionStatusCanceled.String(),
		Reason:        event.Reason,
		CanceledAt:    now,
	}, now)
	if err != nil {
		return false, err
	}

	h.metrics.JobTransitioned(ctx, from, job.Status)
	slog.Info("execution job canceled", "osId", job.OsID, "jobId", job.ID, "from", from,
		"reason", event.Reason, "correlationId", correlationID)
	return false, nil
}
