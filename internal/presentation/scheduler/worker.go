package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/Builder-Lawyers/execution-service/internal/application/events"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/domain/consts"
	"github.com/Builder-Lawyers/execution-service/internal/domain/entity"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db/repo"
	dbs "github.com/Builder-Lawyers/execution-service/pkg/db"
	"github.com/Builder-Lawyers/execution-service/pkg/env"
	shared "github.com/Builder-Lawyers/execution-service/pkg/interfaces"
	"github.com/google/uuid"
)

type WorkerConfig struct {
	Interval time.Duration
}

func NewWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Interval: env.GetDuration("WORKER_INTERVAL", 5*time.Second),
	}
}

// ExecutionWorker moves every active job one step along the pipeline per sweep.
type ExecutionWorker struct {
	uowFactory *dbs.UOWFactory
	metrics    interfaces.Metrics
	cfg        WorkerConfig
	now        func() time.Time
	// step moves a locked job to its next status and returns the previous one.
	step       func(job *entity.ExecutionJob, now time.Time) (consts.ExecutionStatus, error)
}

func NewExecutionWorker(uowFactory *dbs.UOWFactory, metrics interfaces.Metrics, cfg WorkerConfig) *ExecutionWorker {
	return &ExecutionWorker{
		uowFactory: uowFactory,
		metrics:    metrics,
		cfg:        cfg,
		now:        utcNow,
		step:       (*entity.ExecutionJob).Advance,
	}
}

func (w *ExecutionWorker) Start(ctx context.Context) error {
	return runEvery(ctx, "execution worker", w.cfg.Interval, func(ctx context.Context) {
		if _, err := w.Sweep(ctx); err != nil {
			slog.Error("error in execution worker", "err", err)
		}
	})
}

// Sweep advances each active job in its own transaction and returns how many moved.
// A job whose transition fails is marked Failed and the sweep goes on.
func (w *ExecutionWorker) Sweep(ctx context.Context) (int, error) {
	ids, err := w.listActive(ctx)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		// one job is either fully advanced or fully failed, shutdown or not
		jobCtx := context.WithoutCancel(ctx)

		from, to, err := w.advance(jobCtx, id)
		if err != nil {
			slog.Error("error advancing job", "jobId", id, "err", err)
			if failErr := w.fail(jobCtx, id, err); failErr != nil {
				slog.Error("error marking job failed", "jobId", id, "err", failErr)
			}
			continue
		}
		if from == to {
			continue
		}
		w.metrics.JobTransitioned(jobCtx, from, to)
		advanced++
	}
	return advanced, nil
}

func (w *ExecutionWorker) listActive(ctx context.Context) (ids []uuid.UUID, err error) {
	uow := w.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Finalize(ctx, &err)

	return repo.NewJobRepo(tx).ListActiveJobIDs(ctx)
}

// advance reports from == to when the job was left alone, e.g. canceled after listing.
func (w *ExecutionWorker) advance(ctx context.Context, id uuid.UUID) (from, to consts.ExecutionStatus, err error) {
	uow := w.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return "", "", err
	}
	defer uow.Finalize(ctx, &err)

	jobRepo := repo.NewJobRepo(tx)
	job, err := jobRepo.GetJobForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", "", nil
		}
		return "", "", err
	}
	if job.IsTerminal() {
		slog.Debug("job became terminal before its step", "jobId", id, "status", job.Status)
		return job.Status, job.Status, nil
	}

	now := w.now()
	from, err = w.step(job, now)
	if err != nil {
		return from, from, err
	}
	if err = jobRepo.UpdateJob(ctx, job); err != nil {
		return from, from, err
	}
	if err = repo.NewEventRepo(tx).Enqueue(ctx, transitionEvent(job), now); err != nil {
		return from, from, err
	}

	slog.Info("job advanced", "jobId", job.ID, "osId", job.OsID, "from", from, "to", job.Status,
		"correlationId", job.Correlation())
	return from, job.Status, nil
}

func (w *ExecutionWorker) fail(ctx context.Context, id uuid.UUID, cause error) (err error) {
	uow := w.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Finalize(ctx, &err)

	jobRepo := repo.NewJobRepo(tx)
	job, err := jobRepo.GetJobForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return nil
	}

	from := job.Status
	if err = job.Fail(cause, w.now()); err != nil {
		return err
	}
	if err = jobRepo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("error saving failed job, %w", err)
	}
	w.metrics.JobTransitioned(ctx, from, job.Status)
	slog.Warn("job failed", "jobId", job.ID, "osId", job.OsID, "from", from, "cause", cause,
		"correlationId", job.Correlation())
	return nil
}

func transitionEvent(job *entity.ExecutionJob) shared.Event {
	if job.Status == consts.ExecutionStatusFinished {
		return events.ExecutionFinished{
			OsID:            job.OsID,
			CorrelationID:   job.Correlation(),
			JobID:           job.ID,
			Status:          job.Status.String(),
			FinishedAt:      *job.FinishedAt,
			DurationSeconds: job.Duration().Seconds(),
		}
	}
	return events.ExecutionProgressed{
		OsID:          job.OsID,
		CorrelationID: job.Correlation(),
		JobID:         job.ID,
		Status:        job.Status.String(),
		UpdatedAt:     *job.UpdatedAt,
	}
}
