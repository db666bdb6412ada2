package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/domain/consts"
	"github.com/Builder-Lawyers/execution-service/internal/domain/entity"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db"
	shared "github.com/Builder-Lawyers/execution-service/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const (
	jobColumns    = "id, os_id, status, attempt, last_error, created_at, updated_at, finished_at, correlation_id"
	inboxColumns  = "id, event_id, event_type, received_at"
	outboxColumns = "id, seq, event_type, payload, created_at, published, published_at"
)

func activeStatuses() []string {
	statuses := make([]string, 0, len(consts.ActiveExecutionStatuses))
	for _, s := range consts.ActiveExecutionStatuses {
		statuses = append(statuses, s.String())
	}
	return statuses
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// limitArg maps a non-positive limit to NULL, which postgres reads as LIMIT ALL.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

type JobRepo struct {
	tx pgx.Tx
}

var _ interfaces.JobRepo = (*JobRepo)(nil)

func NewJobRepo(tx pgx.Tx) *JobRepo {
	return &JobRepo{tx: tx}
}

func (j *JobRepo) queryOne(ctx context.Context, query string, args ...any) (*entity.ExecutionJob, error) {
	rows, err := j.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	model, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[db.ExecutionJob])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return db.MapJobModelToEntity(model)
}

func (j *JobRepo) GetJobByOsID(ctx context.Context, osID string) (*entity.ExecutionJob, error) {
	query := "SELECT " + jobColumns + " FROM execution.jobs WHERE os_id = $1"
	return j.queryOne(ctx, query, osID)
}

func (j *JobRepo) GetActiveJobByOsIDForUpdate(ctx context.Context, osID string) (*entity.ExecutionJob, error) {
	query := "SELECT " + jobColumns + " FROM execution.jobs WHERE os_id = $1 AND status = ANY($2) FOR UPDATE"
	return j.queryOne(ctx, query, osID, activeStatuses())
}

func (j *JobRepo) GetJobForUpdate(ctx context.Context, id uuid.UUID) (*entity.ExecutionJob, error) {
	query := "SELECT " + jobColumns + " FROM execution.jobs WHERE id = $1 FOR UPDATE"
	return j.queryOne(ctx, query, id)
}

func (j *JobRepo) ListActiveJobIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := j.tx.Query(ctx, "SELECT id FROM execution.jobs WHERE status = ANY($1) ORDER BY created_at", activeStatuses())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (j *JobRepo) InsertJob(ctx context.Context, job *entity.ExecutionJob) error {
	model := db.MapJobEntityToModel(job)
	tag, err := j.tx.Exec(ctx, `INSERT INTO execution.jobs (`+jobColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (os_id) DO NOTHING`,
		model.ID, model.OsID, model.Status, model.Attempt, model.LastError, model.CreatedAt,
		model.UpdatedAt, model.FinishedAt, model.CorrelationID)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ConflictError{Err: err}
		}
		return fmt.Errorf("err inserting job, %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ConflictError{Err: fmt.Errorf("job for os %s already exists", job.OsID)}
	}
	return nil
}

func (j *JobRepo) UpdateJob(ctx context.Context, job *entity.ExecutionJob) error {
	model := db.MapJobEntityToModel(job)
	tag, err := j.tx.Exec(ctx, `UPDATE execution.jobs
			SET status = $2, attempt = $3, last_error = $4, updated_at = $5, finished_at = $6
			WHERE id = $1`,
		model.ID, model.Status, model.Attempt, model.LastError, model.UpdatedAt, model.FinishedAt)
	if err != nil {
		return fmt.Errorf("err updating job, %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", job.ID, errs.ErrNotFound)
	}
	return nil
}

type InboxRepo struct {
	tx pgx.Tx
}

var _ interfaces.InboxRepo = (*InboxRepo)(nil)

func NewInboxRepo(tx pgx.Tx) *InboxRepo {
	return &InboxRepo{tx: tx}
}

func (i *InboxRepo) IsDuplicate(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := i.tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM execution.inbox WHERE event_id = $1)", eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("err checking inbox, %w", err)
	}
	return exists, nil
}

// Record inserts the event id. A concurrent delivery that got there first surfaces as
// errs.ConflictError without aborting the surrounding transaction.
func (i *InboxRepo) Record(ctx context.Context, event db.Inbox) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	tag, err := i.tx.Exec(ctx, `INSERT INTO execution.inbox (`+inboxColumns+`)
			VALUES ($1,$2,$3,$4) ON CONFLICT (event_id) DO NOTHING`,
		event.ID, event.EventID, event.EventType, event.ReceivedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ConflictError{Err: err}
		}
		return fmt.Errorf("err recording inbox event, %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ConflictError{Err: fmt.Errorf("event %s already recorded", event.EventID)}
	}
	return nil
}

func (i *InboxRepo) DeleteReceivedBefore(ctx context.Context, before time.Time, limit int) ([]db.Inbox, error) {
	rows, err := i.tx.Query(ctx, `DELETE FROM execution.inbox WHERE id IN (
			SELECT id FROM execution.inbox WHERE received_at < $1 ORDER BY received_at LIMIT $2 FOR UPDATE SKIP LOCKED
		) RETURNING `+inboxColumns, before, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("err pruning inbox, %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[db.Inbox])
}

type EventRepo struct {
	tx pgx.Tx
}

var _ interfaces.EventRepo = (*EventRepo)(nil)

func NewEventRepo(tx pgx.Tx) *EventRepo {
	return &EventRepo{tx: tx}
}

func (e *EventRepo) Enqueue(ctx context.Context, event shared.Event, createdAt time.Time) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("err marshalling event payload, %w", err)
	}
	outbox := db.Outbox{
		ID:        uuid.New(),
		Event:     event.GetType(),
		Payload:   json.RawMessage(payload),
		CreatedAt: createdAt,
	}
	_, err = e.tx.Exec(ctx, "INSERT INTO execution.outbox (id, event_type, payload, created_at, published) VALUES ($1,$2,$3,$4,false)",
		outbox.ID, outbox.Event, outbox.Payload, outbox.CreatedAt)
	if err != nil {
		return fmt.Errorf("err inserting a new event, %w", err)
	}
	return nil
}

// ListUnpublished returns pending events in insertion order. Rows are locked for the
// lifetime of the transaction and rows locked by another publisher are skipped.
func (e *EventRepo) ListUnpublished(ctx context.Context, limit int) ([]db.Outbox, error) {
	rows, err := e.tx.Query(ctx, "SELECT "+outboxColumns+` FROM execution.outbox
			WHERE published = false ORDER BY seq LIMIT $1 FOR UPDATE SKIP LOCKED`, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("err listing unpublished events, %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[db.Outbox])
}

func (e *EventRepo) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	_, err := e.tx.Exec(ctx, "UPDATE execution.outbox SET published = true, published_at = $2 WHERE id = $1 AND published = false",
		id, publishedAt)
	if err != nil {
		return fmt.Errorf("err marking event %s published, %w", id, err)
	}
	return nil
}

func (e *EventRepo) DeletePublishedBefore(ctx context.Context, before time.Time, limit int) ([]db.Outbox, error) {
	rows, err := e.tx.Query(ctx, `DELETE FROM execution.outbox WHERE id IN (
			SELECT id FROM execution.outbox WHERE published = true AND published_at < $1 ORDER BY seq LIMIT $2 FOR UPDATE SKIP LOCKED
		) RETURNING `+outboxColumns, before, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("err pruning outbox, %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[db.Outbox])
}
