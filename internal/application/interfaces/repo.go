package interfaces

import (
	"context"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/domain/entity"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db"
	shared "github.com/Builder-Lawyers/execution-service/pkg/interfaces"
	"github.com/google/uuid"
)

type JobRepo interface {
	GetJobByOsID(ctx context.Context, osID string) (*entity.ExecutionJob, error)
	GetActiveJobByOsIDForUpdate(ctx context.Context, osID string) (*entity.ExecutionJob, error)
	GetJobForUpdate(ctx context.Context, id uuid.UUID) (*entity.ExecutionJob, error)
	ListActiveJobIDs(ctx context.Context) ([]uuid.UUID, error)
	InsertJob(ctx context.Context, job *entity.ExecutionJob) error
	UpdateJob(ctx context.Context, job *entity.ExecutionJob) error
}

type InboxRepo interface {
	IsDuplicate(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, event db.Inbox) error
	DeleteReceivedBefore(ctx context.Context, before time.Time, limit int) ([]db.Inbox, error)
}

type EventRepo interface {
	Enqueue(ctx context.Context, event shared.Event, createdAt time.Time) error
	ListUnpublished(ctx context.Context, limit int) ([]db.Outbox, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error
	DeletePublishedBefore(ctx context.Context, before time.Time, limit int) ([]db.Outbox, error)
}
