package query

import (
	"context"

	"github.com/Builder-Lawyers/execution-service/internal/application/dto"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db/repo"
	dbs "github.com/Builder-Lawyers/execution-service/pkg/db"
)

type GetExecution struct {
	uowFactory *dbs.UOWFactory
}

func NewGetExecution(uowFactory *dbs.UOWFactory) *GetExecution {
	return &GetExecution{uowFactory: uowFactory}
}

// Query returns errs.ErrNotFound when no job exists for osID.
func (q *GetExecution) Query(ctx context.Context, osID string) (dto.ExecutionResponse, error) {
	uow := q.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return dto.ExecutionResponse{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	job, err := repo.NewJobRepo(tx).GetJobByOsID(ctx, osID)
	if err != nil {
		return dto.ExecutionResponse{}, err
	}

	return dto.ExecutionResponse{
		JobID:         job.ID,
		OsID:          job.OsID,
		Status:        job.Status.String(),
		Attempt:       job.Attempt,
		LastError:     job.LastError,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
		FinishedAt:    job.FinishedAt,
		CorrelationID: job.CorrelationID,
	}, nil
}
