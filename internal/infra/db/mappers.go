package db

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/execution-service/internal/domain/consts"
	"github.com/Builder-Lawyers/execution-service/internal/domain/entity"
)

func MapJobModelToEntity(model ExecutionJob) (*entity.ExecutionJob, error) {
	status := consts.ExecutionStatus(model.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("job %s has unknown status %q", model.ID, model.Status)
	}
	return &entity.ExecutionJob{
		ID:            model.ID,
		OsID:          model.OsID,
		Status:        status,
		Attempt:       model.Attempt,
		LastError:     model.LastError,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
		FinishedAt:    model.FinishedAt,
		CorrelationID: model.CorrelationID,
	}, nil
}

func MapJobEntityToModel(job *entity.ExecutionJob) ExecutionJob {
	return ExecutionJob{
		ID:            job.ID,
		OsID:          job.OsID,
		Status:        job.Status.String(),
		Attempt:       job.Attempt,
		LastError:     job.LastError,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
		FinishedAt:    job.FinishedAt,
		CorrelationID: job.CorrelationID,
	}
}

// OutboxHeader holds the fields the publisher lifts from a payload into message attributes.
type OutboxHeader struct {
	CorrelationID string `json:"CorrelationId"`
	OsID          string `json:"OsId"`
}

func MapOutboxModelToHeader(outbox Outbox) OutboxHeader {
	var header OutboxHeader
	if err := json.Unmarshal(outbox.Payload, &header); err != nil {
		slog.Error("error unmarshaling outbox payload", "id", outbox.ID, "err", err)
		return OutboxHeader{}
	}
	return header
}
