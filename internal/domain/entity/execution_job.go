package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/domain/consts"
	"github.com/google/uuid"
)

var ErrIllegalTransition = errors.New("illegal execution transition")

const canceledPrefix = "Canceled: "

// ExecutionJob tracks the execution of one service order (OsID). There is at most one
// job per OsID; it is never deleted once created.
type ExecutionJob struct {
	ID            uuid.UUID
	OsID          string
	Status        consts.ExecutionStatus
	Attempt       int
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	FinishedAt    *time.Time
	CorrelationID *string
}

func NewExecutionJob(osID, correlationID string, now time.Time) *ExecutionJob {
	job := &ExecutionJob{
		ID:        uuid.New(),
		OsID:      osID,
		Status:    consts.ExecutionStatusQueued,
		Attempt:   1,
		CreatedAt: now,
	}
	if correlationID != "" {
		job.CorrelationID = &correlationID
	}
	return job
}

func (j *ExecutionJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// NextStatus returns the status the worker moves the job to on its next tick.
func (j *ExecutionJob) NextStatus() (consts.ExecutionStatus, error) {
	switch j.Status {
	case consts.ExecutionStatusQueued:
		return consts.ExecutionStatusDiagnosing, nil
	case consts.ExecutionStatusDiagnosing:
		return consts.ExecutionStatusRepairing, nil
	case consts.ExecutionStatusRepairing:
		return consts.ExecutionStatusFinished, nil
	default:
		return "", fmt.Errorf("%w: no worker step from %s", ErrIllegalTransition, j.Status)
	}
}

// Advance moves the job exactly one step along the pipeline and returns the previous status.
func (j *ExecutionJob) Advance(now time.Time) (consts.ExecutionStatus, error) {
	next, err := j.NextStatus()
	if err != nil {
		return j.Status, err
	}
	from := j.Status
	j.Status = next
	j.UpdatedAt = &now
	if next == consts.ExecutionStatusFinished {
		j.FinishedAt = &now
	}
	return from, nil
}

func (j *ExecutionJob) Cancel(reason string, now time.Time) error {
	if j.IsTerminal() {
		return fmt.Errorf("%w: cannot cancel a %s job", ErrIllegalTransition, j.Status)
	}
	lastError := canceledPrefix + reason
	j.Status = consts.ExecutionStatusCanceled
	j.LastError = &lastError
	j.UpdatedAt = &now
	return nil
}

func (j *ExecutionJob) Fail(cause error, now time.Time) error {
	if j.IsTerminal() {
		return fmt.Errorf("%w: cannot fail a %s job", ErrIllegalTransition, j.Status)
	}
	lastError := "unknown error"
	if cause != nil {
		lastError = cause.Error()
	}
	j.Status = consts.ExecutionStatusFailed
	j.LastError = &lastError
	j.UpdatedAt = &now
	return nil
}

// Duration is the wall time between creation and finish, zero while unfinished.
func (j *ExecutionJob) Duration() time.Duration {
	if j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(j.CreatedAt)
}

func (j *ExecutionJob) Correlation() string {
	if j.CorrelationID == nil {
		return ""
	}
	return *j.CorrelationID
}
