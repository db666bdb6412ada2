package dto

import (
	"time"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ExecutionResponse struct {
	JobID         uuid.UUID  `json:"jobId"`
	OsID          string     `json:"osId"`
	Status        string     `json:"status"`
	Attempt       int        `json:"attempt"`
	LastError     *string    `json:"lastError,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	CorrelationID *string    `json:"correlationId,omitempty"`
}
