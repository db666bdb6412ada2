package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inbound events, consumed from the billing queue.

type PaymentConfirmed struct {
	EventID       string          `json:"EventId"`
	OsID          string          `json:"OsId"`
	PaymentID     string          `json:"PaymentId"`
	Amount        decimal.Decimal `json:"Amount"`
	Status        string          `json:"Status"`
	CorrelationID string          `json:"CorrelationId"`
}

func (e PaymentConfirmed) GetType() string {
	return "PaymentConfirmed"
}

type OsCanceled struct {
	EventID       string `json:"EventId"`
	OsID          string `json:"OsId"`
	Reason        string `json:"Reason"`
	CorrelationID string `json:"CorrelationId"`
}

func (e OsCanceled) GetType() string {
	return "OsCanceled"
}

// Outbound events, written to the outbox and published to the execution topic.

type ExecutionStarted struct {
	OsID          string    `json:"OsId"`
	CorrelationID string    `json:"CorrelationId"`
	JobID         uuid.UUID `json:"JobId"`
	Status        string    `json:"Status"`
	CreatedAt     time.Time `json:"CreatedAt"`
}

func (e ExecutionStarted) GetType() string {
	return "ExecutionStarted"
}

type ExecutionProgressed struct {
	OsID          string    `json:"OsId"`
	CorrelationID string    `json:"CorrelationId"`
	JobID         uuid.UUID `json:"JobId"`
	Status        string    `json:"Status"`
	UpdatedAt     time.Time `json:"UpdatedAt"`
}

func (e ExecutionProgressed) GetType() string {
	return "ExecutionProgressed"
}

type ExecutionFinished struct {
	OsID            string    `json:"OsId"`
	CorrelationID   string    `json:"CorrelationId"`
	JobID           uuid.UUID `json:"JobId"`
	Status          string    `json:"Status"`
	FinishedAt      time.Time `json:"FinishedAt"`
	DurationSeconds float64   `json:"DurationSeconds"`
}

func (e ExecutionFinished) GetType() string {
	return "ExecutionFinished"
}

type ExecutionCanceled struct {
	OsID          string    `json:"OsId"`
	CorrelationID string    `json:"CorrelationId"`
	JobID         uuid.UUID `json:"JobId"`
	Status        string    `json:"Status"`
	Reason        string    `json:"Reason"`
	CanceledAt    time.Time `json:"CanceledAt"`
}

func (e ExecutionCanceled) GetType() string {
	return "ExecutionCanceled"
}
