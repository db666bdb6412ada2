package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ExecutionJob struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	OsID          string     `db:"os_id" json:"osId"`
	Status        string     `db:"status" json:"status"`
	Attempt       int        `db:"attempt" json:"attempt"`
	LastError     *string    `db:"last_error" json:"lastError,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
	FinishedAt    *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
	CorrelationID *string    `db:"correlation_id" json:"correlationId,omitempty"`
}

type Inbox struct {
	ID         uuid.UUID `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"eventId"`
	EventType  string    `db:"event_type" json:"eventType"`
	ReceivedAt time.Time `db:"received_at" json:"receivedAt"`
}

type Outbox struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Seq         int64           `db:"seq" json:"seq"`
	Event       string          `db:"event_type" json:"eventType"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	Published   bool            `db:"published" json:"published"`
	PublishedAt *time.Time      `db:"published_at" json:"publishedAt,omitempty"`
}
