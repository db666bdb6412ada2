package query

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthCheck struct {
	db Pinger
}

func NewHealthCheck(db Pinger) *HealthCheck {
	return &HealthCheck{db: db}
}

func (q *HealthCheck) Query(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return q.db.Ping(ctx)
}
