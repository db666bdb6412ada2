package testinfra

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/infra/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var Pool *pgxpool.Pool

func init() {
	Pool = SetupDB()
}

func SetupDB() *pgxpool.Pool {
	ctx := context.Background()

	pgC, err := postgres.Run(ctx,
		"postgres:17.2-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Panicf("start postgres: %v", err)
	}

	pgDSN, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Panicf("postgres dsn: %v", err)
	}

	pool, err := pgxpool.New(ctx, pgDSN)
	if err != nil {
		log.Panicf("pgxpool connect: %v", err)
	}

	ok := false
	for i := 0; i < 20; i++ {
		slog.Info("ping db", "try", i)
		ctxPing, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		err = pool.Ping(ctxPing)
		cancel()
		if err == nil {
			ok = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ok {
		log.Panic("db did not respond after 20 attempts")
	}

	if err = db.ApplySchema(ctx, pool); err != nil {
		log.Panicf("create tables: %v", err)
	}

	return pool
}

// Reset empties every table, so each test starts from a clean ledger.
func Reset(ctx context.Context) {
	_, err := Pool.Exec(ctx, "TRUNCATE execution.jobs, execution.inbox, execution.outbox")
	if err != nil {
		log.Panicf("err truncating tables %v", err)
	}
}
