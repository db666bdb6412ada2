package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var Schema string

type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// ApplySchema creates the execution schema and its tables when missing.
func ApplySchema(ctx context.Context, conn Execer) error {
	if _, err := conn.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("error applying schema, %w", err)
	}
	return nil
}
