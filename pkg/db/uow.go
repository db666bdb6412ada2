package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/Builder-Lawyers/execution-service/pkg/interfaces"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ interfaces.UoW = (*UOW)(nil)

var ErrTxNotStarted = errors.New("transaction is not started yet")

type UOW struct {
	Pool *pgxpool.Pool
	Tx   pgx.Tx
}

func (u *UOW) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := u.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("can't begin tx, %w", err)
	}
	u.Tx = tx
	return u.Tx, nil
}

func (u *UOW) GetTx() pgx.Tx {
	return u.Tx
}

func (u *UOW) Commit(ctx context.Context) error {
	if u.Tx == nil {
		return ErrTxNotStarted
	}
	return u.Tx.Commit(ctx)
}

func (u *UOW) Rollback(ctx context.Context) error {
	if u.Tx == nil {
		return ErrTxNotStarted
	}
	err := u.Tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// Finalize commits when *err is nil and rolls back otherwise. Meant to be deferred
// right after Begin with a named error result.
func (u *UOW) Finalize(ctx context.Context, err *error) {
	if u.Tx == nil {
		return
	}
	// the outcome of a started unit of work must not depend on the caller's shutdown
	ctx = context.WithoutCancel(ctx)
	if *err != nil {
		if rbErr := u.Rollback(ctx); rbErr != nil {
			*err = errors.Join(*err, fmt.Errorf("rollback failed, %w", rbErr))
		}
		return
	}
	if cErr := u.Commit(ctx); cErr != nil {
		*err = fmt.Errorf("commit failed, %w", cErr)
	}
}

type UOWFactory struct {
	Pool *pgxpool.Pool
}

func (u *UOWFactory) GetUoW() *UOW {
	return &UOW{
		Pool: u.Pool,
	}
}

func NewUoWFactory(pool *pgxpool.Pool) *UOWFactory {
	return &UOWFactory{
		Pool: pool,
	}
}
