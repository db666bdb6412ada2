package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Builder-Lawyers/execution-service/internal/testinfra"
	"github.com/Builder-Lawyers/execution-service/pkg/db"
	"github.com/stretchr/testify/require"
)

func insertInbox(ctx context.Context, uow *db.UOW, eventID string) error {
	_, err := uow.GetTx().Exec(ctx, `INSERT INTO execution.inbox (id, event_id, event_type, received_at)
		VALUES (gen_random_uuid(), $1, 'PaymentConfirmed', now())`, eventID)
	return err
}

func countInbox(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, testinfra.Pool.QueryRow(context.Background(), "SELECT count(*) FROM execution.inbox").Scan(&n))
	return n
}

func run(ctx context.Context, factory *db.UOWFactory, eventID string, fail error) (err error) {
	uow := factory.GetUoW()
	if _, err = uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Finalize(ctx, &err)

	if err = insertInbox(ctx, uow, eventID); err != nil {
		return err
	}
	return fail
}

func TestFinalizeCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)

	require.NoError(t, run(ctx, db.NewUoWFactory(testinfra.Pool), "e1", nil))
	require.Equal(t, 1, countInbox(t))
}

func TestFinalizeRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	testinfra.Reset(ctx)
	boom := errors.New("boom")

	require.ErrorIs(t, run(ctx, db.NewUoWFactory(testinfra.Pool), "e1", boom), boom)
	require.Zero(t, countInbox(t))
}

func TestFinalizeCommitsAfterCallerCancels(t *testing.T) {
	testinfra.Reset(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	factory := db.NewUoWFactory(testinfra.Pool)

	uow := factory.GetUoW()
	_, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, insertInbox(ctx, uow, "e1"))

	cancel()
	var finalErr error
	uow.Finalize(ctx, &finalErr)

	require.NoError(t, finalErr)
	require.Equal(t, 1, countInbox(t))
}

func TestCommitWithoutBegin(t *testing.T) {
	uow := db.NewUoWFactory(testinfra.Pool).GetUoW()
	require.ErrorIs(t, uow.Commit(context.Background()), db.ErrTxNotStarted)
}
