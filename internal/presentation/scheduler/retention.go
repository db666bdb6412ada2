package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/internal/infra/db/repo"
	dbs "github.com/Builder-Lawyers/execution-service/pkg/db"
	"github.com/Builder-Lawyers/execution-service/pkg/env"
)

const (
	tableOutbox = "outbox"
	tableInbox  = "inbox"
)

type RetentionConfig struct {
	Interval  time.Duration
	OutboxTTL time.Duration
	InboxTTL  time.Duration
	Prefix    string
}

func NewRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Interval:  env.GetDuration("RETENTION_INTERVAL", time.Hour),
		OutboxTTL: env.GetDuration("OUTBOX_TTL", 7*24*time.Hour),
		InboxTTL:  env.GetDuration("INBOX_TTL", 30*24*time.Hour),
		Prefix:    env.GetEnv("ARCHIVE_PREFIX", "execution-ledger"),
	}
}

type PruneResult struct {
	Outbox int
	Inbox  int
}

// LedgerRetention removes published outbox rows and inbox rows past their TTL.
// With an archive set, the removed rows are uploaded as JSON Lines before the delete commits.
type LedgerRetention struct {
	uowFactory *dbs.UOWFactory
	archive    interfaces.Archive
	metrics    interfaces.Metrics
	cfg        RetentionConfig
	now        func() time.Time
}

// NewLedgerRetention takes a nil archive when archiving is disabled.
func NewLedgerRetention(uowFactory *dbs.UOWFactory, archive interfaces.Archive, metrics interfaces.Metrics,
	cfg RetentionConfig,
) *LedgerRetention {
	return &LedgerRetention{uowFactory: uowFactory, archive: archive, metrics: metrics, cfg: cfg, now: utcNow}
}

func (r *LedgerRetention) Start(ctx context.Context) error {
	return runEvery(ctx, "ledger retention", r.cfg.Interval, func(ctx context.Context) {
		if _, err := r.Prune(ctx); err != nil {
			slog.Error("error in ledger retention", "err", err)
		}
	})
}

func (r *LedgerRetention) Prune(ctx context.Context) (result PruneResult, err error) {
	ctx = context.WithoutCancel(ctx)
	now := r.now()

	uow := r.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer uow.Finalize(ctx, &err)

	outbox, err := repo.NewEventRepo(tx).DeletePublishedBefore(ctx, now.Add(-r.cfg.OutboxTTL), 0)
	if err != nil {
		return result, err
	}
	inbox, err := repo.NewInboxRepo(tx).DeleteReceivedBefore(ctx, now.Add(-r.cfg.InboxTTL), 0)
	if err != nil {
		return result, err
	}

	if err = archiveRows(ctx, r, tableOutbox, outbox, now); err != nil {
		return result, err
	}
	if err = archiveRows(ctx, r, tableInbox, inbox, now); err != nil {
		return result, err
	}

	result = PruneResult{Outbox: len(outbox), Inbox: len(inbox)}
	r.metrics.LedgerPruned(ctx, tableOutbox, result.Outbox)
	r.metrics.LedgerPruned(ctx, tableInbox, result.Inbox)
	if result.Outbox > 0 || result.Inbox > 0 {
		slog.Info("ledger pruned", "outbox", result.Outbox, "inbox", result.Inbox, "archived", r.archive != nil)
	}
	return result, nil
}

func (r *LedgerRetention) objectKey(table string, now time.Time) string {
	return path.Join(r.cfg.Prefix, table, now.Format("20060102T150405.000000000Z")+".jsonl")
}

func archiveRows[T any](ctx context.Context, r *LedgerRetention, table string, rows []T, now time.Time) error {
	if r.archive == nil || len(rows) == 0 {
		return nil
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := encoder.Encode(row); err != nil {
			return fmt.Errorf("err encoding %s row, %w", table, err)
		}
	}
	key := r.objectKey(table, now)
	if err := r.archive.Put(ctx, key, buf.Bytes()); err != nil {
		return fmt.Errorf("err archiving %s rows to %s, %w", table, key, err)
	}
	return nil
}
