package repository

import (
	"context"
	"time"

	"crypto-analyzer/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS asset_snapshots (
    asset_id        TEXT        NOT NULL,
    symbol          TEXT        NOT NULL,
    name            TEXT        NOT NULL,
    image_url       TEXT        NOT NULL DEFAULT '',
    current_price   NUMERIC     NOT NULL,
    market_cap      NUMERIC     NOT NULL,
    market_cap_rank INTEGER     NOT NULL,
    change_24h_pct  DOUBLE PRECISION NOT NULL DEFAULT 0,
    change_7d_pct   DOUBLE PRECISION NOT NULL DEFAULT 0,
    change_30d_pct  DOUBLE PRECISION NOT NULL DEFAULT 0,
    recorded_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_asset_snapshots_recorded_at
    ON asset_snapshots (recorded_at DESC);

CREATE INDEX IF NOT EXISTS idx_asset_snapshots_asset_time
    ON asset_snapshots (asset_id, recorded_at DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SnapshotRepository persists asset records as an append-only log. Rows are
// never updated in place, so overlapping in-flight writes from consecutive
// poll cycles cannot conflict.
type SnapshotRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSnapshotRepository(pool PgxPool, tracer trace.Tracer) *SnapshotRepository {
	return &SnapshotRepository{pool: pool, tracer: tracer}
}

func (r *SnapshotRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createSnapshotsTable)
	return err
}

// Append writes one snapshot row per record, all tagged with the same write
// timestamp.
func (r *SnapshotRepository) Append(ctx context.Context, records []domain.AssetRecord, recordedAt time.Time) error {
	if len(records) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "snapshot-repo.append")
	defer span.End()

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(
			`INSERT INTO asset_snapshots
			     (asset_id, symbol, name, image_url, current_price, market_cap,
			      market_cap_rank, change_24h_pct, change_7d_pct, change_30d_pct, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			rec.ID, rec.Symbol, rec.Name, rec.ImageURL, rec.CurrentPrice, rec.MarketCap,
			rec.MarketCapRank, rec.PriceChangePct24h, rec.PriceChangePct7d, rec.PriceChangePct30d,
			recordedAt.UTC(),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Latest returns the most recent snapshots overall, newest first.
func (r *SnapshotRepository) Latest(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.latest")
	defer span.End()

	rows, err := r.pool.Query(ctx, selectSnapshots+`
		 ORDER BY recorded_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// History returns the most recent snapshots for one asset, newest first.
func (r *SnapshotRepository) History(ctx context.Context, assetID string, limit int) ([]domain.Snapshot, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.history")
	defer span.End()

	rows, err := r.pool.Query(ctx, selectSnapshots+`
		 WHERE asset_id = $1
		 ORDER BY recorded_at DESC
		 LIMIT $2`,
		assetID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

const selectSnapshots = `
		SELECT asset_id, symbol, name, image_url, current_price, market_cap,
		       market_cap_rank, change_24h_pct, change_7d_pct, change_30d_pct, recorded_at
		 FROM asset_snapshots`

func scanSnapshots(rows pgx.Rows) ([]domain.Snapshot, error) {
	var snapshots []domain.Snapshot
	for rows.Next() {
		var s domain.Snapshot
		if err := rows.Scan(
			&s.ID, &s.Symbol, &s.Name, &s.ImageURL, &s.CurrentPrice, &s.MarketCap,
			&s.MarketCapRank, &s.PriceChangePct24h, &s.PriceChangePct7d, &s.PriceChangePct30d,
			&s.RecordedAt,
		); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
