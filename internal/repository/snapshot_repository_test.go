package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"crypto-analyzer/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func testRecords() []domain.AssetRecord {
	return []domain.AssetRecord{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 97000, MarketCap: 1.9e12, MarketCapRank: 1, PriceChangePct24h: 2.1, PriceChangePct7d: 4.4, PriceChangePct30d: 11},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 3400, MarketCap: 4.1e11, MarketCapRank: 2, PriceChangePct24h: -0.7, PriceChangePct7d: 1.2, PriceChangePct30d: 6},
	}
}

func TestRunMigrationsCreatesTable(t *testing.T) {
	pool := &fakePool{}
	repo := NewSnapshotRepository(pool, testTracer)

	if err := repo.RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pool.execSQL, "CREATE TABLE IF NOT EXISTS asset_snapshots") {
		t.Errorf("unexpected migration SQL: %s", pool.execSQL)
	}
	if !strings.Contains(pool.execSQL, "idx_asset_snapshots_asset_time") {
		t.Error("migration should create the per-asset history index")
	}
}

func TestAppendQueuesOneInsertPerRecord(t *testing.T) {
	pool := &fakePool{}
	repo := NewSnapshotRepository(pool, testTracer)

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.Append(context.Background(), testRecords(), at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	queued := pool.batch.QueuedQueries
	if len(queued) != 2 {
		t.Fatalf("expected 2 queued inserts, got %d", len(queued))
	}
	for i, q := range queued {
		if !strings.Contains(q.SQL, "INSERT INTO asset_snapshots") {
			t.Errorf("query %d: unexpected SQL: %s", i, q.SQL)
		}
		if got := q.Arguments[len(q.Arguments)-1]; got != at {
			t.Errorf("query %d: expected shared timestamp %v, got %v", i, at, got)
		}
	}
	if queued[0].Arguments[0] != "bitcoin" || queued[1].Arguments[0] != "ethereum" {
		t.Errorf("unexpected asset ids: %v %v", queued[0].Arguments[0], queued[1].Arguments[0])
	}
}

func TestAppendEmptyBatchSkipsPool(t *testing.T) {
	pool := &fakePool{}
	repo := NewSnapshotRepository(pool, testTracer)

	if err := repo.Append(context.Background(), nil, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.batch != nil {
		t.Error("empty append should not send a batch")
	}
}

func TestAppendSurfacesExecError(t *testing.T) {
	pool := &fakePool{batchExecErr: errors.New("insert failed")}
	repo := NewSnapshotRepository(pool, testTracer)

	if err := repo.Append(context.Background(), testRecords(), time.Now()); err == nil {
		t.Fatal("expected the batch exec error to surface")
	}
}

func TestLatestScansNewestFirst(t *testing.T) {
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	pool := &fakePool{rows: []domain.Snapshot{
		{AssetRecord: testRecords()[0], RecordedAt: at},
		{AssetRecord: testRecords()[1], RecordedAt: at},
	}}
	repo := NewSnapshotRepository(pool, testTracer)

	snapshots, err := repo.Latest(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pool.querySQL, "ORDER BY recorded_at DESC") {
		t.Errorf("latest query must order newest first: %s", pool.querySQL)
	}
	if len(pool.queryArgs) != 1 || pool.queryArgs[0] != 100 {
		t.Errorf("unexpected query args: %v", pool.queryArgs)
	}
	if len(snapshots) != 2 || snapshots[0].ID != "bitcoin" || !snapshots[0].RecordedAt.Equal(at) {
		t.Errorf("unexpected snapshots: %+v", snapshots)
	}
	if snapshots[1].PriceChangePct24h != -0.7 {
		t.Errorf("scan dropped a field: %+v", snapshots[1])
	}
}

func TestHistoryFiltersByAsset(t *testing.T) {
	pool := &fakePool{}
	repo := NewSnapshotRepository(pool, testTracer)

	if _, err := repo.History(context.Background(), "bitcoin", 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pool.querySQL, "WHERE asset_id = $1") {
		t.Errorf("history query must filter by asset: %s", pool.querySQL)
	}
	if len(pool.queryArgs) != 2 || pool.queryArgs[0] != "bitcoin" || pool.queryArgs[1] != 30 {
		t.Errorf("unexpected query args: %v", pool.queryArgs)
	}
}

// fakePool satisfies PgxPool without a live database, capturing what the
// repository would send to Postgres.
type fakePool struct {
	execSQL      string
	batch        *pgx.Batch
	batchExecErr error

	querySQL  string
	queryArgs []any
	rows      []domain.Snapshot
}

func (f *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	return pgconn.CommandTag{}, nil
}

func (f *fakePool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batch = b
	return &fakeBatchResults{execErr: f.batchExecErr}
}

func (f *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.querySQL = sql
	f.queryArgs = args
	return &fakeRows{rows: f.rows}, nil
}

type fakeBatchResults struct {
	execErr error
}

func (f *fakeBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, f.execErr }
func (f *fakeBatchResults) Query() (pgx.Rows, error)         { return &fakeRows{}, nil }
func (f *fakeBatchResults) QueryRow() pgx.Row                { return nil }
func (f *fakeBatchResults) Close() error                     { return nil }

type fakeRows struct {
	rows []domain.Snapshot
	idx  int
}

func (f *fakeRows) Close()                                       {}
func (f *fakeRows) Err() error                                   { return nil }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Next() bool {
	return f.idx < len(f.rows)
}

func (f *fakeRows) Scan(dest ...any) error {
	s := f.rows[f.idx]
	f.idx++

	*dest[0].(*string) = s.ID
	*dest[1].(*string) = s.Symbol
	*dest[2].(*string) = s.Name
	*dest[3].(*string) = s.ImageURL
	*dest[4].(*float64) = s.CurrentPrice
	*dest[5].(*float64) = s.MarketCap
	*dest[6].(*int) = s.MarketCapRank
	*dest[7].(*float64) = s.PriceChangePct24h
	*dest[8].(*float64) = s.PriceChangePct7d
	*dest[9].(*float64) = s.PriceChangePct30d
	*dest[10].(*time.Time) = s.RecordedAt
	return nil
}
