package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"crypto-analyzer/internal/domain"
	"crypto-analyzer/internal/provider"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func testRecords() []domain.AssetRecord {
	return []domain.AssetRecord{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 97000, MarketCapRank: 1, PriceChangePct24h: 2.1},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 3400, MarketCapRank: 2, PriceChangePct24h: -0.7},
	}
}

func TestMarketService_GetMarketsCacheHit(t *testing.T) {
	t.Parallel()

	r := newFakeRedis()
	data, _ := json.Marshal(&MarketsPage{Records: testRecords(), AsOf: time.Now()})
	_ = r.Set(context.Background(), marketsCacheKey, data, 0)

	p := &mockMarketProvider{}
	svc := NewMarketService(testTracer, p, nil, nil, r)

	page, err := svc.GetMarkets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Records) != 2 || page.Records[0].ID != "bitcoin" {
		t.Fatalf("unexpected records: %+v", page.Records)
	}
	if page.Stale {
		t.Fatal("cached page must not be flagged stale")
	}
	if p.fetchCalls != 0 {
		t.Fatalf("cache hit should not hit the provider, got %d calls", p.fetchCalls)
	}
}

func TestMarketService_GetMarketsFallsBackToStore(t *testing.T) {
	t.Parallel()

	recordedAt := time.Date(2026, 2, 1, 11, 58, 0, 0, time.UTC)
	repo := &mockSnapshotRepo{
		latest: []domain.Snapshot{
			{AssetRecord: testRecords()[0], RecordedAt: recordedAt},
		},
	}
	p := &mockMarketProvider{}
	svc := NewMarketService(testTracer, p, nil, repo, newFakeRedis())

	page, err := svc.GetMarkets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Records) != 1 || page.Records[0].ID != "bitcoin" {
		t.Fatalf("unexpected records: %+v", page.Records)
	}
	if !page.Stale {
		t.Fatal("store-served page must be flagged stale")
	}
	if !page.AsOf.Equal(recordedAt) {
		t.Fatalf("stale page AsOf should be the batch timestamp, got %v", page.AsOf)
	}
	if p.fetchCalls != 0 {
		t.Fatalf("store hit should not hit the provider, got %d calls", p.fetchCalls)
	}
}

func TestMarketService_GetMarketsLiveFetchLastResort(t *testing.T) {
	t.Parallel()

	p := &mockMarketProvider{records: testRecords()}
	r := newFakeRedis()
	svc := NewMarketService(testTracer, p, nil, nil, r)

	page, err := svc.GetMarkets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(page.Records))
	}
	if page.Stale {
		t.Fatal("live page must not be flagged stale")
	}
	if p.fetchCalls == 0 {
		t.Fatal("expected live fetch")
	}
	if _, ok := r.data[marketsCacheKey]; !ok {
		t.Fatal("live fetch should populate the cache")
	}
}

func TestMarketService_RefreshMarketsCaches(t *testing.T) {
	t.Parallel()

	p := &mockMarketProvider{records: testRecords()}
	r := newFakeRedis()
	svc := NewMarketService(testTracer, p, nil, nil, r)

	if err := svc.RefreshMarkets(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.fetchCalls != 1 {
		t.Fatalf("expected one fetch, got %d", p.fetchCalls)
	}

	var cached MarketsPage
	if err := json.Unmarshal(r.data[marketsCacheKey], &cached); err != nil {
		t.Fatalf("cache not decodable: %v", err)
	}
	if len(cached.Records) != 2 {
		t.Fatalf("expected 2 cached records, got %d", len(cached.Records))
	}
	if cached.Stale || cached.AsOf.IsZero() {
		t.Fatalf("refresh must cache a fresh timestamped page: %+v", cached)
	}
}

func TestMarketService_RefreshMarketsFetchErrorSurfaces(t *testing.T) {
	t.Parallel()

	p := &mockMarketProvider{err: errors.New("upstream down")}
	svc := NewMarketService(testTracer, p, nil, nil, nil)

	if err := svc.RefreshMarkets(context.Background()); err == nil {
		t.Fatal("expected upstream fetch error to surface")
	}
}

func TestMarketService_PersistSnapshotsSwallowsStoreErrors(t *testing.T) {
	t.Parallel()

	repo := &mockSnapshotRepo{appendErr: errors.New("store down")}
	svc := NewMarketService(testTracer, &mockMarketProvider{}, nil, repo, nil)

	// Must not panic or propagate; persistence failures are logged only.
	svc.persistSnapshots(context.Background(), testRecords(), time.Now())
	if repo.appendCalls != 1 {
		t.Fatalf("expected one append attempt, got %d", repo.appendCalls)
	}
}

func TestMarketService_PersistSnapshotsAppends(t *testing.T) {
	t.Parallel()

	repo := &mockSnapshotRepo{}
	svc := NewMarketService(testTracer, &mockMarketProvider{}, nil, repo, nil)

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	svc.persistSnapshots(context.Background(), testRecords(), at)

	if repo.appendCalls != 1 || len(repo.appendArg) != 2 {
		t.Fatalf("unexpected append: calls=%d records=%d", repo.appendCalls, len(repo.appendArg))
	}
	if !repo.appendAt.Equal(at) {
		t.Fatalf("unexpected write timestamp: %v", repo.appendAt)
	}
}

func TestMarketService_GetAsset(t *testing.T) {
	t.Parallel()

	p := &mockMarketProvider{records: testRecords()}
	svc := NewMarketService(testTracer, p, nil, nil, nil)

	asset, err := svc.GetAsset(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.Symbol != "eth" {
		t.Fatalf("unexpected asset: %+v", asset)
	}

	if _, err := svc.GetAsset(context.Background(), "dogecoin"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarketService_GetHistoryCapsLimit(t *testing.T) {
	t.Parallel()

	repo := &mockSnapshotRepo{}
	svc := NewMarketService(testTracer, &mockMarketProvider{}, nil, repo, nil)

	if _, err := svc.GetHistory(context.Background(), "bitcoin", 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastHistoryID != "bitcoin" || repo.lastHistoryLimit != HistoryLimit {
		t.Fatalf("unexpected history args: %s %d", repo.lastHistoryID, repo.lastHistoryLimit)
	}

	if _, err := svc.GetHistory(context.Background(), "bitcoin", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastHistoryLimit != 5 {
		t.Fatalf("expected explicit limit 5, got %d", repo.lastHistoryLimit)
	}
}

func TestMarketService_GetGlobalFearGreedCaches(t *testing.T) {
	t.Parallel()

	fng := &mockFearGreed{point: &provider.GlobalFearGreed{Value: 63, Classification: "Greed"}}
	r := newFakeRedis()
	svc := NewMarketService(testTracer, &mockMarketProvider{}, fng, nil, r)

	point, err := svc.GetGlobalFearGreed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point.Value != 63 {
		t.Fatalf("unexpected point: %+v", point)
	}

	// Second read is served from cache.
	if _, err := svc.GetGlobalFearGreed(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fng.calls != 1 {
		t.Fatalf("expected one provider call, got %d", fng.calls)
	}
}

type mockMarketProvider struct {
	records    []domain.AssetRecord
	err        error
	fetchCalls int
}

func (m *mockMarketProvider) FetchMarkets(ctx context.Context) ([]domain.AssetRecord, error) {
	m.fetchCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type mockFearGreed struct {
	point *provider.GlobalFearGreed
	err   error
	calls int
}

func (m *mockFearGreed) FetchLatest(ctx context.Context) (*provider.GlobalFearGreed, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.point, nil
}

type mockSnapshotRepo struct {
	latest  []domain.Snapshot
	history []domain.Snapshot

	appendErr   error
	appendCalls int
	appendArg   []domain.AssetRecord
	appendAt    time.Time

	lastHistoryID    string
	lastHistoryLimit int
}

func (m *mockSnapshotRepo) Append(ctx context.Context, records []domain.AssetRecord, recordedAt time.Time) error {
	m.appendCalls++
	m.appendArg = records
	m.appendAt = recordedAt
	return m.appendErr
}

func (m *mockSnapshotRepo) Latest(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	return m.latest, nil
}

func (m *mockSnapshotRepo) History(ctx context.Context, assetID string, limit int) ([]domain.Snapshot, error) {
	m.lastHistoryID = assetID
	m.lastHistoryLimit = limit
	return m.history, nil
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = v
	case string:
		f.data[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	data, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(data), nil)
}
