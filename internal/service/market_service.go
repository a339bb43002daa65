package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"crypto-analyzer/internal/domain"
	"crypto-analyzer/internal/provider"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	marketsCacheKey   = "markets:latest"
	marketsCacheTTL   = 90 * time.Second
	fearGreedCacheKey = "feargreed:global"
	fearGreedCacheTTL = 30 * time.Minute

	// HistoryLimit caps per-asset history reads, matching the dashboard's
	// 30-snapshot history window.
	HistoryLimit = 30

	// latestBatchSize matches the poll page size: the most recent rows
	// overall form the last persisted batch.
	latestBatchSize = 100
)

// MarketsPage is one served asset list. AsOf is when the records came from
// the provider; Stale marks a page recovered from the snapshot store, which
// means the cache had expired and no fresh poll has landed since.
type MarketsPage struct {
	Records []domain.AssetRecord `json:"records"`
	AsOf    time.Time            `json:"as_of"`
	Stale   bool                 `json:"stale"`
}

type MarketProvider interface {
	FetchMarkets(ctx context.Context) ([]domain.AssetRecord, error)
}

type FearGreedProvider interface {
	FetchLatest(ctx context.Context) (*provider.GlobalFearGreed, error)
}

type SnapshotRepository interface {
	Append(ctx context.Context, records []domain.AssetRecord, recordedAt time.Time) error
	Latest(ctx context.Context, limit int) ([]domain.Snapshot, error)
	History(ctx context.Context, assetID string, limit int) ([]domain.Snapshot, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// MarketService orchestrates market data fetching, caching, persistence,
// and retrieval. Persistence is append-only and fire-and-forget: a failed
// or still-running store write never blocks or fails the data path.
type MarketService struct {
	tracer    trace.Tracer
	provider  MarketProvider
	fearGreed FearGreedProvider
	repo      SnapshotRepository
	redis     RedisClient
}

func NewMarketService(
	tracer trace.Tracer,
	marketProvider MarketProvider,
	fearGreedProvider FearGreedProvider,
	repo SnapshotRepository,
	redisClient RedisClient,
) *MarketService {
	return &MarketService{
		tracer:    tracer,
		provider:  marketProvider,
		fearGreed: fearGreedProvider,
		repo:      repo,
		redis:     redisClient,
	}
}

// RefreshMarkets fetches the latest market page, caches it, and appends a
// snapshot batch to the store in the background. The next scheduled poll
// fires regardless of whether this batch's write has completed.
func (s *MarketService) RefreshMarkets(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "market-service.refresh-markets")
	defer span.End()

	records, err := s.provider.FetchMarkets(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("market fetch returned no valid records")
	}

	now := time.Now()
	if s.redis != nil {
		page := &MarketsPage{Records: records, AsOf: now}
		if err := s.setMarketsCache(ctx, page); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}

	if s.repo != nil {
		go s.persistSnapshots(context.WithoutCancel(ctx), records, now)
	}

	log.Printf("Refreshed market data for %d assets", len(records))
	return nil
}

// persistSnapshots appends one poll batch. Store failures are logged and
// swallowed; the dashboard keeps serving whatever is already in memory.
func (s *MarketService) persistSnapshots(ctx context.Context, records []domain.AssetRecord, recordedAt time.Time) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.repo.Append(ctx, records, recordedAt); err != nil {
		log.Printf("snapshot append error (%d records): %v", len(records), err)
	}
}

// GetMarkets returns the current asset page: Redis cache first, then the
// most recent persisted batch, then a live fetch as last resort. A page
// recovered from the store is flagged stale with the batch's recorded-at
// as AsOf, so callers can tell recovery data from a fresh poll; the flag
// clears on its own at the next successful tick.
func (s *MarketService) GetMarkets(ctx context.Context) (*MarketsPage, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-markets")
	defer span.End()

	if s.redis != nil {
		cached, err := s.getMarketsCache(ctx)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil && len(cached.Records) > 0 {
			return cached, nil
		}
	}

	if s.repo != nil {
		stored, err := s.repo.Latest(ctx, latestBatchSize)
		if err != nil {
			log.Printf("snapshot read error: %v", err)
		}
		if len(stored) > 0 {
			page := &MarketsPage{
				Records: make([]domain.AssetRecord, 0, len(stored)),
				AsOf:    stored[0].RecordedAt,
				Stale:   true,
			}
			for _, snap := range stored {
				page.Records = append(page.Records, snap.AssetRecord)
			}
			return page, nil
		}
	}

	records, err := s.provider.FetchMarkets(ctx)
	if err != nil {
		return nil, err
	}
	page := &MarketsPage{Records: records, AsOf: time.Now()}
	if s.redis != nil {
		if err := s.setMarketsCache(ctx, page); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}
	if s.repo != nil && len(records) > 0 {
		go s.persistSnapshots(context.WithoutCancel(ctx), records, page.AsOf)
	}
	return page, nil
}

// GetAsset returns the current record for one asset id.
func (s *MarketService) GetAsset(ctx context.Context, assetID string) (*domain.AssetRecord, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-asset")
	defer span.End()

	page, err := s.GetMarkets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range page.Records {
		if page.Records[i].ID == assetID {
			return &page.Records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, assetID)
}

// GetHistory returns persisted snapshots for one asset, newest first.
func (s *MarketService) GetHistory(ctx context.Context, assetID string, limit int) ([]domain.Snapshot, error) {
	_, span := s.tracer.Start(ctx, "market-service.get-history")
	defer span.End()

	if s.repo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	return s.repo.History(ctx, assetID, limit)
}

// GetGlobalFearGreed returns the market-wide index, cached for the
// publisher's refresh cadence.
func (s *MarketService) GetGlobalFearGreed(ctx context.Context) (*provider.GlobalFearGreed, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-global-fear-greed")
	defer span.End()

	if s.fearGreed == nil {
		return nil, fmt.Errorf("fear & greed provider not configured")
	}

	if s.redis != nil {
		data, err := s.redis.Get(ctx, fearGreedCacheKey).Bytes()
		if err == nil {
			var point provider.GlobalFearGreed
			if err := json.Unmarshal(data, &point); err == nil {
				return &point, nil
			}
		} else if err != redis.Nil {
			log.Printf("redis cache read error: %v", err)
		}
	}

	point, err := s.fearGreed.FetchLatest(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(point); err == nil {
			if err := s.redis.Set(ctx, fearGreedCacheKey, data, fearGreedCacheTTL).Err(); err != nil {
				log.Printf("redis cache write error: %v", err)
			}
		}
	}
	return point, nil
}

func (s *MarketService) setMarketsCache(ctx context.Context, page *MarketsPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, marketsCacheKey, data, marketsCacheTTL).Err()
}

func (s *MarketService) getMarketsCache(ctx context.Context) (*MarketsPage, error) {
	data, err := s.redis.Get(ctx, marketsCacheKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var page MarketsPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
