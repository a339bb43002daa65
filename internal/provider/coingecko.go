package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"crypto-analyzer/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"

	// marketPageSize is the number of top assets requested per poll, ordered
	// by market capitalization descending.
	marketPageSize = 100
)

// CoinGeckoProvider fetches market data from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a new provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// FetchMarkets fetches the top assets by market cap in a single API call,
// including 24h/7d/30d percentage change fields. Records failing validation
// (rank missing or non-positive) are dropped before they reach callers.
func (p *CoinGeckoProvider) FetchMarkets(ctx context.Context) ([]domain.AssetRecord, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-markets")
	defer span.End()

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(marketPageSize))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	q.Set("price_change_percentage", "24h,7d,30d")

	body, err := p.doRequest(ctx, p.baseURL+"/coins/markets?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	var raw []domain.AssetRecord
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse markets: %w", err)
	}

	records := make([]domain.AssetRecord, 0, len(raw))
	for _, rec := range raw {
		if err := rec.Validate(); err != nil {
			log.Printf("dropping market record: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
