package job

import (
	"context"
	"log"
	"time"

	"crypto-analyzer/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

// fearGreedPollInterval matches the publisher's daily-ish cadence; hourly
// polling keeps the cached value fresh without hammering the API.
const fearGreedPollInterval = time.Hour

// MarketPoller runs background goroutines that periodically fetch and store
// market data. Each tick is independent: a failed or slow cycle is never
// retried early, the next scheduled tick simply runs again.
type MarketPoller struct {
	tracer       trace.Tracer
	markets      MarketRefresher
	pollInterval time.Duration
}

type MarketRefresher interface {
	RefreshMarkets(ctx context.Context) error
	GetGlobalFearGreed(ctx context.Context) (*provider.GlobalFearGreed, error)
}

func NewMarketPoller(tracer trace.Tracer, markets MarketRefresher, pollIntervalSecs int) *MarketPoller {
	return &MarketPoller{
		tracer:       tracer,
		markets:      markets,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start launches the polling goroutines. Blocks until ctx is cancelled.
func (p *MarketPoller) Start(ctx context.Context) {
	log.Println("Market poller starting...")

	go p.pollLoop(ctx, "markets", p.pollInterval, func(ctx context.Context) error {
		return p.markets.RefreshMarkets(ctx)
	})

	go p.pollFearGreed(ctx)

	<-ctx.Done()
	log.Println("Market poller stopped")
}

func (p *MarketPoller) pollLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	// Run immediately on start
	if err := fn(ctx); err != nil {
		log.Printf("poller %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Printf("poller %s error: %v", name, err)
			}
		}
	}
}

func (p *MarketPoller) pollFearGreed(ctx context.Context) {
	// Stagger against the market poll so the first ticks don't coincide.
	select {
	case <-ctx.Done():
		return
	case <-time.After(10 * time.Second):
	}

	p.pollLoop(ctx, "fear-greed", fearGreedPollInterval, func(ctx context.Context) error {
		_, err := p.markets.GetGlobalFearGreed(ctx)
		return err
	})
}
