package domain

import (
	"fmt"
	"time"
)

// AssetRecord is one point-in-time snapshot of a tradable asset's market
// data, shaped after the CoinGecko /coins/markets response. Records are
// immutable; each poll cycle produces a fresh record per asset.
type AssetRecord struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	ImageURL          string  `json:"image"`
	CurrentPrice      float64 `json:"current_price"`
	MarketCap         float64 `json:"market_cap"`
	MarketCapRank     int     `json:"market_cap_rank"`
	PriceChangePct24h float64 `json:"price_change_percentage_24h"`
	PriceChangePct7d  float64 `json:"price_change_percentage_7d_in_currency"`
	PriceChangePct30d float64 `json:"price_change_percentage_30d_in_currency"`
}

// Validate rejects records that must not reach the scoring engine.
// MarketCapRank is used directly as a divisor/multiplier in scoring, so a
// non-positive rank is invalid input rather than a normalizable field.
func (a *AssetRecord) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: empty asset id", ErrInvalidRecord)
	}
	if a.MarketCapRank <= 0 {
		return fmt.Errorf("%w: market cap rank %d for %s", ErrInvalidRecord, a.MarketCapRank, a.ID)
	}
	if a.CurrentPrice < 0 {
		return fmt.Errorf("%w: negative price for %s", ErrInvalidRecord, a.ID)
	}
	if a.MarketCap < 0 {
		return fmt.Errorf("%w: negative market cap for %s", ErrInvalidRecord, a.ID)
	}
	return nil
}

// Snapshot is a persisted copy of an AssetRecord, tagged with the write
// timestamp. Snapshots are append-only and never updated in place.
type Snapshot struct {
	AssetRecord
	RecordedAt time.Time `json:"recorded_at"`
}
