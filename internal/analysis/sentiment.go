package analysis

import (
	"math"

	"crypto-analyzer/internal/domain"
)

type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNeutral Sentiment = "Neutral"
)

type FearGreedStatus string

const (
	StatusExtremeFear  FearGreedStatus = "Extreme Fear"
	StatusFear         FearGreedStatus = "Fear"
	StatusNeutral      FearGreedStatus = "Neutral"
	StatusGreed        FearGreedStatus = "Greed"
	StatusExtremeGreed FearGreedStatus = "Extreme Greed"
)

// FearGreedIndex is the per-asset composite blending volatility, rank-derived
// market-cap weight, and price momentum. Value is nominally 0..100 but the
// composite is intentionally left unclamped: extreme 24h moves can push it
// outside the range. Classification always uses the raw value; DisplayValue
// is the render-safe clamp.
type FearGreedIndex struct {
	Value        float64         `json:"value"`
	DisplayValue float64         `json:"display_value"`
	Status       FearGreedStatus `json:"status"`
}

// SentimentResult is derived and ephemeral. It is recomputed in full from a
// single AssetRecord; nothing here is persisted.
type SentimentResult struct {
	Overall        Sentiment      `json:"overall"`
	TechnicalScore float64        `json:"technical_score"`
	MarketTrend    string         `json:"market_trend"`
	RiskFactors    []string       `json:"risk_factors"`
	FearGreed      FearGreedIndex `json:"fear_greed_index"`
}

const (
	trendBullish = "Strong upward momentum with positive market sentiment"
	trendBearish = "Downward pressure with cautious market outlook"
	trendNeutral = "Sideways movement with mixed market signals"
)

// Risk factor flags, in evaluation order.
const (
	RiskHighVolatility    = "High 24h volatility"
	RiskLowerMarketCap    = "Lower market cap"
	RiskInconsistentTrend = "Inconsistent price trend"
)

// ComputeSentiment derives a sentiment classification from one asset record.
// Pure and total over any record passing domain validation: NaN or infinite
// percentage fields are normalized to 0 before scoring, and identical input
// always yields identical output.
func ComputeSentiment(asset domain.AssetRecord) SentimentResult {
	shortTerm := normalize(asset.PriceChangePct24h)
	mediumTerm := normalize(asset.PriceChangePct7d)
	longTerm := normalize(asset.PriceChangePct30d)

	technicalScore := (shortTerm + mediumTerm + longTerm) / 3

	volatilityScore := clamp(math.Abs(shortTerm)*2, 0, 100)
	marketCapScore := math.Max(100-float64(asset.MarketCapRank)*2, 0)
	var momentumScore float64
	if shortTerm > 0 {
		momentumScore = math.Min(shortTerm*3, 100)
	} else {
		momentumScore = math.Max(shortTerm*3, -100)
	}

	fearGreedValue := (volatilityScore + marketCapScore + (momentumScore+100)/2) / 3

	var status FearGreedStatus
	switch {
	case fearGreedValue <= 20:
		status = StatusExtremeFear
	case fearGreedValue <= 40:
		status = StatusFear
	case fearGreedValue <= 60:
		status = StatusNeutral
	case fearGreedValue <= 80:
		status = StatusGreed
	default:
		status = StatusExtremeGreed
	}

	var riskFactors []string
	if math.Abs(shortTerm) > 10 {
		riskFactors = append(riskFactors, RiskHighVolatility)
	}
	if asset.MarketCapRank > 50 {
		riskFactors = append(riskFactors, RiskLowerMarketCap)
	}
	if math.Abs(mediumTerm-longTerm) > 20 {
		riskFactors = append(riskFactors, RiskInconsistentTrend)
	}

	overall := SentimentNeutral
	trend := trendNeutral
	if technicalScore > 5 {
		overall = SentimentBullish
		trend = trendBullish
	} else if technicalScore < -5 {
		overall = SentimentBearish
		trend = trendBearish
	}

	return SentimentResult{
		Overall:        overall,
		TechnicalScore: technicalScore,
		MarketTrend:    trend,
		RiskFactors:    riskFactors,
		FearGreed: FearGreedIndex{
			Value:        fearGreedValue,
			DisplayValue: clamp(fearGreedValue, 0, 100),
			Status:       status,
		},
	}
}

// normalize maps NaN and infinite percentage inputs to 0, matching the
// treatment of fields absent upstream.
func normalize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
