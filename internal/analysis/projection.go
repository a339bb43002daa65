package analysis

import (
	"fmt"
	"math"
	"strings"

	"crypto-analyzer/internal/domain"
)

type RiskTier string

const (
	RiskLow    RiskTier = "Low"
	RiskMedium RiskTier = "Medium"
	RiskHigh   RiskTier = "High"
)

// InvestmentProjection is derived and ephemeral, computed only on explicit
// request with user-supplied parameters.
type InvestmentProjection struct {
	PotentialReturn float64  `json:"potential_return"`
	RiskLevel       RiskTier `json:"risk_level"`
	ConfidencePct   float64  `json:"confidence_pct"`
	Description     string   `json:"description"`
}

// ComputeProjection extrapolates a naive investment outcome from the latest
// asset snapshot. The rate is a first-order heuristic keyed on market-cap
// rank and 24h volatility, applied linearly without compounding; no
// historical series is consulted.
func ComputeProjection(asset *domain.AssetRecord, amount float64, months int) (InvestmentProjection, error) {
	if asset == nil {
		return InvestmentProjection{}, fmt.Errorf("%w: no asset selected", domain.ErrInvalidInput)
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return InvestmentProjection{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if months <= 0 {
		return InvestmentProjection{}, fmt.Errorf("%w: months must be positive", domain.ErrInvalidInput)
	}

	volatility := math.Abs(normalize(asset.PriceChangePct24h))
	marketCapRisk := float64(asset.MarketCapRank) / 100

	var (
		risk       RiskTier
		baseReturn float64
		confidence float64
	)
	switch {
	case marketCapRisk < 0.1 && volatility < 5:
		risk = RiskLow
		baseReturn = 0.08
		confidence = 0.8
	case marketCapRisk < 0.3 && volatility < 10:
		risk = RiskMedium
		baseReturn = 0.15
		confidence = 0.6
	default:
		risk = RiskHigh
		baseReturn = 0.25
		confidence = 0.4
	}

	potentialReturn := amount * (1 + baseReturn*float64(months)/12)

	return InvestmentProjection{
		PotentialReturn: potentialReturn,
		RiskLevel:       risk,
		ConfidencePct:   confidence * 100,
		Description: fmt.Sprintf(
			"Based on %s's historical performance and current market conditions, this investment carries a %s risk level.",
			asset.Name, strings.ToLower(string(risk)),
		),
	}, nil
}
