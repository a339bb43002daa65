package handler

import (
	"errors"
	"net/http"

	"crypto-analyzer/internal/analysis"
	"crypto-analyzer/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type projectionRequest struct {
	Amount float64 `json:"amount"`
	Months int     `json:"months"`
}

// GetSentiment godoc
// @Summary      Get the sentiment analysis for an asset
// @Description  Returns deterministic sentiment, Fear & Greed index, and risk factors derived from the asset's latest record
// @Tags         analysis
// @Produce      json
// @Param        id  path  string  true  "Asset id (e.g., bitcoin)"
// @Success      200  {object}  analysis.SentimentResult
// @Failure      404  {object}  map[string]string
// @Router       /api/markets/{id}/sentiment [get]
func (h *Handler) GetSentiment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()

	assetID := c.Param("id")
	span.SetAttributes(attribute.String("asset.id", assetID))

	record, err := h.markets.GetAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown asset: " + assetID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysis.ComputeSentiment(*record))
}

// GetProjection godoc
// @Summary      Compute an investment projection for an asset
// @Description  Returns the potential return, risk tier, and confidence for a hypothetical investment
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "Asset id (e.g., bitcoin)"
// @Param        request  body  projectionRequest  true  "Investment amount in USD and horizon in months"
// @Success      200  {object}  analysis.InvestmentProjection
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/markets/{id}/projection [post]
func (h *Handler) GetProjection(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-projection")
	defer span.End()

	assetID := c.Param("id")
	span.SetAttributes(attribute.String("asset.id", assetID))

	var req projectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	record, err := h.markets.GetAsset(ctx, assetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown asset: " + assetID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	projection, err := analysis.ComputeProjection(record, req.Amount, req.Months)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, projection)
}
