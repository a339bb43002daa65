package handler

import (
	"errors"
	"net/http"
	"strconv"

	"crypto-analyzer/internal/domain"
	"crypto-analyzer/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetMarkets godoc
// @Summary      Get the tracked market page
// @Description  Returns the top 100 assets by market cap; stale=true means the page was recovered from the snapshot store and as_of carries the batch timestamp
// @Tags         markets
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/markets [get]
func (h *Handler) GetMarkets(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-markets")
	defer span.End()

	page, err := h.markets.GetMarkets(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"markets": page.Records,
		"as_of":   page.AsOf,
		"stale":   page.Stale,
	})
}

// GetAsset godoc
// @Summary      Get a single asset
// @Description  Returns the latest record for one asset by its CoinGecko id
// @Tags         markets
// @Produce      json
// @Param        id  path  string  true  "Asset id (e.g., bitcoin)"
// @Success      200  {object}  domain.AssetRecord
// @Failure      404  {object}  map[string]string
// @Router       /api/markets/{id} [get]
func (h *Handler) GetAsset(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-asset")
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

	c.JSON(http.StatusOK, record)
}

// GetHistory godoc
// @Summary      Get persisted snapshots for an asset
// @Description  Returns the most recent stored snapshots for one asset, newest first
// @Tags         markets
// @Produce      json
// @Param        id     path   string  true   "Asset id (e.g., bitcoin)"
// @Param        limit  query  int     false  "Number of snapshots (default 30, max 30)"  default(30)
// @Success      200  {object}  map[string]interface{}
// @Router       /api/markets/{id}/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	assetID := c.Param("id")
	span.SetAttributes(attribute.String("asset.id", assetID))

	limit := service.HistoryLimit
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	snapshots, err := h.markets.GetHistory(ctx, assetID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"asset_id": assetID,
		"history":  snapshots,
	})
}

// GetGlobalFearGreed godoc
// @Summary      Get the market-wide Fear & Greed index
// @Description  Returns the latest published index for the whole market
// @Tags         markets
// @Produce      json
// @Success      200  {object}  provider.GlobalFearGreed
// @Router       /api/market/fear-greed [get]
func (h *Handler) GetGlobalFearGreed(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-global-fear-greed")
	defer span.End()

	index, err := h.markets.GetGlobalFearGreed(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, index)
}
