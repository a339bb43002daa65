package handler

import (
	"crypto-analyzer/internal/auth"
	"crypto-analyzer/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer  trace.Tracer
	markets *service.MarketService
	auth    *auth.Service
}

func New(tracer trace.Tracer, markets *service.MarketService, authService *auth.Service) *Handler {
	return &Handler{
		tracer:  tracer,
		markets: markets,
		auth:    authService,
	}
}

// RegisterRoutes mounts all endpoints. The health check stays outside the
// API key gate so probes keep working when a key is configured.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(APIKeyAuth(apiKey))
	api.GET("/markets", h.GetMarkets)
	api.GET("/markets/:id", h.GetAsset)
	api.GET("/markets/:id/history", h.GetHistory)
	api.GET("/markets/:id/sentiment", h.GetSentiment)
	api.POST("/markets/:id/projection", h.GetProjection)
	api.GET("/market/fear-greed", h.GetGlobalFearGreed)

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.SignUp)
	authGroup.POST("/signin", h.SignIn)
	authGroup.POST("/google", h.SignInWithGoogle)
	authGroup.POST("/signout", h.SignOut)
}
