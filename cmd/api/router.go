package api

import (
	"net/http"

	"chatsaid-backend/internal/auth/delivery"
	authUsecase "chatsaid-backend/internal/auth/usecase"
	socialDelivery "chatsaid-backend/internal/social/delivery"
	"chatsaid-backend/pkg/config"
	"chatsaid-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const inboundTokenHeader = "X-Inbound-Token"

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, socialHandler *socialDelivery.SocialHandler, collector *metrics.Collector, cfg *config.Config) {
	r.GET("/metrics", collector.Handler())

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Inbound email webhook (shared token instead of JWT)
		api.POST("/social/inbound/email/:account_id",
			delivery.SharedTokenMiddleware(inboundTokenHeader, cfg.InboundEmailToken),
			socialHandler.InboundEmail)

		// Social ingestion routes (protected)
		social := api.Group("/social")
		social.Use(delivery.AuthMiddleware(authUsecase))
		{
			social.POST("/accounts", socialHandler.CreateAccount)
			social.GET("/accounts", socialHandler.GetAccounts)
			social.GET("/accounts/:id", socialHandler.GetAccount)
			social.POST("/accounts/:id/pause", socialHandler.PauseAccount)
			social.POST("/accounts/:id/resume", socialHandler.ResumeAccount)
			social.GET("/accounts/:id/rule", socialHandler.GetRule)
			social.PUT("/accounts/:id/rule", socialHandler.UpdateRule)
			social.GET("/accounts/:id/posts", socialHandler.GetPosts)
			social.GET("/accounts/:id/posts/search", socialHandler.SearchPosts)
			social.POST("/import", socialHandler.RunImport)
			social.POST("/posts/:id/draft", socialHandler.BuildDraft)
			social.POST("/posts/:id/ignore", socialHandler.IgnorePost)
			social.POST("/posts/:id/convert", socialHandler.ConvertPost)
		}

		// Settings routes (protected) - Runtime AI configuration
		settings := api.Group("/settings")
		settings.Use(delivery.AuthMiddleware(authUsecase))
		{
			settings.GET("/ollama", GetOllamaSettings)
			settings.PUT("/ollama", UpdateOllamaSettings)
			settings.POST("/ollama/test", TestOllamaConnection)
		}
	}
}
