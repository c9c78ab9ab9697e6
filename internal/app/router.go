// internal/app/router.go
package app

import (
	adHandler "sooq-service/internal/handlers/ad"
	taxonomyHandler "sooq-service/internal/handlers/taxonomy"
	"sooq-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AdHandler       *adHandler.AdHandler
	TaxonomyHandler *taxonomyHandler.TaxonomyHandler
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Taxonomy ====================
	categories := api.Group("/categories")
	{
		categories.GET("", h.TaxonomyHandler.ListCategories)
		categories.GET("/:id/fields", h.TaxonomyHandler.GetCategoryFields)
	}
	api.POST("/taxonomy/sync", h.TaxonomyHandler.Sync)

	// ==================== Ads ====================
	ads := api.Group("/ads")
	{
		// Public endpoints - no auth required
		ads.GET("", h.AdHandler.List)
		ads.GET("/:id", h.AdHandler.Get)

		// Authenticated endpoints
		adsAuth := ads.Group("")
		adsAuth.Use(middleware.RequireUser())
		{
			adsAuth.POST("", h.AdHandler.Create)
			adsAuth.PUT("/:id", h.AdHandler.Update)
			adsAuth.DELETE("/:id", h.AdHandler.Delete)
		}
	}

	myAds := api.Group("/my-ads")
	myAds.Use(middleware.RequireUser())
	{
		myAds.GET("", h.AdHandler.MyAds)
	}
}
