package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hirase-art/inventory-risk/internal/api/handlers"
	"github.com/hirase-art/inventory-risk/internal/api/middleware"
)

type Services struct {
	RiskService handlers.RiskService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.RiskService != nil {
		riskHandler := handlers.NewRiskHandler(services.RiskService)
		inventoryGroup := apiGroup.Group("/inventory")
		{
			inventoryGroup.GET("/risk", riskHandler.GetRisk)
			inventoryGroup.GET("/risk/summary", riskHandler.GetSummary)
			inventoryGroup.GET("/shipments/trends", riskHandler.GetShipmentTrends)
			inventoryGroup.GET("/stock", riskHandler.GetStock)
			inventoryGroup.GET("/categories", riskHandler.GetCategories)
			inventoryGroup.POST("/cache/invalidate", riskHandler.InvalidateCache)
		}
	}

	return router
}

// normalizeAllowedOrigins flattens comma-separated entries. "*" allows every
// origin.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
