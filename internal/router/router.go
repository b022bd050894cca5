package router

import (
	"fmt"
	"strings"

	"github.com/promo-engine/internal/cache"
	"github.com/promo-engine/internal/config"
	"github.com/promo-engine/internal/constants"
	adminhandlers "github.com/promo-engine/internal/http/handlers/admin"
	publichandlers "github.com/promo-engine/internal/http/handlers/public"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	commitRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:commit", redisPrefix),
		WindowSeconds: cfg.Security.CommitRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CommitRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		pricing := apiV1.Group("/pricing")
		{
			pricing.POST("/calculate", publicHandler.CalculatePrice)
			pricing.POST("/commit",
				RateLimitMiddleware(redisClient, commitRule, KeyByIP),
				publicHandler.CommitPrice)
			pricing.POST("/release", publicHandler.ReleaseReservations)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/activities/status-sync", adminHandler.SyncActivityStatuses)
			admin.GET("/activities/:id/products", adminHandler.ListActivityProducts)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
