package api

import (
	"context"
	"net/http"
	"time"

	"nutrition-resolver/internal/api/handlers/health"
	mealHandler "nutrition-resolver/internal/api/handlers/meal"
	"nutrition-resolver/internal/api/middleware"
	"nutrition-resolver/internal/core/nutrition/cache"
	"nutrition-resolver/internal/core/nutrition/fallback"
	"nutrition-resolver/internal/core/nutrition/index"
	"nutrition-resolver/internal/core/nutrition/provider"
	"nutrition-resolver/internal/core/nutrition/resolver"
	"nutrition-resolver/internal/core/nutrition/search"
	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 整體請求超時：涵蓋一整批成分的解析
const timeoutDuration = 60 * time.Second

// SetupRouter 設置路由並組裝解析引擎
func SetupRouter(cfg *config.Config, cacheStore cache.Store, searchIndex *index.SQLiteIndex) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制與去重
	router.Use(middleware.BodySizeLimit(middleware.MaxAnalyzeBodySize))
	router.Use(middleware.Deduplication(cfg))

	// 限流
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("provider_enabled", cfg.Provider.Enabled),
		zap.Int("resolution_workers", cfg.Resolution.Workers),
		zap.Duration("timeout", timeoutDuration),
	)

	// 組裝供應商客戶端，並把本地索引設為回寫端
	var providerClient provider.Provider
	if cfg.Provider.Enabled {
		client := provider.NewClient(&cfg.Provider)
		if searchIndex != nil {
			client.SetIndexSink(searchIndex)
		}
		providerClient = client
	}

	// 搜尋與排序引擎
	var searchIdx search.Index
	if searchIndex != nil {
		searchIdx = searchIndex
	}
	searchSvc := search.NewService(searchIdx, providerClient, cacheStore, &cfg.Resolution, cfg.Cache.TTL)

	// 推估器與解析協調器
	estimator := fallback.NewEstimator(&cfg.Resolution)
	resolverSvc := resolver.NewService(searchSvc, estimator, &cfg.Resolution)

	common.LogInfo("Resolution services initialized successfully",
		zap.Bool("provider_initialized", providerClient != nil),
		zap.Bool("index_initialized", searchIndex != nil),
		zap.Bool("cache_initialized", cacheStore != nil),
	)

	// 全局中間件：設置請求超時與服務注入
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Set("config", cfg)

		// 健康檢查附帶索引規模
		if searchIndex != nil {
			if n, err := searchIndex.Count(ctx); err == nil {
				c.Set("index_records", n)
			}
		}

		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", timeoutDuration),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeGatewayTimeout,
			})
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		mealGroup := api.Group("/meal")
		{
			// 餐點營養解析
			mealGroup.POST("/analyze", mealHandler.HandleAnalyze(resolverSvc))
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Int64("max_body_size", middleware.MaxAnalyzeBodySize),
	)

	return router, nil
}
