package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrition-resolver/internal/api"
	"nutrition-resolver/internal/core/nutrition/cache"
	"nutrition-resolver/internal/core/nutrition/index"
	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	// 使用 logger 記錄啟動信息
	common.LogInfo("載入設定",
		zap.Bool("provider_enabled", cfg.Provider.Enabled),
		zap.String("provider_base_url", cfg.Provider.BaseURL),
		zap.String("index_path", cfg.Index.Path),
	)

	// 初始化快取：Redis 未啟用時改用行程內快取
	var cacheStore cache.Store
	if cfg.Cache.Enabled {
		redisStore, err := cache.NewRedisStore(&cfg.Cache)
		if err != nil {
			common.LogFatal("Failed to initialize Redis cache", zap.Error(err))
		}
		cacheStore = redisStore
	} else {
		cacheStore = cache.NewMemoryStore(cfg.Cache.TTL, 10*time.Minute)
	}
	defer cacheStore.Close()

	// 初始化本地搜尋索引
	searchIndex, err := index.NewSQLiteIndex(cfg.Index.Path)
	if err != nil {
		common.LogFatal("Failed to open search index", zap.Error(err))
	}
	defer searchIndex.Close()

	// 設置路由
	router, err := api.SetupRouter(cfg, cacheStore, searchIndex)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
