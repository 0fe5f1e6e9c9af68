package cache

import (
	"context"
	"time"
)

// Store 命名空間化的 TTL 鍵值快取
// 所有錯誤皆為非致命：呼叫端記錄後視為未命中繼續執行
type Store interface {
	// Get 讀取快取並反序列化到 v，未命中回傳 common.ErrCacheMiss
	Get(ctx context.Context, namespace, key string, v interface{}) error

	// Set 寫入快取，ttl <= 0 時使用預設存活時間
	Set(ctx context.Context, namespace, key string, v interface{}, ttl time.Duration) error

	// Close 關閉快取連線
	Close() error
}
