package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// RedisStore Redis 快取服務
type RedisStore struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewRedisStore 創建 Redis 快取服務
func NewRedisStore(cfg *config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取快取
func (s *RedisStore) Get(ctx context.Context, namespace, key string, v interface{}) error {
	data, err := s.client.Get(ctx, s.fullKey(namespace, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return common.ErrCacheMiss
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := common.ParseJSONBytes(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	return nil
}

// Set 設置快取
func (s *RedisStore) Set(ctx context.Context, namespace, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if ttl <= 0 {
		ttl = s.config.TTL
	}

	if err := s.client.Set(ctx, s.fullKey(namespace, key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// fullKey 組出帶命名空間的快取鍵
func (s *RedisStore) fullKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.config.Namespace, namespace, key)
}

// Close 關閉 Redis 連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
