package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nutrition-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 行程內 TTL 快取，Redis 未啟用時的替代方案
type MemoryStore struct {
	mu         sync.RWMutex
	store      map[string]memoryEntry
	defaultTTL time.Duration
	done       chan struct{}
	closeOnce  sync.Once

	hits   int64
	misses int64
}

// memoryEntry 快取條目
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore 創建行程內快取
func NewMemoryStore(defaultTTL, cleanupInterval time.Duration) *MemoryStore {
	m := &MemoryStore{
		store:      make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		done:       make(chan struct{}),
	}

	// 啟動清理過期條目的協程
	go m.startCleanup(cleanupInterval)

	common.LogInfo("行程內快取已初始化",
		zap.Duration("存活時間", defaultTTL),
		zap.Duration("清理間隔", cleanupInterval),
	)

	return m
}

// Get 獲取快取值
func (m *MemoryStore) Get(ctx context.Context, namespace, key string, v interface{}) error {
	m.mu.RLock()
	entry, exists := m.store[namespace+":"+key]
	m.mu.RUnlock()

	if !exists || time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		if exists {
			delete(m.store, namespace+":"+key)
		}
		m.misses++
		m.mu.Unlock()
		return common.ErrCacheMiss
	}

	m.mu.Lock()
	m.hits++
	m.mu.Unlock()

	return common.ParseJSONBytes(entry.value, v)
}

// Set 設置快取值
func (m *MemoryStore) Set(ctx context.Context, namespace, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	m.store[namespace+":"+key] = memoryEntry{
		value:     data,
		expiresAt: time.Now().Add(ttl),
	}
	m.mu.Unlock()
	return nil
}

// Stats 回傳命中與未命中次數
func (m *MemoryStore) Stats() (hits, misses int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}

// startCleanup 定期清理過期條目
func (m *MemoryStore) startCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.done:
			return
		}
	}
}

// cleanup 移除所有已過期的條目
func (m *MemoryStore) cleanup() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
		}
	}

	if count > 0 {
		common.LogDebug("快取清理執行",
			zap.Int("清理數量", count),
			zap.Int("剩餘數量", len(m.store)),
		)
	}
}

// Close 關閉快取
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		m.store = make(map[string]memoryEntry)
		m.mu.Unlock()
	})
	return nil
}
