package search

import (
	"context"
	"fmt"
	"time"

	"nutrition-resolver/internal/core/nutrition/cache"
	"nutrition-resolver/internal/core/nutrition/provider"
	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

const cacheNamespace = "search"

// Index 本地搜尋索引介面
type Index interface {
	Search(ctx context.Context, query string, limit int) ([]common.ReferenceFood, error)
	UpsertBatch(ctx context.Context, foods []common.ReferenceFood) error
}

// Service 搜尋與排序引擎
// 先查本地索引，不足 k 筆可用候選時再查遠端並把新紀錄回寫索引
type Service struct {
	index    Index
	provider provider.Provider
	cache    cache.Store
	cfg      *config.ResolutionConfig
	cacheTTL time.Duration
}

// NewService 創建搜尋服務
func NewService(idx Index, prov provider.Provider, store cache.Store, cfg *config.ResolutionConfig, cacheTTL time.Duration) *Service {
	return &Service{
		index:    idx,
		provider: prov,
		cache:    store,
		cfg:      cfg,
		cacheTTL: cacheTTL,
	}
}

// Search 搜尋參考食品並回傳依分數遞減排序的前 k 筆候選
// 供應商失敗不是硬錯誤：本地亦無候選時回傳空切片，由上層降級為推估
func (s *Service) Search(ctx context.Context, query string, k int, minScore float64, expected common.Category) ([]common.MatchCandidate, error) {
	queryNorm := common.NormalizeQuery(query)
	if queryNorm == "" {
		return nil, common.NewValidationError("empty search query")
	}
	if k <= 0 {
		k = s.cfg.TopK
	}

	// 快取鍵由正規化查詢與選項導出，重複查詢冪等
	cacheKey := common.HashKey(fmt.Sprintf("%s|k=%d|min=%.2f|cat=%s", queryNorm, k, minScore, expected))

	if s.cache != nil {
		var cached []common.MatchCandidate
		if err := s.cache.Get(ctx, cacheNamespace, cacheKey, &cached); err == nil {
			common.LogCacheHit(cacheNamespace, cacheKey)
			return cached, nil
		} else if err != common.ErrCacheMiss && err != common.ErrCacheDisabled {
			// 快取錯誤一律非致命，視為未命中繼續
			common.LogWarn("讀取搜尋快取失敗", zap.Error(err))
		} else {
			common.LogCacheMiss(cacheNamespace, cacheKey)
		}
	}

	// 第一層：本地索引
	var foods []common.ReferenceFood
	if s.index != nil {
		local, err := s.index.Search(ctx, queryNorm, k*4)
		if err != nil {
			common.LogWarn("本地索引查詢失敗", zap.Error(err))
		} else {
			foods = local
		}
	}

	// 可用候選不足 k 筆時查詢遠端並合併
	if s.countUsable(queryNorm, foods, minScore, expected) < k && s.provider != nil {
		foods = s.mergeRemote(ctx, queryNorm, k, foods)
	}

	candidates := rankCandidates(queryNorm, foods, expected)
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	if s.cache != nil && len(candidates) > 0 {
		if err := s.cache.Set(ctx, cacheNamespace, cacheKey, candidates, s.cacheTTL); err != nil {
			common.LogWarn("寫入搜尋快取失敗", zap.Error(err))
		}
	}

	return candidates, nil
}

// countUsable 計算分數達門檻的候選數
func (s *Service) countUsable(queryNorm string, foods []common.ReferenceFood, minScore float64, expected common.Category) int {
	usable := 0
	for _, f := range foods {
		if scoreCandidate(queryNorm, f, expected) >= minScore {
			usable++
		}
	}
	return usable
}

// mergeRemote 查詢遠端供應商並把新紀錄合併進候選集
// 新取得的紀錄以有界批次回寫本地索引（write-through）
func (s *Service) mergeRemote(ctx context.Context, queryNorm string, k int, local []common.ReferenceFood) []common.ReferenceFood {
	remote, err := s.provider.Search(ctx, queryNorm, k*4)
	if err != nil {
		// 限流與供應商不可用都只降級，不中斷搜尋
		common.LogWarn("遠端參考資料庫查詢失敗",
			zap.String("query", queryNorm),
			zap.Bool("rate_limited", common.IsRateLimitError(err)),
			zap.Error(err),
		)
		return local
	}

	seen := make(map[string]bool, len(local))
	for _, f := range local {
		seen[f.ID] = true
	}

	merged := local
	var fetched []common.ReferenceFood
	for _, f := range remote {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		merged = append(merged, f)
		fetched = append(fetched, f)
	}

	// 回寫上限避免單次呼叫造成無界寫入
	if s.index != nil && len(fetched) > 0 {
		limit := s.cfg.WriteThroughLimit
		if limit <= 0 {
			limit = 25
		}
		if len(fetched) > limit {
			fetched = fetched[:limit]
		}
		if err := s.index.UpsertBatch(ctx, fetched); err != nil {
			common.LogWarn("回寫搜尋索引失敗",
				zap.Int("count", len(fetched)),
				zap.Error(err),
			)
		}
	}

	return merged
}
