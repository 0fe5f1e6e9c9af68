package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	"nutrition-resolver/internal/core/nutrition/fallback"
	"nutrition-resolver/internal/core/nutrition/scale"
	"nutrition-resolver/internal/core/nutrition/search"
	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

// Searcher 搜尋與排序引擎介面
type Searcher interface {
	Search(ctx context.Context, query string, k int, minScore float64, expected common.Category) ([]common.MatchCandidate, error)
}

// Service 解析協調器
// 逐成分併發解析，工作數受上限約束；單一成分超時只降級該成分，不中斷整批
type Service struct {
	searcher  Searcher
	estimator *fallback.Estimator
	cfg       *config.ResolutionConfig
}

// NewService 創建解析協調器
func NewService(searcher Searcher, estimator *fallback.Estimator, cfg *config.ResolutionConfig) *Service {
	return &Service{
		searcher:  searcher,
		estimator: estimator,
		cfg:       cfg,
	}
}

// Resolve 解析一組辨識成分為具體營養值
// 回傳結果的項目順序與輸入順序一致
// 單一成分的查詢失敗永不使整體呼叫失敗，最壞情況是更多 heuristic 項目
func (s *Service) Resolve(ctx context.Context, components []common.RecognizedComponent) (*common.MealAnalysisResult, error) {
	if len(components) == 0 {
		return nil, common.NewValidationError("no components to resolve")
	}
	for i := range components {
		if err := components[i].Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	items := make([]common.ResolvedItem, len(components))

	// 固定大小的 semaphore 限制同時在途的解析數，避免打爆供應商
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 6
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i := range components {
		wg.Add(1)
		go func(idx int, component common.RecognizedComponent) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			items[idx] = s.resolveOne(ctx, component)
		}(i, components[i])
	}
	wg.Wait()

	// 聚合：逐項累加營養素後計算健康分數
	var total common.Nutrients
	heuristicCount := 0
	for _, item := range items {
		total.Add(item.Nutrients)
		if item.Heuristic {
			heuristicCount++
		}
	}

	result := &common.MealAnalysisResult{
		Items:       items,
		Total:       total,
		HealthScore: HealthScore(total),
	}

	common.LogInfo("解析完成",
		zap.Int("components", len(components)),
		zap.Int("heuristic_items", heuristicCount),
		zap.Float64("total_calories", total.Calories),
		zap.Float64("health_score", result.HealthScore),
		zap.Duration("耗時", time.Since(start)),
	)

	return result, nil
}

// resolveOne 解析單一成分
// 每成分有獨立 deadline：超時或任何查詢失敗都降級為推估，不回傳錯誤
func (s *Service) resolveOne(ctx context.Context, component common.RecognizedComponent) common.ResolvedItem {
	portion := common.Clamp(component.EstimatedPortionGrams, s.cfg.PortionMinGrams, s.cfg.PortionMaxGrams)
	category := fallback.InferCategory(component.Name, component.Preparation)

	// 1. 零熱量分類器命中時直接短路，完全跳過搜尋
	if fallback.IsZeroCalorie(component.Name) {
		common.LogDebug("零熱量分類命中",
			zap.String("name", component.Name),
		)
		return fallback.ZeroItem(component, portion)
	}

	cctx := ctx
	if s.cfg.ComponentTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.cfg.ComponentTimeout)
		defer cancel()
	}

	// 2. 搜尋與排序
	query := strings.TrimSpace(component.Name + " " + component.Preparation)
	candidates, err := s.searcher.Search(cctx, query, s.cfg.TopK, s.cfg.MinAcceptScore, category)
	if err != nil {
		common.LogWarn("成分搜尋失敗，降級為推估",
			zap.String("name", component.Name),
			zap.Error(err),
		)
		return s.estimator.Estimate(component, category)
	}

	// 3. 接受規則通過且縮放驗證成功才視為匹配
	if len(candidates) > 0 && search.Accept(query, candidates[0], s.cfg.MinAcceptScore) {
		top := candidates[0]
		nutrients, err := scale.Scale(top.Food, portion)
		if err == nil {
			return common.ResolvedItem{
				Name:         component.Name,
				Nutrients:    nutrients,
				PortionGrams: portion,
				Source:       common.MatchedSource(top.Food.ID),
				Heuristic:    false,
				Confidence:   component.Confidence,
			}
		}
		// 縮放失敗代表匹配不可信，落入推估
		common.LogWarn("縮放驗證失敗，降級為推估",
			zap.String("name", component.Name),
			zap.String("reference_food_id", top.Food.ID),
			zap.Float64("score", top.Score),
		)
	}

	// 4. 無可接受匹配
	return s.estimator.Estimate(component, category)
}
