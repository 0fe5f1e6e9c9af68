package common

import (
	"fmt"
	"strings"
)

// Category 食物品類，用於搜尋一致性檢查與熱量密度推估
type Category string

const (
	CategoryDrink   Category = "drink"
	CategorySolid   Category = "solid"
	CategoryUnknown Category = "unknown"
)

// Tier 參考食品資料層級，僅有全序關係，無固定數值
// branded > foundation > survey > legacy
type Tier string

const (
	TierBranded    Tier = "branded"
	TierFoundation Tier = "foundation"
	TierSurvey     Tier = "survey"
	TierLegacy     Tier = "legacy"
)

// Rank 回傳層級優先順序，數字越小優先度越高
func (t Tier) Rank() int {
	switch t {
	case TierBranded:
		return 0
	case TierFoundation:
		return 1
	case TierSurvey:
		return 2
	default:
		return 3
	}
}

// 食品來源標記
const (
	SourceLocalIndex  = "local-index"
	SourceRemoteFetch = "remote-fetch"
	SourceHeuristic   = "heuristic"
)

// RecognizedComponent 辨識服務輸出的單一食物成分，為不可變輸入
type RecognizedComponent struct {
	Name                  string  `json:"name"`
	Preparation           string  `json:"preparation"`
	EstimatedPortionGrams float64 `json:"estimated_portion_grams"`
	Confidence            float64 `json:"confidence"`
}

// Validate 檢查輸入成分是否合法
func (c *RecognizedComponent) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("component name is required")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return NewValidationError(fmt.Sprintf("confidence out of range: %f", c.Confidence))
	}
	return nil
}

// Nutrients 營養素集合，所有欄位皆不得為負
type Nutrients struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Fat          float64 `json:"fat"`
	Carbs        float64 `json:"carbs"`
	Fiber        float64 `json:"fiber"`
	Sugars       float64 `json:"sugars"`
	SaturatedFat float64 `json:"saturated_fat"`
}

// Add 累加另一組營養素
func (n *Nutrients) Add(o Nutrients) {
	n.Calories += o.Calories
	n.Protein += o.Protein
	n.Fat += o.Fat
	n.Carbs += o.Carbs
	n.Fiber += o.Fiber
	n.Sugars += o.Sugars
	n.SaturatedFat += o.SaturatedFat
}

// HasNegative 檢查是否存在負值欄位
func (n Nutrients) HasNegative() bool {
	return n.Calories < 0 || n.Protein < 0 || n.Fat < 0 ||
		n.Carbs < 0 || n.Fiber < 0 || n.Sugars < 0 || n.SaturatedFat < 0
}

// ReferenceFood 參考食品紀錄，每 100 單位（g 或 ml）的營養素
type ReferenceFood struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Tier        Tier      `json:"tier"`
	Per100      Nutrients `json:"per_100"`
	Source      string    `json:"source"`
}

// MatchCandidate 搜尋候選，僅在單次解析呼叫中存活
type MatchCandidate struct {
	Food  ReferenceFood `json:"food"`
	Score float64       `json:"score"`
}

// ResolvedItem 單一成分的解析結果
// Heuristic 為 true 時表示數值來自推估而非查表，消費端必須能辨識
type ResolvedItem struct {
	Name         string    `json:"name"`
	Nutrients    Nutrients `json:"nutrients"`
	PortionGrams float64   `json:"portion_grams"`
	Source       string    `json:"source"`
	Heuristic    bool      `json:"heuristic"`
	Confidence   float64   `json:"confidence"`
}

// MatchedSource 組出 matched:<id> 形式的來源標記
func MatchedSource(referenceFoodID string) string {
	return "matched:" + referenceFoodID
}

// MealAnalysisResult 一餐的解析結果，建構後不再變動
// Items 順序與輸入成分順序一致
type MealAnalysisResult struct {
	Items       []ResolvedItem `json:"items"`
	Total       Nutrients      `json:"total"`
	HealthScore float64        `json:"health_score"`
}

// Clamp 將值限制在 [lo, hi] 區間
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 將值限制在 [0, 1] 區間
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}
