package fallback

import (
	"math"
	"strings"

	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

// waterKeywords 零熱量判定的正向關鍵字（含支援地區語系的變體）
var waterKeywords = []string{
	"water", "mineral water", "sparkling water", "still water", "spring water",
	"agua", "eau", "wasser", "acqua", "woda",
	"水", "礦泉水", "氣泡水", "開水", "白開水",
}

// waterExclusions 排除關鍵字：含糖或調味飲品即使帶有 water 字樣也不得判為零熱量
var waterExclusions = []string{
	"juice", "soda", "lemonade", "sweetened", "syrup", "flavored", "flavoured",
	"tonic", "coconut", "sugar", "cola", "nectar",
	"果汁", "汽水", "檸檬水", "含糖",
}

// beverageDensities 已知飲品的每 100ml 熱量表
// 與固體食物密度分開，250ml 的黑咖啡不會被當成 250g 的混合食物
var beverageDensities = map[string]float64{
	"black coffee": 2,
	"coffee":       2,
	"espresso":     9,
	"americano":    2,
	"tea":          1,
	"green tea":    1,
	"black tea":    1,
	"herbal tea":   1,
	"cappuccino":   30,
	"latte":        42,
	"milk":         61,
	"soy milk":     45,
	"咖啡":           2,
	"黑咖啡":          2,
	"濃縮咖啡":         9,
	"茶":            1,
	"綠茶":           1,
	"紅茶":           1,
	"拿鐵":           42,
	"牛奶":           61,
}

// drinkHintKeywords 品類推斷用的飲品關鍵字
var drinkHintKeywords = []string{
	"juice", "coffee", "tea", "milk", "soda", "cola", "smoothie", "drink",
	"beverage", "latte", "cappuccino", "espresso", "water", "lemonade", "beer", "wine",
	"汁", "咖啡", "茶", "奶", "飲", "水", "酒",
}

// 通用推估的巨量營養素比例（每公克食物的蛋白質/脂肪/碳水公克數）
const (
	solidProteinRatio = 0.05
	solidFatRatio     = 0.05
	solidCarbRatio    = 0.15

	drinkProteinRatio = 0.01
	drinkFatRatio     = 0.01
	drinkCarbRatio    = 0.06
)

// 查表飲品的熱量來自密度表，巨量營養素必須與該熱量一致
// 以固定能量占比回推公克數，不得從分量重量另行導出
const (
	tableProteinShare = 0.15
	tableFatShare     = 0.20
	tableCarbShare    = 0.65
)

// Estimator 無匹配時的營養推估器，永不失敗
type Estimator struct {
	cfg *config.ResolutionConfig
}

// NewEstimator 創建推估器
func NewEstimator(cfg *config.ResolutionConfig) *Estimator {
	return &Estimator{cfg: cfg}
}

// IsZeroCalorie 零熱量分類器：命中正向關鍵字且未命中排除關鍵字時成立
// 命中時上層直接短路回傳全零項目，不進入搜尋
func IsZeroCalorie(name string) bool {
	norm := common.NormalizeQuery(name)
	if norm == "" {
		return false
	}

	for _, excl := range waterExclusions {
		if strings.Contains(norm, excl) {
			return false
		}
	}
	for _, kw := range waterKeywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}

// InferCategory 以名稱與料理方式的關鍵字推斷品類
func InferCategory(name, preparation string) common.Category {
	norm := common.NormalizeQuery(name + " " + preparation)
	for _, kw := range drinkHintKeywords {
		if strings.Contains(norm, kw) {
			return common.CategoryDrink
		}
	}
	if norm == "" {
		return common.CategoryUnknown
	}
	return common.CategorySolid
}

// ZeroItem 建立全零營養項目（零熱量短路用）
func ZeroItem(component common.RecognizedComponent, portionGrams float64) common.ResolvedItem {
	return common.ResolvedItem{
		Name:         component.Name,
		Nutrients:    common.Nutrients{},
		PortionGrams: portionGrams,
		Source:       common.SourceHeuristic,
		Heuristic:    true,
		Confidence:   component.Confidence,
	}
}

// Estimate 依優先序推估營養值：零熱量分類 → 已知飲品密度表 → 通用密度推估
// 所有輸出都標記為 heuristic
func (e *Estimator) Estimate(component common.RecognizedComponent, expected common.Category) common.ResolvedItem {
	portion := common.Clamp(component.EstimatedPortionGrams, e.cfg.PortionMinGrams, e.cfg.PortionMaxGrams)

	// 1. 零熱量分類
	if IsZeroCalorie(component.Name) {
		return ZeroItem(component, portion)
	}

	norm := common.NormalizeQuery(component.Name)

	// 2. 已知飲品密度表
	if per100ml, ok := lookupBeverage(norm); ok {
		calories := math.Round(per100ml * portion / 100)
		common.LogDebug("以飲品密度表推估",
			zap.String("name", component.Name),
			zap.Float64("per_100ml", per100ml),
		)
		return common.ResolvedItem{
			Name:         component.Name,
			Nutrients:    tableNutrients(calories),
			PortionGrams: portion,
			Source:       common.SourceHeuristic,
			Heuristic:    true,
			Confidence:   component.Confidence,
		}
	}

	// 3. 通用推估：依品類選密度常數
	var calories float64
	category := expected
	if category == common.CategoryUnknown {
		category = InferCategory(component.Name, component.Preparation)
	}
	if category == common.CategoryDrink {
		calories = math.Round(e.cfg.DrinkDensityPer100ml * portion / 100)
	} else {
		calories = math.Round(e.cfg.SolidDensityPerGram * portion)
	}

	return common.ResolvedItem{
		Name:         component.Name,
		Nutrients:    heuristicNutrients(calories, portion, category),
		PortionGrams: portion,
		Source:       common.SourceHeuristic,
		Heuristic:    true,
		Confidence:   component.Confidence,
	}
}

// lookupBeverage 於飲品密度表中尋找最長的關鍵字匹配
func lookupBeverage(norm string) (float64, bool) {
	bestLen := 0
	var best float64
	for kw, per100ml := range beverageDensities {
		if strings.Contains(norm, kw) && len(kw) > bestLen {
			bestLen = len(kw)
			best = per100ml
		}
	}
	return best, bestLen > 0
}

// tableNutrients 從查表熱量以能量占比回推巨量營養素
// 蛋白質與碳水 4 kcal/g，脂肪 9 kcal/g
func tableNutrients(calories float64) common.Nutrients {
	round1 := func(v float64) float64 { return math.Round(v*10) / 10 }

	return common.Nutrients{
		Calories: calories,
		Protein:  round1(calories * tableProteinShare / 4),
		Fat:      round1(calories * tableFatShare / 9),
		Carbs:    round1(calories * tableCarbShare / 4),
	}
}

// heuristicNutrients 依固定比例從分量導出巨量營養素
func heuristicNutrients(calories, portion float64, category common.Category) common.Nutrients {
	var proteinRatio, fatRatio, carbRatio float64
	if category == common.CategoryDrink {
		proteinRatio, fatRatio, carbRatio = drinkProteinRatio, drinkFatRatio, drinkCarbRatio
	} else {
		proteinRatio, fatRatio, carbRatio = solidProteinRatio, solidFatRatio, solidCarbRatio
	}

	round1 := func(v float64) float64 { return math.Round(v*10) / 10 }

	return common.Nutrients{
		Calories: calories,
		Protein:  round1(portion * proteinRatio),
		Fat:      round1(portion * fatRatio),
		Carbs:    round1(portion * carbRatio),
	}
}
