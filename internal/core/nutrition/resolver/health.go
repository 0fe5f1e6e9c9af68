package resolver

import (
	"math"

	"nutrition-resolver/internal/pkg/common"
)

// 巨量營養素目標區間（佔總熱量的比例）與評分權重
// 健康分數是聚合營養素的純函數，輸入相同必得相同分數
const (
	proteinShareLow  = 0.15
	proteinShareHigh = 0.35

	carbShareLow  = 0.45
	carbShareHigh = 0.65

	fiberPer1000Kcal = 14.0 // 充足標準

	sugarShareCap  = 0.10 // 超過開始扣分
	satFatShareCap = 0.10

	weightProtein = 0.25
	weightFiber   = 0.20
	weightCarb    = 0.15
	weightSugar   = 0.20
	weightSatFat  = 0.20
)

// HealthScore 計算聚合營養素的健康分數，範圍 [0, 100]
// 衡量蛋白質與纖維是否充足、糖與飽和脂肪是否過量、碳水比例是否落在目標區間
func HealthScore(total common.Nutrients) float64 {
	if total.Calories <= 0 {
		return 0
	}

	proteinShare := total.Protein * 4 / total.Calories
	carbShare := total.Carbs * 4 / total.Calories
	sugarShare := total.Sugars * 4 / total.Calories
	satFatShare := total.SaturatedFat * 9 / total.Calories
	fiberRate := total.Fiber / (total.Calories / 1000)

	score := weightProtein*rangeScore(proteinShare, proteinShareLow, proteinShareHigh) +
		weightCarb*rangeScore(carbShare, carbShareLow, carbShareHigh) +
		weightFiber*common.Clamp01(fiberRate/fiberPer1000Kcal) +
		weightSugar*excessScore(sugarShare, sugarShareCap) +
		weightSatFat*excessScore(satFatShare, satFatShareCap)

	return math.Round(score*1000) / 10
}

// rangeScore 落在目標區間內得滿分，偏離後線性遞減
func rangeScore(v, lo, hi float64) float64 {
	switch {
	case v >= lo && v <= hi:
		return 1
	case v < lo:
		if lo <= 0 {
			return 0
		}
		return common.Clamp01(v / lo)
	default:
		// 超過上限後以相同寬度線性遞減到零
		width := hi - lo
		if width <= 0 {
			return 0
		}
		return common.Clamp01(1 - (v-hi)/width)
	}
}

// excessScore 未超過上限得滿分，超過後線性遞減
func excessScore(v, limit float64) float64 {
	if v <= limit {
		return 1
	}
	return common.Clamp01(1 - (v-limit)/limit)
}
