package scale

import (
	"math"

	"nutrition-resolver/internal/pkg/common"
)

// 縮放後單項熱量的合理範圍，超出即視為錯誤匹配
// 防止資料庫誤配在小分量上產出離譜數值
const (
	minCaloriesPerItem = 0
	maxCaloriesPerItem = 10000
)

// round1 四捨五入到小數點後一位
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Scale 把每 100 單位的參考營養素換算為實際分量的營養素
// 熱量取整數，巨量營養素取一位小數
// 縮放結果超出合理範圍時回傳 common.ErrInvalidMatch，由上層降級為推估
func Scale(food common.ReferenceFood, portionUnits float64) (common.Nutrients, error) {
	factor := portionUnits / 100

	scaled := common.Nutrients{
		Calories:     math.Round(food.Per100.Calories * factor),
		Protein:      round1(food.Per100.Protein * factor),
		Fat:          round1(food.Per100.Fat * factor),
		Carbs:        round1(food.Per100.Carbs * factor),
		Fiber:        round1(food.Per100.Fiber * factor),
		Sugars:       round1(food.Per100.Sugars * factor),
		SaturatedFat: round1(food.Per100.SaturatedFat * factor),
	}

	if scaled.Calories < minCaloriesPerItem || scaled.Calories > maxCaloriesPerItem || scaled.HasNegative() {
		return common.Nutrients{}, common.ErrInvalidMatch
	}

	return scaled, nil
}
