package provider

import (
	"strings"

	"nutrition-resolver/internal/pkg/common"
)

// searchResponse 搜尋端點回應
type searchResponse struct {
	Foods []foodRecord `json:"foods"`
}

// foodRecord 單筆食品紀錄，依 data_type 決定有效欄位
// 各層級只攜帶自己實際提供的欄位，於邊界統一轉換為 ReferenceFood
type foodRecord struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	DataType    string `json:"data_type"`

	// branded：標示營養素（每份）加上每份重量
	LabelNutrients *labelNutrients `json:"label_nutrients,omitempty"`
	ServingSize    float64         `json:"serving_size,omitempty"`

	// foundation / survey：營養素陣列（每 100 單位）
	Nutrients []nutrientEntry `json:"nutrients,omitempty"`

	// legacy：攤平的每 100 單位欄位
	CaloriesPer100 float64 `json:"calories_per_100,omitempty"`
	ProteinPer100  float64 `json:"protein_per_100,omitempty"`
	FatPer100      float64 `json:"fat_per_100,omitempty"`
	CarbsPer100    float64 `json:"carbs_per_100,omitempty"`
}

// labelNutrients branded 層級的標示營養素
type labelNutrients struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Fat          float64 `json:"fat"`
	Carbs        float64 `json:"carbohydrates"`
	Fiber        float64 `json:"fiber"`
	Sugars       float64 `json:"sugars"`
	SaturatedFat float64 `json:"saturated_fat"`
}

// nutrientEntry foundation / survey 層級的營養素條目
type nutrientEntry struct {
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	AmountPer100 float64 `json:"amount_per_100"`
}

// parseTier 將供應商 data_type 對應到內部層級
func parseTier(dataType string) common.Tier {
	switch strings.ToLower(strings.TrimSpace(dataType)) {
	case "branded":
		return common.TierBranded
	case "foundation":
		return common.TierFoundation
	case "survey", "survey_fndds":
		return common.TierSurvey
	default:
		return common.TierLegacy
	}
}

// normalize 將單筆供應商紀錄轉換為內部 ReferenceFood
// 無法得出合理每 100 單位營養素時回傳 false
func (r foodRecord) normalize() (common.ReferenceFood, bool) {
	if r.ID == "" || strings.TrimSpace(r.Description) == "" {
		return common.ReferenceFood{}, false
	}

	tier := parseTier(r.DataType)
	var per100 common.Nutrients

	switch {
	case tier == common.TierBranded && r.LabelNutrients != nil:
		// 標示值為每份，換算回每 100 單位
		factor := 1.0
		if r.ServingSize > 0 {
			factor = 100 / r.ServingSize
		}
		per100 = common.Nutrients{
			Calories:     r.LabelNutrients.Calories * factor,
			Protein:      r.LabelNutrients.Protein * factor,
			Fat:          r.LabelNutrients.Fat * factor,
			Carbs:        r.LabelNutrients.Carbs * factor,
			Fiber:        r.LabelNutrients.Fiber * factor,
			Sugars:       r.LabelNutrients.Sugars * factor,
			SaturatedFat: r.LabelNutrients.SaturatedFat * factor,
		}

	case len(r.Nutrients) > 0:
		for _, n := range r.Nutrients {
			switch strings.ToLower(n.Name) {
			case "energy", "calories":
				per100.Calories = n.AmountPer100
			case "protein":
				per100.Protein = n.AmountPer100
			case "total lipid (fat)", "fat":
				per100.Fat = n.AmountPer100
			case "carbohydrate, by difference", "carbohydrates", "carbs":
				per100.Carbs = n.AmountPer100
			case "fiber, total dietary", "fiber":
				per100.Fiber = n.AmountPer100
			case "sugars, total", "sugars":
				per100.Sugars = n.AmountPer100
			case "fatty acids, total saturated", "saturated fat":
				per100.SaturatedFat = n.AmountPer100
			}
		}

	default:
		per100 = common.Nutrients{
			Calories: r.CaloriesPer100,
			Protein:  r.ProteinPer100,
			Fat:      r.FatPer100,
			Carbs:    r.CarbsPer100,
		}
	}

	// 邊界檢查：負值或離譜熱量一律丟棄
	if per100.HasNegative() || per100.Calories > 10000 {
		return common.ReferenceFood{}, false
	}

	return common.ReferenceFood{
		ID:          r.ID,
		Description: r.Description,
		Tier:        tier,
		Per100:      per100,
		Source:      common.SourceRemoteFetch,
	}, true
}
