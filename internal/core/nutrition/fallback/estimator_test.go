package fallback

import (
	"testing"

	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"
)

func testConfig() *config.ResolutionConfig {
	return &config.ResolutionConfig{
		SolidDensityPerGram:  1.2,
		DrinkDensityPer100ml: 30.0,
		PortionMinGrams:      10,
		PortionMaxGrams:      800,
	}
}

func TestIsZeroCalorie(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"water", true},
		{"Mineral Water", true},
		{"sparkling water", true},
		{"still  water", true},
		{"礦泉水", true},
		{"白開水", true},
		{"orange juice", false},
		{"sparkling lemonade", false},
		{"coconut water", false}, // 椰子水有熱量
		{"tonic water", false},
		{"sugar water", false},
		{"chicken breast", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsZeroCalorie(tt.name); got != tt.want {
				t.Errorf("IsZeroCalorie(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		name        string
		preparation string
		want        common.Category
	}{
		{"apple juice", "", common.CategoryDrink},
		{"black coffee", "", common.CategoryDrink},
		{"綠茶", "", common.CategoryDrink},
		{"chicken breast", "grilled", common.CategorySolid},
		{"rice", "steamed", common.CategorySolid},
		{"", "", common.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.preparation, func(t *testing.T) {
			if got := InferCategory(tt.name, tt.preparation); got != tt.want {
				t.Errorf("InferCategory(%q, %q) = %v, want %v", tt.name, tt.preparation, got, tt.want)
			}
		})
	}
}

func TestEstimateZeroCalorieShortcut(t *testing.T) {
	e := NewEstimator(testConfig())

	item := e.Estimate(common.RecognizedComponent{
		Name:                  "mineral water",
		EstimatedPortionGrams: 250,
		Confidence:            0.9,
	}, common.CategoryUnknown)

	if item.Nutrients != (common.Nutrients{}) {
		t.Errorf("zero-calorie item should have all-zero nutrients, got %+v", item.Nutrients)
	}
	if !item.Heuristic {
		t.Error("zero-calorie item should be marked heuristic")
	}
	if item.Source != common.SourceHeuristic {
		t.Errorf("Source = %q, want %q", item.Source, common.SourceHeuristic)
	}
	if item.PortionGrams != 250 {
		t.Errorf("PortionGrams = %v, want 250", item.PortionGrams)
	}
}

func TestEstimateBeverageTable(t *testing.T) {
	e := NewEstimator(testConfig())

	// 黑咖啡查表：每 100ml 2 kcal，250ml → 5 kcal
	item := e.Estimate(common.RecognizedComponent{
		Name:                  "black coffee",
		EstimatedPortionGrams: 250,
	}, common.CategoryDrink)

	if item.Nutrients.Calories != 5 {
		t.Errorf("Calories = %v, want 5", item.Nutrients.Calories)
	}
	if !item.Heuristic {
		t.Error("table-based estimate should be marked heuristic")
	}

	// 巨量營養素的能量必須與查表熱量一致，不得從 250g 分量另行導出
	macroEnergy := item.Nutrients.Protein*4 + item.Nutrients.Fat*9 + item.Nutrients.Carbs*4
	if macroEnergy > item.Nutrients.Calories*1.2 {
		t.Errorf("macro energy %v inconsistent with table calories %v", macroEnergy, item.Nutrients.Calories)
	}
}

func TestEstimateDensityByCategory(t *testing.T) {
	e := NewEstimator(testConfig())

	// 固體 150g：1.2 kcal/g → 180 kcal
	solid := e.Estimate(common.RecognizedComponent{
		Name:                  "mystery casserole",
		EstimatedPortionGrams: 150,
	}, common.CategorySolid)
	if solid.Nutrients.Calories != 180 {
		t.Errorf("solid Calories = %v, want 180", solid.Nutrients.Calories)
	}

	// 飲品 200ml：30 kcal/100ml → 60 kcal，與同分量固體差異顯著
	drink := e.Estimate(common.RecognizedComponent{
		Name:                  "fruit punch drink",
		EstimatedPortionGrams: 200,
	}, common.CategoryDrink)
	if drink.Nutrients.Calories != 60 {
		t.Errorf("drink Calories = %v, want 60", drink.Nutrients.Calories)
	}

	if solid.Nutrients.Calories <= drink.Nutrients.Calories {
		t.Error("solid estimate should exceed drink estimate at comparable portions")
	}
}

func TestEstimatePortionClamp(t *testing.T) {
	e := NewEstimator(testConfig())

	tests := []struct {
		name    string
		portion float64
		want    float64
	}{
		{"低於下限夾到 10", 2, 10},
		{"高於上限夾到 800", 5000, 800},
		{"區間內不變", 150, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := e.Estimate(common.RecognizedComponent{
				Name:                  "mystery casserole",
				EstimatedPortionGrams: tt.portion,
			}, common.CategorySolid)
			if item.PortionGrams != tt.want {
				t.Errorf("PortionGrams = %v, want %v", item.PortionGrams, tt.want)
			}
		})
	}
}
