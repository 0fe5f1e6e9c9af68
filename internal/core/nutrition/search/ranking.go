package search

import (
	"sort"
	"strings"

	"nutrition-resolver/internal/pkg/common"
)

// 層級加分：同分時高優先層級勝出，量級小到不會翻轉明顯的相似度差距
const (
	bonusBranded    = 0.06
	bonusFoundation = 0.04
	bonusSurvey     = 0.02
	bonusLegacy     = 0.0

	// 品類不一致懲罰，大到足以把候選壓到接受門檻之下
	categoryPenalty = 0.35
)

// trivialTokens 不具鑑別力的 token，不計入接受規則的共享 token 檢查
var trivialTokens = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true,
	"with": true, "in": true, "on": true, "or": true, "for": true,
	"raw": true, "fresh": true, "plain": true, "style": true,
	"per": true, "serving": true, "cup": true, "oz": true,
}

// drinkInconsistentKeywords 預期飲品時的矛盾關鍵字（甜點、固體食物）
var drinkInconsistentKeywords = []string{
	"yogurt", "yoghurt", "dessert", "cake", "pudding", "custard",
	"bar", "cereal", "candy", "cookie", "ice cream", "mousse", "pie",
}

// solidInconsistentKeywords 預期固體食物時的矛盾關鍵字（飲品）
var solidInconsistentKeywords = []string{
	"juice", "beverage", "drink", "soda", "nectar", "smoothie",
	"lemonade", "cocktail", "soft drink", "cola",
}

// tierBonus 回傳層級加分
func tierBonus(t common.Tier) float64 {
	switch t {
	case common.TierBranded:
		return bonusBranded
	case common.TierFoundation:
		return bonusFoundation
	case common.TierSurvey:
		return bonusSurvey
	default:
		return bonusLegacy
	}
}

// similarity 計算正規化查詢與描述的 token 相似度（Dice 係數）
func similarity(queryNorm, descriptionNorm string) float64 {
	qTokens := strings.Fields(queryNorm)
	dTokens := strings.Fields(descriptionNorm)
	if len(qTokens) == 0 || len(dTokens) == 0 {
		return 0
	}

	dSet := make(map[string]bool, len(dTokens))
	for _, t := range dTokens {
		dSet[t] = true
	}

	matched := 0
	for _, t := range qTokens {
		if dSet[t] {
			matched++
		}
	}

	return float64(2*matched) / float64(len(qTokens)+len(dTokens))
}

// categoryInconsistent 檢查描述是否包含與預期品類矛盾的關鍵字
func categoryInconsistent(descriptionNorm string, expected common.Category) bool {
	var keywords []string
	switch expected {
	case common.CategoryDrink:
		keywords = drinkInconsistentKeywords
	case common.CategorySolid:
		keywords = solidInconsistentKeywords
	default:
		return false
	}

	for _, kw := range keywords {
		if strings.Contains(descriptionNorm, kw) {
			return true
		}
	}
	return false
}

// scoreCandidate 計算單一候選的最終分數
// base = 文字相似度；加上層級加分；品類矛盾時扣除懲罰
func scoreCandidate(queryNorm string, food common.ReferenceFood, expected common.Category) float64 {
	descNorm := common.NormalizeQuery(food.Description)

	score := similarity(queryNorm, descNorm) + tierBonus(food.Tier)
	if categoryInconsistent(descNorm, expected) {
		score -= categoryPenalty
	}

	return common.Clamp01(score)
}

// rankCandidates 為所有候選評分並依分數遞減排序
// 同分時依層級優先序，再依 ID 保持排序確定性
func rankCandidates(queryNorm string, foods []common.ReferenceFood, expected common.Category) []common.MatchCandidate {
	candidates := make([]common.MatchCandidate, 0, len(foods))
	for _, f := range foods {
		candidates = append(candidates, common.MatchCandidate{
			Food:  f,
			Score: scoreCandidate(queryNorm, f, expected),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Food.Tier.Rank() != candidates[j].Food.Tier.Rank() {
			return candidates[i].Food.Tier.Rank() < candidates[j].Food.Tier.Rank()
		}
		return candidates[i].Food.ID < candidates[j].Food.ID
	})

	return candidates
}

// sharesNonTrivialToken 檢查查詢與描述是否共享至少一個有鑑別力的 token
func sharesNonTrivialToken(queryNorm, description string) bool {
	descNorm := common.NormalizeQuery(description)
	dSet := make(map[string]bool)
	for _, t := range strings.Fields(descNorm) {
		if !trivialTokens[t] {
			dSet[t] = true
		}
	}

	for _, t := range strings.Fields(queryNorm) {
		if !trivialTokens[t] && dSet[t] {
			return true
		}
	}
	return false
}

// Accept 接受規則：最佳候選分數達門檻且與查詢共享至少一個有鑑別力的 token
func Accept(query string, candidate common.MatchCandidate, minScore float64) bool {
	if candidate.Score < minScore {
		return false
	}
	return sharesNonTrivialToken(common.NormalizeQuery(query), candidate.Food.Description)
}
