package search

import (
	"math"
	"testing"

	"nutrition-resolver/internal/pkg/common"
)

func food(id, description string, tier common.Tier) common.ReferenceFood {
	return common.ReferenceFood{
		ID:          id,
		Description: description,
		Tier:        tier,
		Per100:      common.Nutrients{Calories: 100},
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		query string
		desc  string
		want  float64
	}{
		{"chicken breast", "chicken breast", 1.0},
		{"chicken breast", "chicken breast raw", 0.8}, // 2*2/(2+3)
		{"chicken breast", "beef steak", 0.0},
		{"chicken", "chicken soup noodle", 0.5}, // 2*1/(1+3)
		{"", "chicken", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.desc, func(t *testing.T) {
			got := similarity(tt.query, tt.desc)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("similarity(%q, %q) = %v, want %v", tt.query, tt.desc, got, tt.want)
			}
		})
	}
}

func TestScoreCandidateTierBonus(t *testing.T) {
	queryNorm := "chicken breast"

	// 同樣描述只差層級：branded > foundation > survey > legacy
	scores := map[common.Tier]float64{}
	for _, tier := range []common.Tier{common.TierBranded, common.TierFoundation, common.TierSurvey, common.TierLegacy} {
		scores[tier] = scoreCandidate(queryNorm, food("x", "chicken breast raw", tier), common.CategoryUnknown)
	}

	if !(scores[common.TierBranded] > scores[common.TierFoundation] &&
		scores[common.TierFoundation] > scores[common.TierSurvey] &&
		scores[common.TierSurvey] > scores[common.TierLegacy]) {
		t.Errorf("tier bonus ordering violated: %v", scores)
	}

	// 加分量級不得翻轉明顯的相似度差距
	strong := scoreCandidate(queryNorm, food("a", "chicken breast raw", common.TierLegacy), common.CategoryUnknown)  // 0.8 + 0
	weak := scoreCandidate(queryNorm, food("b", "chicken soup noodle bowl", common.TierBranded), common.CategoryUnknown) // 0.333 + 0.06
	if weak >= strong {
		t.Errorf("tier bonus flipped a clear similarity gap: weak=%v strong=%v", weak, strong)
	}
}

func TestTierBonusBoundary(t *testing.T) {
	if tierBonus(common.TierBranded) != 0.06 ||
		tierBonus(common.TierFoundation) != 0.04 ||
		tierBonus(common.TierSurvey) != 0.02 ||
		tierBonus(common.TierLegacy) != 0 {
		t.Fatal("tier bonus constants changed")
	}

	// 相似度 0.95 的 foundation 勝過 0.90 的 branded
	if 0.95+tierBonus(common.TierFoundation) <= 0.90+tierBonus(common.TierBranded) {
		t.Error("higher similarity should win despite smaller tier bonus")
	}
	// 相似度差距縮到 0.01 時 branded 靠加分勝出
	if 0.90+tierBonus(common.TierBranded) <= 0.91+tierBonus(common.TierFoundation) {
		t.Error("tier bonus should break near-equal similarity in favor of branded")
	}
}

func TestScoreCandidateCategoryPenalty(t *testing.T) {
	queryNorm := "apple"

	consistent := scoreCandidate(queryNorm, food("a", "apple raw", common.TierBranded), common.CategorySolid)
	inconsistent := scoreCandidate(queryNorm, food("b", "apple juice", common.TierBranded), common.CategorySolid)

	if inconsistent >= consistent {
		t.Errorf("category penalty not applied: consistent=%v inconsistent=%v", consistent, inconsistent)
	}
	// 懲罰足以把候選壓到接受門檻之下
	if inconsistent >= 0.7 {
		t.Errorf("penalized score %v should fall below acceptance threshold", inconsistent)
	}
}

func TestRankCandidatesDeterminism(t *testing.T) {
	foods := []common.ReferenceFood{
		food("id-3", "chicken breast", common.TierFoundation),
		food("id-1", "chicken breast", common.TierFoundation),
		food("id-2", "chicken breast", common.TierFoundation),
	}

	first := rankCandidates("chicken breast", foods, common.CategoryUnknown)
	second := rankCandidates("chicken breast", foods, common.CategoryUnknown)

	wantOrder := []string{"id-1", "id-2", "id-3"}
	for i, want := range wantOrder {
		if first[i].Food.ID != want {
			t.Errorf("rank[%d] = %s, want %s", i, first[i].Food.ID, want)
		}
		if first[i].Food.ID != second[i].Food.ID {
			t.Errorf("ranking not deterministic at position %d", i)
		}
	}
}

func TestRankCandidatesTieBreakByTier(t *testing.T) {
	foods := []common.ReferenceFood{
		food("id-legacy", "apple pie slice", common.TierLegacy),
		food("id-survey", "apple pie slice", common.TierSurvey),
	}

	// 描述相同時 Clamp 前分數差 0.02，survey 排前
	ranked := rankCandidates("apple pie slice", foods, common.CategoryUnknown)
	if ranked[0].Food.ID != "id-survey" {
		t.Errorf("expected survey tier first, got %s", ranked[0].Food.ID)
	}
}

func TestAccept(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate common.MatchCandidate
		minScore  float64
		want      bool
	}{
		{
			name:  "分數達標且共享有鑑別力 token",
			query: "chicken soup",
			candidate: common.MatchCandidate{
				Food:  food("a", "chicken broth soup", common.TierSurvey),
				Score: 0.82,
			},
			minScore: 0.7,
			want:     true,
		},
		{
			name:  "分數不足",
			query: "chicken soup",
			candidate: common.MatchCandidate{
				Food:  food("a", "chicken broth soup", common.TierSurvey),
				Score: 0.5,
			},
			minScore: 0.7,
			want:     false,
		},
		{
			name:  "只共享無鑑別力 token 時拒絕",
			query: "fresh raw produce",
			candidate: common.MatchCandidate{
				Food:  food("b", "raw fresh plain mixture", common.TierBranded),
				Score: 0.9,
			},
			minScore: 0.7,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Accept(tt.query, tt.candidate, tt.minScore); got != tt.want {
				t.Errorf("Accept() = %v, want %v", got, tt.want)
			}
		})
	}
}
