package common

import (
	"testing"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Chicken Breast", "chicken breast"},
		{"  chicken   breast  ", "chicken breast"},
		{"CHICKEN\tBREAST\n", "chicken breast"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeQuery(tt.in); got != tt.want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHashKeyStable(t *testing.T) {
	a := HashKey("chicken breast|k=5|min=0.70|cat=solid")
	b := HashKey("chicken breast|k=5|min=0.70|cat=solid")
	c := HashKey("chicken breast|k=5|min=0.70|cat=drink")

	if a != b {
		t.Error("HashKey not stable for identical input")
	}
	if a == c {
		t.Error("HashKey collision for distinct input")
	}
	if len(a) != 64 {
		t.Errorf("HashKey length = %d, want 64 hex chars", len(a))
	}
}

func TestRecognizedComponentValidate(t *testing.T) {
	tests := []struct {
		name      string
		component RecognizedComponent
		wantErr   bool
	}{
		{"合法成分", RecognizedComponent{Name: "rice", Confidence: 0.8}, false},
		{"信心值為零", RecognizedComponent{Name: "rice", Confidence: 0}, false},
		{"缺少名稱", RecognizedComponent{Name: "   ", Confidence: 0.5}, true},
		{"信心值為負", RecognizedComponent{Name: "rice", Confidence: -0.1}, true},
		{"信心值超過一", RecognizedComponent{Name: "rice", Confidence: 1.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.component.Validate()
			if tt.wantErr != (err != nil) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("Validate() should return a validation error, got %T", err)
			}
		})
	}
}

func TestTierRankOrdering(t *testing.T) {
	ordered := []Tier{TierBranded, TierFoundation, TierSurvey, TierLegacy}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("Rank ordering violated between %s and %s", ordered[i-1], ordered[i])
		}
	}
	if Tier("unknown").Rank() != TierLegacy.Rank() {
		t.Error("unknown tier should rank as legacy")
	}
}

func TestNutrientsAddAndHasNegative(t *testing.T) {
	var total Nutrients
	total.Add(Nutrients{Calories: 100, Protein: 10})
	total.Add(Nutrients{Calories: 50, Protein: 5, Fiber: 2})

	if total.Calories != 150 || total.Protein != 15 || total.Fiber != 2 {
		t.Errorf("Add() result = %+v", total)
	}
	if total.HasNegative() {
		t.Error("HasNegative() = true for non-negative nutrients")
	}
	if !(Nutrients{Sugars: -1}).HasNegative() {
		t.Error("HasNegative() = false for negative sugars")
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsRateLimitError(&RateLimitError{RetryAfter: "5"}) {
		t.Error("IsRateLimitError failed on RateLimitError")
	}
	if !IsProviderUnavailable(&ProviderUnavailableError{StatusCode: 503}) {
		t.Error("IsProviderUnavailable failed on ProviderUnavailableError")
	}
	if IsValidationError(&RateLimitError{}) {
		t.Error("IsValidationError matched a rate limit error")
	}
}

func TestMatchedSource(t *testing.T) {
	if got := MatchedSource("ref-1"); got != "matched:ref-1" {
		t.Errorf("MatchedSource() = %q, want %q", got, "matched:ref-1")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{15, 0, 10, 10},
		{1.5, 0, 1, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
