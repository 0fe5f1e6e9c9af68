package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"
)

func testClient(baseURL string, retries int) *Client {
	return NewClient(&config.ProviderConfig{
		Enabled:    true,
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    2 * time.Second,
		MaxRetries: retries,
	})
}

const searchBody = `{
	"foods": [
		{
			"id": "b-1",
			"description": "chicken breast strips",
			"data_type": "branded",
			"serving_size": 50,
			"label_nutrients": {"calories": 80, "protein": 15, "fat": 1, "carbohydrates": 2}
		},
		{
			"id": "f-1",
			"description": "chicken breast raw",
			"data_type": "foundation",
			"nutrients": [
				{"name": "Energy", "unit": "kcal", "amount_per_100": 120},
				{"name": "Protein", "unit": "g", "amount_per_100": 22.5}
			]
		},
		{
			"id": "l-1",
			"description": "chicken breast cooked",
			"data_type": "sr_legacy",
			"calories_per_100": 165,
			"protein_per_100": 31
		},
		{
			"id": "bad-1",
			"description": "implausible record",
			"data_type": "sr_legacy",
			"calories_per_100": 99999
		}
	]
}`

func TestSearchNormalizesRecords(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 0)
	foods, err := client.Search(context.Background(), "chicken breast", 10)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if gotQuery != "chicken breast" {
		t.Errorf("query param = %q, want %q", gotQuery, "chicken breast")
	}
	if gotKey != "test-key" {
		t.Errorf("api_key param = %q, want %q", gotKey, "test-key")
	}

	// 離譜紀錄被丟棄，其餘三筆統一為每 100 單位
	if len(foods) != 3 {
		t.Fatalf("got %d foods, want 3", len(foods))
	}

	byID := map[string]common.ReferenceFood{}
	for _, f := range foods {
		byID[f.ID] = f
	}

	// branded：每份 50 單位，標示值換算兩倍
	if b := byID["b-1"]; b.Tier != common.TierBranded || b.Per100.Calories != 160 || b.Per100.Protein != 30 {
		t.Errorf("branded record not normalized: %+v", b)
	}
	if f := byID["f-1"]; f.Tier != common.TierFoundation || f.Per100.Calories != 120 || f.Per100.Protein != 22.5 {
		t.Errorf("foundation record not normalized: %+v", f)
	}
	if l := byID["l-1"]; l.Tier != common.TierLegacy || l.Per100.Calories != 165 {
		t.Errorf("legacy record not normalized: %+v", l)
	}

	for _, f := range foods {
		if f.Source != common.SourceRemoteFetch {
			t.Errorf("Source = %q, want %q", f.Source, common.SourceRemoteFetch)
		}
	}
}

func TestSearchRetriesOnServerError(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"foods": []}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL, 2)
	foods, err := client.Search(context.Background(), "rice", 5)
	if err != nil {
		t.Fatalf("Search() should succeed after retry: %v", err)
	}
	if len(foods) != 0 {
		t.Errorf("got %d foods, want 0", len(foods))
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 2 {
		t.Errorf("server hits = %d, want 2 (one retry)", hits)
	}
}

func TestSearchRateLimitExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := testClient(srv.URL, 1)
	_, err := client.Search(context.Background(), "rice", 5)
	if !common.IsRateLimitError(err) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}

	var rle *common.RateLimitError
	if !errors.As(err, &rle) || rle.RetryAfter != "30" {
		t.Errorf("RetryAfter not propagated: %+v", rle)
	}
}

func TestSearchClientErrorNotRetried(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := testClient(srv.URL, 3)
	_, err := client.Search(context.Background(), "rice", 5)
	if !common.IsProviderUnavailable(err) {
		t.Fatalf("expected ProviderUnavailableError, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (4xx is not retryable)", hits)
	}
}

func TestSearchTransportFailure(t *testing.T) {
	// 指向未監聽的位址，所有重試都拿不到回應
	client := testClient("http://127.0.0.1:1", 1)
	_, err := client.Search(context.Background(), "rice", 5)
	if !common.IsProviderUnavailable(err) {
		t.Fatalf("expected ProviderUnavailableError, got %v", err)
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want common.Tier
	}{
		{"branded", common.TierBranded},
		{"Branded", common.TierBranded},
		{"foundation", common.TierFoundation},
		{"survey", common.TierSurvey},
		{"survey_fndds", common.TierSurvey},
		{"sr_legacy", common.TierLegacy},
		{"", common.TierLegacy},
	}

	for _, tt := range tests {
		if got := parseTier(tt.in); got != tt.want {
			t.Errorf("parseTier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
