package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	baseRetryWait = 200 * time.Millisecond
	maxRetryWait  = 500 * time.Millisecond
)

// Client 參考營養資料庫 HTTP 客戶端
// 重試只針對可重試結果：無回應、5xx、429、408；退避為指數成長並設上限
type Client struct {
	http   *resty.Client
	config *config.ProviderConfig
	sink   Sink
}

// NewClient 創建參考資料庫客戶端
func NewClient(cfg *config.ProviderConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryMaxWaitTime(maxRetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return isRetryableStatus(r.StatusCode())
		}).
		SetRetryAfter(func(c *resty.Client, r *resty.Response) (time.Duration, error) {
			attempt := 0
			if r != nil && r.Request != nil {
				attempt = r.Request.Attempt
			}
			wait := baseRetryWait << uint(attempt)
			if wait > maxRetryWait {
				wait = maxRetryWait
			}
			return wait, nil
		})

	return &Client{
		http:   client,
		config: cfg,
	}
}

// SetIndexSink 設定本地索引寫入端，用於遠端取得紀錄的回寫
func (c *Client) SetIndexSink(sink Sink) {
	c.sink = sink
}

// isRetryableStatus 檢查狀態碼是否可重試
func isRetryableStatus(status int) bool {
	return status >= 500 ||
		status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout
}

// Search 搜尋參考食品
// 重試耗盡後依結果分類錯誤：429 → RateLimitError，其他 → ProviderUnavailableError
func (c *Client) Search(ctx context.Context, query string, limit int) ([]common.ReferenceFood, error) {
	if limit <= 0 {
		limit = 10
	}

	var result searchResponse
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":   query,
			"limit":   strconv.Itoa(limit),
			"api_key": c.config.APIKey, // 供應商要求 API key 以請求參數傳遞
		}).
		SetResult(&result).
		Get("/foods/search")

	attempts := 1
	if resp != nil && resp.Request != nil {
		attempts = resp.Request.Attempt
	}
	common.LogProviderCall("/foods/search", time.Since(start), attempts, err)

	if err != nil {
		return nil, &common.ProviderUnavailableError{Err: err}
	}

	// 記錄剩餘配額（僅供觀測，不屬於回傳契約）
	if remaining := resp.Header().Get("X-RateLimit-Remaining"); remaining != "" {
		common.LogDebug("供應商剩餘配額",
			zap.String("remaining", remaining),
		)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return nil, &common.RateLimitError{RetryAfter: resp.Header().Get("Retry-After")}
	case resp.StatusCode() >= 400:
		return nil, &common.ProviderUnavailableError{StatusCode: resp.StatusCode()}
	}

	foods := make([]common.ReferenceFood, 0, len(result.Foods))
	for _, record := range result.Foods {
		food, ok := record.normalize()
		if !ok {
			common.LogDebug("丟棄無法標準化的供應商紀錄",
				zap.String("id", record.ID),
				zap.String("data_type", record.DataType),
			)
			continue
		}
		foods = append(foods, food)
	}

	// branded 層級的成功查詢觸發非同步回寫本地索引
	c.persistBranded(foods)

	return foods, nil
}

// persistBranded 盡力而為地將 branded 紀錄回寫索引，失敗記錄後吞掉
func (c *Client) persistBranded(foods []common.ReferenceFood) {
	if c.sink == nil {
		return
	}

	branded := make([]common.ReferenceFood, 0, len(foods))
	for _, f := range foods {
		if f.Tier == common.TierBranded {
			branded = append(branded, f)
		}
	}
	if len(branded) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.sink.UpsertBatch(ctx, branded); err != nil {
			common.LogWarn("回寫本地索引失敗",
				zap.Int("count", len(branded)),
				zap.Error(err),
			)
		}
	}()
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

// String 供日誌顯示
func (c *Client) String() string {
	return fmt.Sprintf("reference-provider(%s)", c.config.BaseURL)
}
