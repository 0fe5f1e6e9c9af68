package provider

import (
	"context"

	"nutrition-resolver/internal/pkg/common"
)

// Provider 定義參考營養資料庫介面
// 搜尋服務只依賴此介面，更換資料來源不需改動上層
type Provider interface {
	// Search 以正規化查詢字串搜尋參考食品，回傳已標準化的紀錄
	Search(ctx context.Context, query string, limit int) ([]common.ReferenceFood, error)

	// Close 關閉供應商連線
	Close() error
}

// Sink 接收遠端取得的紀錄並寫入本地索引
// 寫入為盡力而為：失敗記錄後吞掉，不影響查詢結果
type Sink interface {
	UpsertBatch(ctx context.Context, foods []common.ReferenceFood) error
}
