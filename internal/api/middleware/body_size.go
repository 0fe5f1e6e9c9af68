package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nutrition-resolver/internal/pkg/common"
)

// MaxAnalyzeBodySize 解析請求體上限
// 輸入只有成分列表（不含圖片），1MB 足以涵蓋最大批次
const MaxAnalyzeBodySize int64 = 1 << 20

// BodySizeLimit 限制請求體大小的中間件
// maxSize <= 0 時使用 MaxAnalyzeBodySize
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = MaxAnalyzeBodySize
	}

	return func(c *gin.Context) {
		// Content-Length 先行拒絕，避免讀入超大請求體
		if c.Request.ContentLength > maxSize {
			common.LogWarn("請求體超過上限",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":    "Request body too large",
				"code":     common.ErrCodeInvalidRequest,
				"max_size": maxSize,
			})
			return
		}

		// Content-Length 可能缺席或造假，讀取階段仍需硬上限
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)

		c.Next()
	}
}
