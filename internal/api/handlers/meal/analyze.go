package meal

import (
	"net/http"

	"nutrition-resolver/internal/core/nutrition/resolver"
	"nutrition-resolver/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyzeRequest 餐點解析請求
// components: 外部辨識服務輸出的成分列表
type AnalyzeRequest struct {
	Components []common.RecognizedComponent `json:"components"`
}

// AnalyzeResponse 餐點解析回應
type AnalyzeResponse struct {
	Items       []common.ResolvedItem `json:"items"`
	Total       common.Nutrients      `json:"total"`
	HealthScore float64               `json:"health_score"`
}

// HandleAnalyze 處理 /meal/analyze 餐點解析 API
func HandleAnalyze(resolverSvc *resolver.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header("X-Request-ID", requestID)
		}

		common.LogInfo("開始處理餐點解析請求",
			zap.String("request_id", requestID),
			zap.String("client_ip", c.ClientIP()),
		)

		// 嚴格解析：未知欄位視為用戶端錯誤，避免打錯欄位名被默默忽略
		var req AnalyzeRequest
		if err := common.DecodeJSONStrict(c.Request.Body, &req); err != nil {
			common.LogError("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request format",
				"code":  common.ErrCodeInvalidRequest,
			})
			return
		}

		result, err := resolverSvc.Resolve(c.Request.Context(), req.Components)
		if err != nil {
			// 解析只會因輸入驗證失敗而回錯誤；單一成分的查詢失敗已在內部降級
			if common.IsValidationError(err) {
				common.LogWarn("成分驗證失敗",
					zap.Error(err),
					zap.String("request_id", requestID),
				)
				c.JSON(http.StatusBadRequest, gin.H{
					"error": err.Error(),
					"code":  common.ErrCodeInvalidRequest,
				})
				return
			}

			common.LogError("餐點解析失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Meal analysis failed",
				"code":  common.ErrCodeInternalError,
			})
			return
		}

		common.LogInfo("餐點解析成功",
			zap.String("request_id", requestID),
			zap.Int("items", len(result.Items)),
			zap.Float64("total_calories", result.Total.Calories),
		)

		c.JSON(http.StatusOK, AnalyzeResponse{
			Items:       result.Items,
			Total:       result.Total,
			HealthScore: result.HealthScore,
		})
	}
}
