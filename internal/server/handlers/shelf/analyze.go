package shelf

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iot-aicha/stock-counter/internal/detection"
	"github.com/iot-aicha/stock-counter/internal/model"
	"github.com/iot-aicha/stock-counter/pkg/ginx"
)

// Analyze 对上传的检测结果（检测服务格式）执行分析
// 请求体无法解析时返回 400；单条预测不合法只记入 result.rejected
// ?publish=true 时同时更新最新结果并分发
func (h *ShelfHandler) Analyze(c *gin.Context) {
	var req detection.Predictions
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	publish := false
	if raw := c.Query("publish"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			ginx.BadRequest(c, "publish must be a boolean")
			return
		}
		publish = v
	}

	entry := h.svc.AnalyzeDetections(c.Request.Context(), uuid.New().String(), model.SourceAPI, req.Parse().Batch(), publish)
	ginx.Success(c, entry)
}
