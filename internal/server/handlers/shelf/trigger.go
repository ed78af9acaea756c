package shelf

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iot-aicha/stock-counter/pkg/ginx"
)

// TriggerResponse 手动触发结果
type TriggerResponse struct {
	RunID     string     `json:"run_id"`
	Queued    bool       `json:"queued"` // true 表示已投递到队列，由 Worker 执行
	NextCheck *time.Time `json:"next_check,omitempty"`
}

// TriggerProcessing 手动触发一次巡检
func (h *ShelfHandler) TriggerProcessing(c *gin.Context) {
	runID, queued, err := h.svc.Trigger(c.Request.Context())
	if err != nil {
		ginx.ServiceUnavailable(c, err.Error())
		return
	}

	ginx.Accepted(c, TriggerResponse{
		RunID:     runID,
		Queued:    queued,
		NextCheck: h.nextTick(),
	})
}
