package shelf

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/pkg/ginx"
)

// LatestResponse 最新巡检结果
type LatestResponse struct {
	Version           uint64                   `json:"version"`
	RunID             string                   `json:"run_id"`
	Source            string                   `json:"source"`
	Timestamp         time.Time                `json:"timestamp"`
	Summary           analysis.Summary         `json:"summary"`
	Result            *analysis.AnalysisResult `json:"result"`
	HasAnnotatedImage bool                     `json:"has_annotated_image"`
}

// LatestResults 最新巡检结果，首次巡检完成前返回 3001
func (h *ShelfHandler) LatestResults(c *gin.Context) {
	snap, ok := h.svc.Latest().Load()
	if !ok {
		ginx.Pending(c, "no results yet")
		return
	}

	ginx.Success(c, LatestResponse{
		Version:           snap.Version,
		RunID:             snap.RunID,
		Source:            snap.Source,
		Timestamp:         snap.UpdatedAt,
		Summary:           snap.Summary,
		Result:            snap.Result,
		HasAnnotatedImage: len(snap.Annotated) > 0,
	})
}

// AnnotatedImage 最新标注图
func (h *ShelfHandler) AnnotatedImage(c *gin.Context) {
	snap, ok := h.svc.Latest().Load()
	if !ok || len(snap.Annotated) == 0 {
		ginx.NotFound(c, "no annotated image available")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("X-Run-ID", snap.RunID)
	c.Data(http.StatusOK, "image/jpeg", snap.Annotated)
}
