package shelf

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/iot-aicha/stock-counter/internal/export"
	"github.com/iot-aicha/stock-counter/internal/model"
	"github.com/iot-aicha/stock-counter/pkg/ginx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HistoryResponse 历史记录
type HistoryResponse struct {
	Count   int                 `json:"count"`
	Entries []*model.CheckEntry `json:"entries"`
}

// History 最近的巡检记录，新的在前
func (h *ShelfHandler) History(c *gin.Context) {
	limit := h.opts.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ginx.BadRequest(c, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	entries, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, HistoryResponse{Count: len(entries), Entries: entries})
}

// ExportHistory 导出历史记录为 XLSX
func (h *ShelfHandler) ExportHistory(c *gin.Context) {
	ctx := c.Request.Context()

	entries, err := h.history.List(ctx, h.opts.HistoryLimit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	buf, err := export.HistoryWorkbook(entries)
	if err != nil {
		_ = c.Error(err)
		return
	}

	filename := fmt.Sprintf("shelf-history-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
