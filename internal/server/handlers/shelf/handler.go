package shelf

import (
	"context"
	"time"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/model"
	"github.com/iot-aicha/stock-counter/internal/state"
)

// Service 巡检服务
type Service interface {
	Latest() *state.Latest
	Processing() bool
	Trigger(ctx context.Context) (string, bool, error)
	AnalyzeDetections(ctx context.Context, runID, source string, batch analysis.Batch, publish bool) *model.CheckEntry
}

// HistoryReader 历史记录查询
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]*model.CheckEntry, error)
}

// Scheduler 定时巡检计划
type Scheduler interface {
	NextTick() time.Time
}

// Options 展示用的附加信息
type Options struct {
	CameraURL    string
	HistoryLimit int
	ClientCount  func() int // SSE / WebSocket 订阅者数量
}

// ShelfHandler 货架巡检 HTTP 处理器
type ShelfHandler struct {
	svc       Service
	history   HistoryReader
	scheduler Scheduler
	opts      Options
	now       func() time.Time
}

// NewShelfHandler 创建处理器，scheduler 可为空
func NewShelfHandler(svc Service, history HistoryReader, scheduler Scheduler, opts Options) *ShelfHandler {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	return &ShelfHandler{
		svc:       svc,
		history:   history,
		scheduler: scheduler,
		opts:      opts,
		now:       time.Now,
	}
}

func (h *ShelfHandler) nextTick() *time.Time {
	if h.scheduler == nil {
		return nil
	}
	next := h.scheduler.NextTick()
	if next.IsZero() {
		return nil
	}
	next = next.UTC()
	return &next
}
