package common

import (
	"context"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/domains/common/job"
	"github.com/iot-aicha/stock-counter/internal/domains/common/response"
	"github.com/iot-aicha/stock-counter/internal/model"
	"github.com/iot-aicha/stock-counter/internal/state"
)

// ShelfService Handler 依赖的巡检能力
type ShelfService interface {
	RunCheck(ctx context.Context, runID string) (*state.Snapshot, error)
	AnalyzeDetections(ctx context.Context, runID, source string, batch analysis.Batch, publish bool) *model.CheckEntry
}

// HandlerServProc Handler 构造函数类型
type HandlerServProc func(ctx context.Context, meta *job.Meta, payload interface{}, svc ShelfService) (HandlerServ, error)

// HandlerServ Handler 接口
type HandlerServ interface {
	GetProcess() *response.Response
}
