package analyze

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iot-aicha/stock-counter/internal/detection"
	"github.com/iot-aicha/stock-counter/internal/domains/common"
	"github.com/iot-aicha/stock-counter/internal/domains/common/job"
	"github.com/iot-aicha/stock-counter/internal/domains/common/response"
	"github.com/iot-aicha/stock-counter/internal/model"
)

// Payload 离线分析任务数据：上游已完成检测
type Payload struct {
	detection.Predictions
	Publish bool `json:"publish"`
}

// AnalyzeHandler 离线分析 Handler
type AnalyzeHandler struct {
	ctx     context.Context
	meta    *job.Meta
	svc     common.ShelfService
	payload *Payload
}

// NewAnalyzeHandler 解析任务数据
// 单条预测在执行时逐条校验，这里只要求外层结构可解析
func NewAnalyzeHandler(ctx context.Context, meta *job.Meta, payload interface{}, svc common.ShelfService) (common.HandlerServ, error) {
	if svc == nil {
		return nil, fmt.Errorf("shelf service is required")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(payloadBytes, &p); err != nil {
		return nil, fmt.Errorf("unmarshal analyze payload failed: %w", err)
	}

	if meta.ID == "" {
		meta.ID = meta.RequestID
	}
	return &AnalyzeHandler{ctx: ctx, meta: meta, svc: svc, payload: &p}, nil
}

// GetProcess 执行分析
func (h *AnalyzeHandler) GetProcess() *response.Response {
	result := response.NewCheckResult()
	err := h.process(result)

	resp := &response.Response{}
	resp.WrapResponse(result, h.meta, err)
	return resp
}

func (h *AnalyzeHandler) process(result *response.CheckResult) error {
	entry := h.svc.AnalyzeDetections(h.ctx, h.meta.ID, model.SourceJob, h.payload.Parse().Batch(), h.payload.Publish)
	summary := entry.Summary
	result.Summary = &summary
	return nil
}
