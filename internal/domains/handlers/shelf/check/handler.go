package check

import (
	"context"
	"fmt"

	"github.com/iot-aicha/stock-counter/internal/domains/common"
	"github.com/iot-aicha/stock-counter/internal/domains/common/job"
	"github.com/iot-aicha/stock-counter/internal/domains/common/response"
)

// CheckHandler 完整巡检 Handler：抓图、检测、分析
type CheckHandler struct {
	ctx  context.Context
	meta *job.Meta
	svc  common.ShelfService
}

// NewCheckHandler 创建巡检 Handler，payload 不携带业务数据
func NewCheckHandler(ctx context.Context, meta *job.Meta, _ interface{}, svc common.ShelfService) (common.HandlerServ, error) {
	if svc == nil {
		return nil, fmt.Errorf("shelf service is required")
	}
	if meta.ID == "" {
		meta.ID = meta.RequestID
	}
	return &CheckHandler{ctx: ctx, meta: meta, svc: svc}, nil
}

// GetProcess 执行巡检
func (h *CheckHandler) GetProcess() *response.Response {
	result := response.NewCheckResult()
	err := h.process(result)

	resp := &response.Response{}
	resp.WrapResponse(result, h.meta, err)
	return resp
}

func (h *CheckHandler) process(result *response.CheckResult) error {
	snap, err := h.svc.RunCheck(h.ctx, h.meta.ID)
	if err != nil {
		return err
	}
	summary := snap.Summary
	result.Summary = &summary
	result.Version = snap.Version
	return nil
}
