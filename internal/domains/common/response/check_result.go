package response

import (
	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/domains/common/job"
	"github.com/iot-aicha/stock-counter/pkg/errorutil"
)

const (
	CheckStatusSuccess = "SUCCESS"
	CheckStatusFailed  = "FAILED"
)

// CheckResult 巡检任务结果（实现 ResultI 接口）
type CheckResult struct {
	ID      string            `json:"id"`
	Status  string            `json:"status"`
	Summary *analysis.Summary `json:"summary,omitempty"`
	Version uint64            `json:"version,omitempty"`
	Error   *errorutil.Error  `json:"error,omitempty"`
}

// NewCheckResult 创建巡检结果
func NewCheckResult() *CheckResult {
	return &CheckResult{}
}

// Set 实现 ResultI 接口
func (r *CheckResult) Set(meta *job.Meta, err error) {
	r.ID = meta.ID
	if err != nil {
		r.Status = CheckStatusFailed
		r.Error = errorutil.Wrap(err)
	} else {
		r.Status = CheckStatusSuccess
	}
}

// GetStatus 实现 ResultI 接口
func (r *CheckResult) GetStatus() string {
	return r.Status
}
