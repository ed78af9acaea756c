package model

import (
	"time"

	"github.com/iot-aicha/stock-counter/internal/analysis"
)

// EntryTypeNewProcessing 推送消息类型
const EntryTypeNewProcessing = "new_processing"

// 巡检来源
const (
	SourceCamera   = "camera"
	SourceFallback = "fallback" // 摄像头不可用，使用占位图
	SourceJob      = "job"      // 队列任务携带检测结果
	SourceAPI      = "api"
)

// 通知状态
const (
	StatusClean     = "CLEAN"
	StatusAttention = "ATTENTION"
)

// CheckEntry 一次巡检的完整记录（推送、历史、导出共用）
type CheckEntry struct {
	Type      string                   `json:"type"`
	RunID     string                   `json:"run_id"`
	Source    string                   `json:"source"`
	Timestamp time.Time                `json:"timestamp"`
	Summary   analysis.Summary         `json:"summary"`
	Result    *analysis.AnalysisResult `json:"result"`
}

// Status CLEAN / ATTENTION
func (e *CheckEntry) Status() string {
	if e.Summary.RequiresAttention {
		return StatusAttention
	}
	return StatusClean
}

// ShelfCheckNotification 巡检完成通知（Redis 频道）
type ShelfCheckNotification struct {
	RunID     string           `json:"run_id"`
	Status    string           `json:"status"`
	Summary   analysis.Summary `json:"summary"`
	Timestamp int64            `json:"timestamp"`
}

// NewShelfCheckNotification 由巡检记录生成通知
func NewShelfCheckNotification(e *CheckEntry) *ShelfCheckNotification {
	return &ShelfCheckNotification{
		RunID:     e.RunID,
		Status:    e.Status(),
		Summary:   e.Summary,
		Timestamp: e.Timestamp.Unix(),
	}
}

// AlertJob 告警任务（Lmstfy 告警队列）
type AlertJob struct {
	RunID     string           `json:"run_id"`
	Timestamp int64            `json:"timestamp"`
	Critical  bool             `json:"critical"`
	Alerts    []analysis.Alert `json:"alerts"`
}
