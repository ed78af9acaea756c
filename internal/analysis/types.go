package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// boundsTolerance 检测框越界容差（检测服务输出存在浮点误差）
const boundsTolerance = 1e-3

// ErrMalformedDetection 检测结果不合法
var ErrMalformedDetection = errors.New("malformed detection")

// Detection 单个检测结果（不可变值）
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Rect    `json:"box"`
}

// Validate 校验标签、置信度与检测框范围
func (d Detection) Validate() error {
	if strings.TrimSpace(d.Label) == "" {
		return fmt.Errorf("%w: empty label", ErrMalformedDetection)
	}
	if !finite(d.Confidence) || d.Confidence <= 0 || d.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of (0,1]", ErrMalformedDetection, d.Confidence)
	}
	if err := validateRect(d.Box); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDetection, err)
	}
	return nil
}

func validateRect(r Rect) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"left", r.Left}, {"top", r.Top}, {"width", r.Width}, {"height", r.Height},
	}
	for _, f := range fields {
		if !finite(f.value) || f.value < 0 || f.value > 1 {
			return fmt.Errorf("%s %v out of [0,1]", f.name, f.value)
		}
	}
	if r.Right() > 1+boundsTolerance || r.Bottom() > 1+boundsTolerance {
		return fmt.Errorf("box exceeds image bounds (right=%v, bottom=%v)", r.Right(), r.Bottom())
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AlertLevel 告警级别
type AlertLevel string

const (
	AlertLevelInfo     AlertLevel = "info"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelCritical AlertLevel = "critical"
)

// AlertKind 告警类型
type AlertKind string

const (
	AlertKindMisplacement AlertKind = "misplacement"
	AlertKindStockout     AlertKind = "stockout"
	AlertKindOverstock    AlertKind = "overstock"
)

// Alert 告警
type Alert struct {
	Level        AlertLevel `json:"level"`
	Kind         AlertKind  `json:"kind"`
	Message      string     `json:"message"`
	RelatedLabel string     `json:"relatedLabel"`
}

// Rejection 入口校验被拒绝的检测结果
type Rejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// AnalysisResult 单次分析结果，构造后不再修改
type AnalysisResult struct {
	Survivors       []Detection    `json:"survivors"`
	CorrectlyPlaced []Detection    `json:"correctlyPlaced"`
	Misplaced       []Detection    `json:"misplaced"`
	DetectedCounts  map[string]int `json:"detectedCounts"`
	Missing         map[string]int `json:"missing"`
	Extra           map[string]int `json:"extra"`
	Alerts          []Alert        `json:"alerts"`
	Rejected        []Rejection    `json:"rejected,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Clean 无错位、无缺货、无多余
func (r *AnalysisResult) Clean() bool {
	return len(r.Misplaced) == 0 && len(r.Missing) == 0 && len(r.Extra) == 0
}

// RequiresAttention 需要人工处理
func (r *AnalysisResult) RequiresAttention() bool {
	return !r.Clean()
}

// HasCritical 是否存在 critical 告警
func (r *AnalysisResult) HasCritical() bool {
	for _, a := range r.Alerts {
		if a.Level == AlertLevelCritical {
			return true
		}
	}
	return false
}

// Summary 结果汇总（日志、历史、推送共用）
type Summary struct {
	TotalExpected     int  `json:"total_expected"`
	TotalDetected     int  `json:"total_detected"`
	CorrectlyPlaced   int  `json:"correctly_placed"`
	Misplaced         int  `json:"misplaced"`
	MissingItems      int  `json:"missing_items"`
	ExtraItems        int  `json:"extra_items"`
	AlertCount        int  `json:"alert_count"`
	RequiresAttention bool `json:"requires_attention"`
}
