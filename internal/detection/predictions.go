package detection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iot-aicha/stock-counter/internal/analysis"
)

var (
	// ErrUnavailable 检测服务不可用（网络错误、非 2xx）
	ErrUnavailable = errors.New("detection unavailable")
	// ErrMalformedResponse 检测服务返回无法解析
	ErrMalformedResponse = errors.New("malformed detector response")
)

// Predictions 检测服务响应 / 离线分析请求体
// 只约束外层结构，单条预测在 Parse 中逐条校验，不合法的进入拒绝列表
type Predictions struct {
	Predictions []json.RawMessage `json:"predictions"`
}

// Parse 逐条校验并转换，不做置信度过滤
func (p Predictions) Parse() *Result {
	return parseRaw(p.Predictions, 0)
}

// Result 一次检测的解析结果
type Result struct {
	Detections     []analysis.Detection
	Positions      []int                // Detections 各条在原始预测中的位置
	Skipped        []analysis.Rejection // 字段缺失或越界
	BelowThreshold int                  // 置信度未超过阈值
	Total          int                  // 原始预测条数
}

// Batch 转换为分析输入，解析阶段的跳过记录作为拒绝项带入
func (r *Result) Batch() analysis.Batch {
	return analysis.Batch{
		Detections: r.Detections,
		Rejected:   r.Skipped,
		Positions:  r.Positions,
	}
}

// rawPrediction 字段全部用指针，区分缺失与零值
type rawPrediction struct {
	TagName     *string  `json:"tagName"`
	Probability *float64 `json:"probability"`
	BoundingBox *struct {
		Left   *float64 `json:"left"`
		Top    *float64 `json:"top"`
		Width  *float64 `json:"width"`
		Height *float64 `json:"height"`
	} `json:"boundingBox"`
}

func (r rawPrediction) toDetection() (analysis.Detection, error) {
	if r.TagName == nil || r.Probability == nil || r.BoundingBox == nil {
		return analysis.Detection{}, fmt.Errorf("%w: missing tagName, probability or boundingBox", analysis.ErrMalformedDetection)
	}
	b := r.BoundingBox
	if b.Left == nil || b.Top == nil || b.Width == nil || b.Height == nil {
		return analysis.Detection{}, fmt.Errorf("%w: incomplete boundingBox", analysis.ErrMalformedDetection)
	}

	d := analysis.Detection{
		Label:      *r.TagName,
		Confidence: *r.Probability,
		Box:        analysis.Rect{Left: *b.Left, Top: *b.Top, Width: *b.Width, Height: *b.Height},
	}
	if err := d.Validate(); err != nil {
		return analysis.Detection{}, err
	}
	return d, nil
}

// ParsePredictions 解析检测服务响应
// 不合法的预测逐条跳过；置信度需严格大于 minConfidence
func ParsePredictions(body []byte, minConfidence float64) (*Result, error) {
	var resp Predictions
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return parseRaw(resp.Predictions, minConfidence), nil
}

func parseRaw(preds []json.RawMessage, minConfidence float64) *Result {
	result := &Result{
		Detections: make([]analysis.Detection, 0, len(preds)),
		Positions:  make([]int, 0, len(preds)),
		Total:      len(preds),
	}
	for i, raw := range preds {
		var pred rawPrediction
		if err := json.Unmarshal(raw, &pred); err != nil {
			result.Skipped = append(result.Skipped, analysis.Rejection{Index: i, Reason: err.Error()})
			continue
		}
		d, err := pred.toDetection()
		if err != nil {
			result.Skipped = append(result.Skipped, analysis.Rejection{Index: i, Reason: err.Error()})
			continue
		}
		if d.Confidence <= minConfidence {
			result.BelowThreshold++
			continue
		}
		result.Detections = append(result.Detections, d)
		result.Positions = append(result.Positions, i)
	}
	return result
}
