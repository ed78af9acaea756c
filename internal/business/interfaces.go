package business

import (
	"context"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/camera"
	"github.com/iot-aicha/stock-counter/internal/detection"
	"github.com/iot-aicha/stock-counter/internal/model"
)

// Capturer 抓图
type Capturer interface {
	Capture(ctx context.Context) (*camera.Frame, error)
}

// Detector 目标检测
type Detector interface {
	Detect(ctx context.Context, image []byte) (*detection.Result, error)
}

// Annotator 结果标注
type Annotator interface {
	Annotate(src []byte, p *analysis.Planogram, r *analysis.AnalysisResult) ([]byte, error)
}

// Sink 巡检结果下游（历史、推送、告警）
type Sink interface {
	Name() string
	Deliver(ctx context.Context, entry *model.CheckEntry) error
}

// JobPublisher 队列发布
type JobPublisher interface {
	Publish(queue string, data []byte, ttl, delay uint32) (string, error)
}
