package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/camera"
	"github.com/iot-aicha/stock-counter/internal/detection"
	"github.com/iot-aicha/stock-counter/internal/domains/common/job"
	"github.com/iot-aicha/stock-counter/internal/framework"
	"github.com/iot-aicha/stock-counter/internal/model"
	"github.com/iot-aicha/stock-counter/internal/state"
	"github.com/iot-aicha/stock-counter/pkg/errorutil"
	"github.com/iot-aicha/stock-counter/pkg/logger"
)

// CheckService 巡检服务
// 职责：抓图 → 检测 → 分析 → 标注 → 更新最新结果 → 分发到下游
type CheckService struct {
	capturer   Capturer
	detector   Detector
	analyzer   *analysis.Analyzer
	annotator  Annotator
	latest     *state.Latest
	sinks      []Sink
	trigger    JobPublisher
	queue      string
	runTimeout time.Duration
	inFlight   *atomic.Int32
	logger     logger.Logger
}

// ServiceOption CheckService 可选依赖
type ServiceOption func(*CheckService)

// WithAnnotator 开启结果标注
func WithAnnotator(a Annotator) ServiceOption {
	return func(s *CheckService) { s.annotator = a }
}

// WithSinks 追加下游
func WithSinks(sinks ...Sink) ServiceOption {
	return func(s *CheckService) { s.sinks = append(s.sinks, sinks...) }
}

// WithTriggerQueue 手动触发时投递到队列，而不是直接执行
func WithTriggerQueue(pub JobPublisher, queue string) ServiceOption {
	return func(s *CheckService) {
		s.trigger = pub
		s.queue = queue
	}
}

// WithRunTimeout 直接执行手动触发时的超时
func WithRunTimeout(d time.Duration) ServiceOption {
	return func(s *CheckService) { s.runTimeout = d }
}

// NewCheckService 创建巡检服务
func NewCheckService(
	capturer Capturer,
	detector Detector,
	analyzer *analysis.Analyzer,
	latest *state.Latest,
	log logger.Logger,
	opts ...ServiceOption,
) *CheckService {
	s := &CheckService{
		capturer:   capturer,
		detector:   detector,
		analyzer:   analyzer,
		latest:     latest,
		runTimeout: 2 * time.Minute,
		inFlight:   atomic.NewInt32(0),
		logger:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latest 最新结果槽位
func (s *CheckService) Latest() *state.Latest {
	return s.latest
}

// Planogram 当前货架布局
func (s *CheckService) Planogram() *analysis.Planogram {
	return s.analyzer.Planogram()
}

// Processing 是否有巡检正在执行
func (s *CheckService) Processing() bool {
	return s.inFlight.Load() > 0
}

// RunCheck 执行一次完整巡检
// 检测服务不可用时不产生结果，最新结果保持不变
func (s *CheckService) RunCheck(ctx context.Context, runID string) (*state.Snapshot, error) {
	s.inFlight.Inc()
	defer s.inFlight.Dec()

	var (
		frame    *camera.Frame
		detected *detection.Result
	)

	steps := framework.NewPreProcessor(
		framework.Step{Name: "capture", Func: func(ctx context.Context) error {
			f, err := s.capturer.Capture(ctx)
			if err != nil {
				return errorutil.RetriableWithCause("camera capture failed", err)
			}
			if f.Fallback {
				s.logger.Warnf(ctx, "[CheckService] camera unavailable, using placeholder frame: %v", f.Err)
			}
			frame = f
			return nil
		}},
		framework.Step{Name: "detect", Func: func(ctx context.Context) error {
			r, err := s.detector.Detect(ctx, frame.JPEG)
			if errors.Is(err, detection.ErrMalformedResponse) {
				return errorutil.NonRetriableWithCause("detection unavailable", err)
			}
			if err != nil {
				return errorutil.RetriableWithCause("detection unavailable", err)
			}
			detected = r
			return nil
		}},
	)
	if err := steps.Run(ctx); err != nil {
		s.logger.Warnf(ctx, "[CheckService] run %s produced no result: %v", runID, err)
		return nil, err
	}

	if len(detected.Skipped) > 0 || detected.BelowThreshold > 0 {
		s.logger.Infof(ctx, "[CheckService] detector returned %d predictions, %d malformed, %d below threshold",
			detected.Total, len(detected.Skipped), detected.BelowThreshold)
	}

	source := model.SourceCamera
	if frame.Fallback {
		source = model.SourceFallback
	}
	entry := s.buildEntry(runID, source, detected.Batch())
	return s.commit(ctx, entry, frame.JPEG), nil
}

// AnalyzeDetections 对给定检测结果执行分析，batch 中已拒绝的条目带入结果
// publish 为 true 时与 RunCheck 一样更新最新结果并分发
func (s *CheckService) AnalyzeDetections(
	ctx context.Context,
	runID string,
	source string,
	batch analysis.Batch,
	publish bool,
) *model.CheckEntry {
	entry := s.buildEntry(runID, source, batch)
	if publish {
		s.commit(ctx, entry, nil)
	}
	return entry
}

// Trigger 手动触发一次巡检，返回 run id 与是否进入队列
func (s *CheckService) Trigger(ctx context.Context) (string, bool, error) {
	runID := uuid.New().String()

	if s.trigger != nil {
		data, err := job.NewJobData(runID, job.ActionShelfCheck, runID, nil)
		if err != nil {
			return "", false, err
		}
		if _, err := s.trigger.Publish(s.queue, data, 0, 0); err != nil {
			return "", false, fmt.Errorf("failed to enqueue shelf check: %w", err)
		}
		s.logger.Infof(ctx, "[CheckService] shelf check %s queued on %s", runID, s.queue)
		return runID, true, nil
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()
		runCtx = logger.WithTraceID(runCtx, runID)
		if _, err := s.RunCheck(runCtx, runID); err != nil {
			s.logger.Errorf(runCtx, "[CheckService] triggered run failed: %v", err)
		}
	}()
	return runID, false, nil
}

func (s *CheckService) buildEntry(runID, source string, batch analysis.Batch) *model.CheckEntry {
	result := s.analyzer.AnalyzeBatch(batch)
	return &model.CheckEntry{
		Type:      model.EntryTypeNewProcessing,
		RunID:     runID,
		Source:    source,
		Timestamp: result.Timestamp,
		Summary:   s.analyzer.Summarize(result),
		Result:    result,
	}
}

// commit 更新最新结果并分发，下游失败只记录日志
func (s *CheckService) commit(ctx context.Context, entry *model.CheckEntry, image []byte) *state.Snapshot {
	var annotated []byte
	if s.annotator != nil && len(image) > 0 {
		out, err := s.annotator.Annotate(image, s.analyzer.Planogram(), entry.Result)
		if err != nil {
			s.logger.Warnf(ctx, "[CheckService] annotate failed: %v", err)
		} else {
			annotated = out
		}
	}

	snap := s.latest.Publish(state.Snapshot{
		RunID:     entry.RunID,
		Source:    entry.Source,
		Result:    entry.Result,
		Summary:   entry.Summary,
		Annotated: annotated,
		UpdatedAt: entry.Timestamp,
	})

	s.logEntry(ctx, entry)

	for _, sink := range s.sinks {
		if err := sink.Deliver(ctx, entry); err != nil {
			s.logger.Warnf(ctx, "[CheckService] sink %s failed: %v", sink.Name(), err)
		}
	}
	return snap
}

// logEntry 输出巡检明细
func (s *CheckService) logEntry(ctx context.Context, entry *model.CheckEntry) {
	sum := entry.Summary
	r := entry.Result
	p := s.analyzer.Planogram()

	s.logger.Infof(ctx, "[CheckService] run %s (%s): status=%s expected=%d detected=%d correct=%d misplaced=%d missing=%d extra=%d",
		entry.RunID, entry.Source, entry.Status(), sum.TotalExpected, sum.TotalDetected,
		sum.CorrectlyPlaced, sum.Misplaced, sum.MissingItems, sum.ExtraItems)
	s.logger.Debugf(ctx, "[CheckService] counts=%v missing=%v extra=%v", r.DetectedCounts, r.Missing, r.Extra)

	for _, d := range r.Misplaced {
		s.logger.Infof(ctx, "[CheckService] misplaced %s confidence=%.3f perishable=%t",
			d.Label, d.Confidence, p.IsPerishable(d.Label))
	}
	for _, rej := range r.Rejected {
		s.logger.Warnf(ctx, "[CheckService] rejected detection #%d: %s", rej.Index, rej.Reason)
	}
	for _, a := range r.Alerts {
		switch a.Level {
		case analysis.AlertLevelCritical:
			s.logger.Errorf(ctx, "[CheckService] %s", a.Message)
		case analysis.AlertLevelWarning:
			s.logger.Warnf(ctx, "[CheckService] %s", a.Message)
		default:
			s.logger.Infof(ctx, "[CheckService] %s", a.Message)
		}
	}
}
