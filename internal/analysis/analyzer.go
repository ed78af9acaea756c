package analysis

import "time"

// Analyzer 分析流水线：入口校验 -> 去重 -> 区域判定 -> 库存核对 -> 报告
// 无 I/O、无共享可变状态，可并发调用
type Analyzer struct {
	planogram *Planogram
	now       func() time.Time
}

// Option Analyzer 选项
type Option func(*Analyzer)

// WithClock 指定时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer 创建分析器
func NewAnalyzer(p *Planogram, opts ...Option) *Analyzer {
	a := &Analyzer{
		planogram: p,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Planogram 当前使用的货架布局
func (a *Analyzer) Planogram() *Planogram {
	return a.planogram
}

// Analyze 执行一次完整分析
func (a *Analyzer) Analyze(detections []Detection) *AnalysisResult {
	return a.AnalyzeBatch(Batch{Detections: detections})
}

// AnalyzeBatch 分析一批检测结果，解析阶段的拒绝记录并入结果
func (a *Analyzer) AnalyzeBatch(b Batch) *AnalysisResult {
	// 1. 入口校验
	valid, rejected := ingestBatch(b)

	// 2. 去重
	survivors := Deduplicate(valid, a.planogram.thresholds.Overlap)

	// 3. 区域判定
	correct, misplaced := Classify(survivors, a.planogram)

	// 4. 库存核对
	counts, order := CountDetections(survivors, a.planogram)
	missing, extra := Reconcile(counts, a.planogram.ExpectedInventory())

	// 5. 告警
	alerts := BuildAlerts(misplaced, missing, extra, order, a.planogram)

	return &AnalysisResult{
		Survivors:       survivors,
		CorrectlyPlaced: correct,
		Misplaced:       misplaced,
		DetectedCounts:  counts,
		Missing:         missing,
		Extra:           extra,
		Alerts:          alerts,
		Rejected:        rejected,
		Timestamp:       a.now().UTC(),
	}
}

// Summarize 汇总结果
func (a *Analyzer) Summarize(r *AnalysisResult) Summary {
	s := Summary{
		TotalExpected:     a.planogram.TotalExpected(),
		TotalDetected:     len(r.Survivors),
		CorrectlyPlaced:   len(r.CorrectlyPlaced),
		Misplaced:         len(r.Misplaced),
		AlertCount:        len(r.Alerts),
		RequiresAttention: r.RequiresAttention(),
	}
	for _, n := range r.Missing {
		s.MissingItems += n
	}
	for _, n := range r.Extra {
		s.ExtraItems += n
	}
	return s
}
