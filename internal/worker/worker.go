package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/iot-aicha/stock-counter/internal/domains/common/job"
	"github.com/iot-aicha/stock-counter/internal/framework"
	"github.com/iot-aicha/stock-counter/pkg/lmstfyx"
	"github.com/iot-aicha/stock-counter/pkg/logger"
)

// Worker 一个消息源加一组处理协程
type Worker interface {
	Start()
	Shutdown()
	GetName() string
	// NextTick 定时 Worker 下一次巡检时间，非定时或尚未开始时为零值
	NextTick() time.Time
}

// scheduled 能报告下一次触发时间的消息源
type scheduled interface {
	Next() time.Time
}

// WorkerInstance Worker 实例
type WorkerInstance struct {
	ctx          context.Context
	name         string
	source       framework.MessageSource
	subscriber   *framework.Subscriber
	processor    *framework.Processor
	inputChan    chan *framework.Message
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	logger       logger.Logger
}

// NewWorkerInstance 创建 Worker 实例
func NewWorkerInstance(
	ctx context.Context,
	name string,
	subscriberCfg *framework.SubscriberConfig,
	processorCfg *framework.ProcessorConfig,
	source framework.MessageSource,
	proc lmstfyx.Proc,
	log logger.Logger,
) (Worker, error) {
	if source == nil {
		return nil, fmt.Errorf("worker %s has no message source", name)
	}

	return &WorkerInstance{
		ctx:        ctx,
		name:       name,
		source:     source,
		subscriber: framework.NewSubscriber(subscriberCfg, source, log),
		processor:  framework.NewProcessor(processorCfg, proc, source, log),
		inputChan:  make(chan *framework.Message, processorCfg.BufferSize),
		shutdownCh: make(chan struct{}),
		logger:     log,
	}, nil
}

// NewTickerWorker 定时巡检 Worker，每 interval 向 actionType 投递一条任务
func NewTickerWorker(
	ctx context.Context,
	name string,
	interval time.Duration,
	actionType string,
	subscriberCfg *framework.SubscriberConfig,
	processorCfg *framework.ProcessorConfig,
	proc lmstfyx.Proc,
	log logger.Logger,
) (Worker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("worker %s: interval must be positive", name)
	}
	source := framework.NewTickerSource(interval, tickerJob(actionType))
	return NewWorkerInstance(ctx, name, subscriberCfg, processorCfg, source, proc, log)
}

// Start 启动 Worker，阻塞直到 Shutdown
func (w *WorkerInstance) Start() {
	w.logger.Infof(w.ctx, "[Worker] %s started", w.name)

	if err := w.processor.Start(w.ctx, w.inputChan); err != nil {
		w.logger.Errorf(w.ctx, "[Worker] %s processor start failed: %v", w.name, err)
	}
	if err := w.subscriber.Start(w.ctx, w.inputChan); err != nil {
		w.logger.Errorf(w.ctx, "[Worker] %s subscriber start failed: %v", w.name, err)
	}

	<-w.shutdownCh
}

// Shutdown 先停拉取，再排空处理队列；重复调用只生效一次
func (w *WorkerInstance) Shutdown() {
	w.shutdownOnce.Do(func() {
		w.logger.Infof(w.ctx, "[Worker] %s began to close", w.name)

		w.subscriber.Stop()
		w.subscriber.Wait()

		// 拉取已停止，剩余消息处理完再退出
		w.processor.SignalShutdown()
		w.processor.Wait()

		close(w.shutdownCh)
		w.logger.Infof(w.ctx, "[Worker] %s shutdown complete", w.name)
	})
}

// GetName 获取 Worker 名称
func (w *WorkerInstance) GetName() string {
	return w.name
}

// NextTick 下一次定时触发时间
func (w *WorkerInstance) NextTick() time.Time {
	if s, ok := w.source.(scheduled); ok {
		return s.Next()
	}
	return time.Time{}
}

// tickerJob 定时巡检任务，批次 ID 即消息 ID
func tickerJob(actionType string) framework.JobBuilder {
	return func(jobID string, due time.Time) ([]byte, error) {
		j := job.NewJob(jobID, actionType, jobID, nil)
		j.Payload.Data.Metadata = map[string]interface{}{"due": due.UTC().Format(time.RFC3339)}
		b, err := json.Marshal(j)
		if err != nil {
			return nil, fmt.Errorf("marshal ticker job failed: %w", err)
		}
		return b, nil
	}
}
