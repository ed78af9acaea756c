package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/iot-aicha/stock-counter/internal/domains"
	"github.com/iot-aicha/stock-counter/internal/domains/common"
	"github.com/iot-aicha/stock-counter/internal/framework"
	"github.com/iot-aicha/stock-counter/pkg/config"
	"github.com/iot-aicha/stock-counter/pkg/lmstfyx"
	"github.com/iot-aicha/stock-counter/pkg/logger"
)

// Manager 接口
type Manager interface {
	Start() error
	Shutdown()
	NextTick() time.Time
}

// ManagerInstance Manager 实例
type ManagerInstance struct {
	ctx        context.Context
	cfg        *config.Config
	svc        common.ShelfService
	queue      framework.MessageSource // lmstfy 客户端，可为空
	workers    []Worker
	mu         sync.RWMutex // 保护 workers
	started    chan struct{}
	closing    *atomic.Bool
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	logger     logger.Logger
}

// NewManagerInstance 创建 Manager
// queue 为空时只能运行 ticker 类型的 Worker
func NewManagerInstance(
	cfg *config.Config,
	svc common.ShelfService,
	queue framework.MessageSource,
	log logger.Logger,
) (Manager, error) {
	if svc == nil {
		return nil, fmt.Errorf("shelf service is required")
	}
	for _, w := range cfg.Workers {
		if w.Source == config.SourceLmstfy && queue == nil {
			return nil, fmt.Errorf("worker %s requires a lmstfy client", w.Name)
		}
	}

	return &ManagerInstance{
		ctx:        context.Background(),
		cfg:        cfg,
		svc:        svc,
		queue:      queue,
		started:    make(chan struct{}),
		closing:    atomic.NewBool(false),
		shutdownCh: make(chan struct{}),
		workers:    make([]Worker, 0, len(cfg.Workers)),
		logger:     log,
	}, nil
}

// Start 启动 Manager，阻塞直到 Shutdown
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting...")

	// 1. 加载所有 Worker
	if err := m.loadWorkers(); err != nil {
		close(m.started)
		return fmt.Errorf("failed to load workers: %w", err)
	}

	m.logger.Infof(m.ctx, "[Manager] All workers loaded, count: %d", len(m.workers))

	// 2. 启动所有 Worker（每个 Worker 在独立 goroutine）
	for _, worker := range m.workers {
		w := worker
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Start()
		}()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}
	close(m.started)

	m.logger.Infof(m.ctx, "[Manager] Start success")

	// 3. 阻塞等待退出信号
	<-m.shutdownCh

	return nil
}

// Shutdown 优雅退出，可重复调用
func (m *ManagerInstance) Shutdown() {
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	if m.closing.CAS(false, true) {
		// Start 尚未完成加载时等待，避免遗漏 Worker
		<-m.started

		// 1. 所有 Worker 安全退出
		for _, worker := range m.workers {
			m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
			worker.Shutdown()
		}

		// 2. 等待所有 Worker 退出
		m.wg.Wait()

		// 3. 关闭信号通道
		close(m.shutdownCh)

		m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
	}
}

// NextTick 最近一次定时巡检时间，没有定时 Worker 或尚未启动时返回零值
func (m *ManagerInstance) NextTick() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var next time.Time
	for _, w := range m.workers {
		n := w.NextTick()
		if n.IsZero() {
			continue
		}
		if next.IsZero() || n.Before(next) {
			next = n
		}
	}
	return next
}

// loadWorkers 加载所有 Worker
func (m *ManagerInstance) loadWorkers() error {
	getProcess := domains.GetProcess(m.logger, m.svc)

	for _, workerCfg := range m.cfg.Workers {
		subCfg := &framework.SubscriberConfig{
			QueueName:    workerCfg.QueueName,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}

		procCfg := &framework.ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		worker, err := m.buildWorker(workerCfg, subCfg, procCfg, getProcess)
		if err != nil {
			return fmt.Errorf("failed to create worker %s: %w", workerCfg.Name, err)
		}

		m.mu.Lock()
		m.workers = append(m.workers, worker)
		m.mu.Unlock()
	}

	return nil
}

// buildWorker 按消息源类型创建 Worker
func (m *ManagerInstance) buildWorker(
	w config.WorkerConfig,
	subCfg *framework.SubscriberConfig,
	procCfg *framework.ProcessorConfig,
	proc lmstfyx.Proc,
) (Worker, error) {
	switch w.Source {
	case config.SourceLmstfy:
		return NewWorkerInstance(m.ctx, w.Name, subCfg, procCfg, m.queue, proc, m.logger)
	case config.SourceTicker:
		return NewTickerWorker(m.ctx, w.Name, w.Interval, w.ActionType, subCfg, procCfg, proc, m.logger)
	default:
		return nil, fmt.Errorf("unknown source %q", w.Source)
	}
}
