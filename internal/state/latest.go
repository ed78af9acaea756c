package state

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/iot-aicha/stock-counter/internal/analysis"
)

// Snapshot 某次巡检的完整结果，发布后只读
type Snapshot struct {
	Version   uint64
	RunID     string
	Source    string
	Result    *analysis.AnalysisResult
	Summary   analysis.Summary
	Annotated []byte // JPEG，可能为空
	UpdatedAt time.Time
}

// Latest 最新结果槽位
// 写入串行化，读取无锁；读者要么看到旧快照，要么看到完整的新快照
type Latest struct {
	mu      sync.Mutex
	current atomic.Value
	version *atomic.Uint64
}

// NewLatest 创建空槽位
func NewLatest() *Latest {
	return &Latest{
		version: atomic.NewUint64(0),
	}
}

// Publish 发布新快照，返回带版本号的副本
func (l *Latest) Publish(s Snapshot) *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := s
	snap.Annotated = append([]byte(nil), s.Annotated...)
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now().UTC()
	}
	snap.Version = l.version.Inc()
	l.current.Store(&snap)
	return &snap
}

// Load 读取最新快照
func (l *Latest) Load() (*Snapshot, bool) {
	snap, ok := l.current.Load().(*Snapshot)
	return snap, ok && snap != nil
}

// Version 当前版本号，0 表示尚无结果
func (l *Latest) Version() uint64 {
	return l.version.Load()
}
