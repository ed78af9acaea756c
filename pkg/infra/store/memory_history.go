package store

import (
	"context"
	"sync"

	"github.com/iot-aicha/stock-counter/internal/model"
)

// MemoryHistory 未配置数据库时使用的进程内历史，只保留最近 limit 条
type MemoryHistory struct {
	mu      sync.RWMutex
	entries []*model.CheckEntry // 旧的在前
	limit   int
}

// NewMemoryHistory 创建进程内历史
func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryHistory{limit: limit}
}

// Save 追加一条记录
func (m *MemoryHistory) Save(_ context.Context, entry *model.CheckEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.limit; over > 0 {
		m.entries = append([]*model.CheckEntry(nil), m.entries[over:]...)
	}
	return nil
}

// List 最近的记录，新的在前
func (m *MemoryHistory) List(_ context.Context, limit int) ([]*model.CheckEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]*model.CheckEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Get 按 run_id 查询
func (m *MemoryHistory) Get(_ context.Context, runID string) (*model.CheckEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].RunID == runID {
			return m.entries[i], nil
		}
	}
	return nil, ErrNotFound
}

// Close 无需释放资源
func (m *MemoryHistory) Close() error {
	return nil
}
