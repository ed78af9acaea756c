package framework

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobBuilder 根据计划执行时间构造 Job 数据
type JobBuilder func(jobID string, due time.Time) ([]byte, error)

// TickerSource 定时巡检消息源：首次立即触发，之后每 interval 产生一条消息
// 错过的周期直接丢弃，不补发
type TickerSource struct {
	interval time.Duration
	build    JobBuilder

	mu    sync.Mutex
	next  time.Time
	now   func() time.Time
	sleep func(time.Duration)
}

// NewTickerSource 创建定时消息源
func NewTickerSource(interval time.Duration, build JobBuilder) *TickerSource {
	return &TickerSource{
		interval: interval,
		build:    build,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Consume 等待下一个周期（最多 timeout），到期返回消息
func (t *TickerSource) Consume(queue string, timeout time.Duration, _ time.Duration) (*Message, error) {
	if timeout <= 0 {
		timeout = t.interval
	}

	t.mu.Lock()
	now := t.now()
	if t.next.IsZero() {
		t.next = now
	}
	wait := t.next.Sub(now)
	if wait > timeout {
		t.mu.Unlock()
		t.sleep(timeout)
		return nil, nil
	}

	due := t.next
	t.next = due.Add(t.interval)
	if t.next.Before(now) {
		t.next = now.Add(t.interval)
	}
	t.mu.Unlock()

	if wait > 0 {
		t.sleep(wait)
	}

	jobID := uuid.New().String()
	data, err := t.build(jobID, due)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:    jobID,
		Queue: queue,
		Data:  data,
		Extra: map[string]interface{}{"due": due},
	}, nil
}

// Ack 定时消息无需确认
func (t *TickerSource) Ack(string, string) error {
	return nil
}

// Next 下一次触发时间，未启动返回零值
func (t *TickerSource) Next() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}
