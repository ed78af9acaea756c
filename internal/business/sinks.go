package business

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iot-aicha/stock-counter/internal/model"
)

// HistoryStore 历史记录存储
type HistoryStore interface {
	Save(ctx context.Context, entry *model.CheckEntry) error
}

// CheckPublisher 巡检完成通知
type CheckPublisher interface {
	PublishCheckComplete(ctx context.Context, channel string, n *model.ShelfCheckNotification) error
}

// Broadcaster 实时推送
type Broadcaster interface {
	BroadcastJSON(v interface{}) (int, error)
}

// CriticalNotifier 严重告警通知
type CriticalNotifier interface {
	NotifyCritical(ctx context.Context, entry *model.CheckEntry) (bool, error)
}

// HistorySink 写入历史记录
type HistorySink struct {
	Store HistoryStore
}

func (s *HistorySink) Name() string { return "history" }

func (s *HistorySink) Deliver(ctx context.Context, entry *model.CheckEntry) error {
	return s.Store.Save(ctx, entry)
}

// RedisSink 发布到 Redis 频道
type RedisSink struct {
	Publisher CheckPublisher
	Channel   string
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, entry *model.CheckEntry) error {
	return s.Publisher.PublishCheckComplete(ctx, s.Channel, model.NewShelfCheckNotification(entry))
}

// HubSink 推送给 SSE / WebSocket 订阅者
type HubSink struct {
	Hub Broadcaster
}

func (s *HubSink) Name() string { return "hub" }

func (s *HubSink) Deliver(_ context.Context, entry *model.CheckEntry) error {
	_, err := s.Hub.BroadcastJSON(entry)
	return err
}

// AlertQueueSink 存在告警时投递告警任务
type AlertQueueSink struct {
	Publisher JobPublisher
	Queue     string
}

func (s *AlertQueueSink) Name() string { return "alert_queue" }

func (s *AlertQueueSink) Deliver(_ context.Context, entry *model.CheckEntry) error {
	if entry.Result == nil || len(entry.Result.Alerts) == 0 {
		return nil
	}

	data, err := json.Marshal(&model.AlertJob{
		RunID:     entry.RunID,
		Timestamp: entry.Timestamp.Unix(),
		Critical:  entry.Result.HasCritical(),
		Alerts:    entry.Result.Alerts,
	})
	if err != nil {
		return fmt.Errorf("marshal alert job failed: %w", err)
	}

	if _, err := s.Publisher.Publish(s.Queue, data, 0, 0); err != nil {
		return fmt.Errorf("publish alert job failed: %w", err)
	}
	return nil
}

// TelegramSink 严重告警推送到 Telegram
type TelegramSink struct {
	Notifier CriticalNotifier
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Deliver(ctx context.Context, entry *model.CheckEntry) error {
	_, err := s.Notifier.NotifyCritical(ctx, entry)
	return err
}
