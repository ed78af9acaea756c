package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iot-aicha/stock-counter/internal/analysis"
	"github.com/iot-aicha/stock-counter/internal/model"
)

// Sender Telegram 发送接口
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier 严重告警推送到 Telegram 群组
type TelegramNotifier struct {
	bot    Sender
	chatID int64
}

// NewTelegramNotifier 创建通知器（会调用 getMe 校验 token）
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return NewTelegramNotifierWithSender(bot, chatID), nil
}

// NewTelegramNotifierWithSender 使用已有 Sender 创建通知器
func NewTelegramNotifierWithSender(bot Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

// NotifyCritical 存在 critical 告警时发送消息，返回是否发送
func (n *TelegramNotifier) NotifyCritical(_ context.Context, entry *model.CheckEntry) (bool, error) {
	if entry.Result == nil || !entry.Result.HasCritical() {
		return false, nil
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatCritical(entry))
	if _, err := n.bot.Send(msg); err != nil {
		return false, fmt.Errorf("failed to send telegram message: %w", err)
	}
	return true, nil
}

// FormatCritical 生成告警文本
func FormatCritical(entry *model.CheckEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shelf check %s at %s\n", entry.RunID, entry.Timestamp.Format("2006-01-02 15:04:05"))
	for _, a := range entry.Result.Alerts {
		if a.Level == analysis.AlertLevelCritical {
			fmt.Fprintf(&b, "[CRITICAL] %s\n", a.Message)
		}
	}
	fmt.Fprintf(&b, "detected %d/%d, misplaced %d, missing %d, extra %d",
		entry.Summary.TotalDetected, entry.Summary.TotalExpected,
		entry.Summary.Misplaced, entry.Summary.MissingItems, entry.Summary.ExtraItems)
	return b.String()
}
