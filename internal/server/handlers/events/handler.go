package events

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/iot-aicha/stock-counter/internal/broadcast"
	"github.com/iot-aicha/stock-counter/pkg/logger"
)

const writeWait = 10 * time.Second

// Hub 订阅者注册表
type Hub interface {
	Register() *broadcast.Client
	Unregister(client *broadcast.Client)
}

// EventsHandler 巡检结果实时推送（SSE / WebSocket）
type EventsHandler struct {
	hub       Hub
	heartbeat time.Duration
	upgrader  websocket.Upgrader
	logger    logger.Logger
}

// NewEventsHandler 创建推送处理器
func NewEventsHandler(hub Hub, heartbeat time.Duration, log logger.Logger) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &EventsHandler{
		hub:       hub,
		heartbeat: heartbeat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: log,
	}
}

// Stream SSE 推送，空闲时定期发送心跳注释
func (h *EventsHandler) Stream(c *gin.Context) {
	client := h.hub.Register()
	defer h.hub.Unregister(client)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-client.Messages():
			if !ok {
				return false
			}
			_, err := fmt.Fprintf(w, "data: %s\n\n", msg)
			return err == nil
		case <-ticker.C:
			_, err := io.WriteString(w, ": heartbeat\n\n")
			return err == nil
		}
	})
}

// WebSocket WebSocket 推送，客户端发来的消息忽略
func (h *EventsHandler) WebSocket(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf(ctx, "[Events] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	client := h.hub.Register()
	defer h.hub.Unregister(client)

	// 读循环：感知对端关闭
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-client.Messages():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debugf(ctx, "[Events] websocket write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
