package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/iot-aicha/stock-counter/pkg/logger"
)

// Client 推送订阅者（SSE / WebSocket 连接）
type Client struct {
	ID   string
	send chan []byte
}

// Messages 消息通道，被注销后关闭
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// HubService 订阅者注册表 + 广播
// 注册、注销、广播共用一把锁，广播不阻塞：缓冲区已满的订阅者直接移除
type HubService struct {
	clients    map[string]*Client
	bufferSize int
	mutex      sync.RWMutex
	logger     logger.Logger
}

// NewHubService 创建 Hub
func NewHubService(bufferSize int, log logger.Logger) *HubService {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &HubService{
		clients:    make(map[string]*Client),
		bufferSize: bufferSize,
		logger:     log,
	}
}

// Register 注册新订阅者
func (h *HubService) Register() *Client {
	client := &Client{
		ID:   uuid.New().String(),
		send: make(chan []byte, h.bufferSize),
	}

	h.mutex.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mutex.Unlock()

	h.logger.Infof(context.Background(), "[Hub] Client connected: %s, total: %d", client.ID, total)
	return client
}

// Unregister 注销订阅者，重复注销无副作用
func (h *HubService) Unregister(client *Client) {
	h.mutex.Lock()
	removed := h.removeLocked(client.ID)
	total := len(h.clients)
	h.mutex.Unlock()

	if removed {
		h.logger.Infof(context.Background(), "[Hub] Client disconnected: %s, total: %d", client.ID, total)
	}
}

// Broadcast 广播消息，返回成功投递的订阅者数量
func (h *HubService) Broadcast(message []byte) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	delivered := 0
	for id, client := range h.clients {
		select {
		case client.send <- message:
			delivered++
		default:
			h.logger.Warnf(context.Background(), "[Hub] Client %s too slow, dropping", id)
			h.removeLocked(id)
		}
	}
	return delivered
}

// BroadcastJSON 序列化后广播
func (h *HubService) BroadcastJSON(v interface{}) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("marshal broadcast message failed: %w", err)
	}
	return h.Broadcast(data), nil
}

// GetClientCount 当前订阅者数量
func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Close 注销所有订阅者
func (h *HubService) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id := range h.clients {
		h.removeLocked(id)
	}
}

func (h *HubService) removeLocked(id string) bool {
	client, ok := h.clients[id]
	if !ok {
		return false
	}
	delete(h.clients, id)
	close(client.send)
	return true
}
