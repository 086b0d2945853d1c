// internal/service/push/hub.go
package push

import (
	"context"
	"sync"

	"fixflow/internal/pkg/logger"
)

// SessionStore 维护 "用户 → 所连网关节点" 的共享会话映射。
type SessionStore interface {
	SetUserGateway(ctx context.Context, userID, nodeID string) error
	GetUserGateway(ctx context.Context, userID string) (string, error)
	ClearUserGatewayIf(ctx context.Context, userID, nodeID string) error
}

// Hub 维护所有活跃的 WebSocket 连接，按 UserID 索引。
// 同一用户重复连接时新连接顶掉旧连接。
// 会话映射的写入和清除都由 Run 串行处理：被顶掉的旧连接注销时
// 不会清掉新连接刚写入的会话。
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	sessions SessionStore
	nodeID   string

	lock    sync.RWMutex
	clients map[string]*Client
}

// NewHub 创建连接中枢。
func NewHub(sessions SessionStore, nodeID string) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sessions:   sessions,
		nodeID:     nodeID,
	}
}

// Run 处理注册/注销事件，应在独立 goroutine 中运行。
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.lock.Unlock()
			if err := h.sessions.SetUserGateway(context.Background(), client.userID, h.nodeID); err != nil {
				logger.L().Error().Err(err).Str("user_id", client.userID).Msg("Failed to set session")
			}
			logger.L().Info().Str("user_id", client.userID).Msg("Client connected")
		case client := <-h.unregister:
			h.lock.Lock()
			current, ok := h.clients[client.userID]
			if ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.lock.Unlock()
			// 已被新连接顶掉的客户端不碰会话；节点条件防止误删
			// 用户迁到其他网关后的新会话
			if ok && current == client {
				if err := h.sessions.ClearUserGatewayIf(context.Background(), client.userID, h.nodeID); err != nil {
					logger.L().Warn().Err(err).Str("user_id", client.userID).Msg("Failed to clear session")
				}
			}
			logger.L().Info().Str("user_id", client.userID).Msg("Client disconnected")
		case <-h.done:
			return
		}
	}
}

// Stop 结束事件循环。
func (h *Hub) Stop() {
	close(h.done)
}

// Push 把一条消息投递给指定用户。用户不在本节点返回 false。
func (h *Hub) Push(userID string, message []byte) bool {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		// 写缓冲已满，视作连接失效
		logger.L().Warn().Str("user_id", userID).Msg("Client send buffer full, dropping message")
		return false
	}
}
