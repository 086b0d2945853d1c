// internal/service/push/notification_consumer.go
package push

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fixflow/internal/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// StatusNotification 与生命周期服务发布的通知载荷同构。
type StatusNotification struct {
	UserID   string `json:"user_id"`
	EntityID string `json:"entity_id"`
	Kind     string `json:"kind"` // order | repair
	Status   string `json:"status"`
	Note     string `json:"note"`
}

// NotificationConsumer 监听状态通知 topic，把消息推给本节点在线的用户。
// 每个网关节点用自己独立的消费组订阅，整个 topic 的消息每个节点都会看到；
// 投递前先查会话映射，会话指向其他节点的消息直接跳过，由那个节点投递。
// 离线用户的通知不补发。
type NotificationConsumer struct {
	reader   *kafka.Reader
	hub      *Hub
	sessions SessionStore
	nodeID   string
	wg       sync.WaitGroup
}

// NewNotificationConsumer 创建通知消费者。
func NewNotificationConsumer(reader *kafka.Reader, hub *Hub, sessions SessionStore, nodeID string) *NotificationConsumer {
	return &NotificationConsumer{reader: reader, hub: hub, sessions: sessions, nodeID: nodeID}
}

// Start 启动消费循环，长期运行直到 ctx 取消。
func (c *NotificationConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.L().Info().Str("topic", c.reader.Config().Topic).Msg("✅ Notification consumer started")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.L().Info().Msg("Notification consumer shutting down")
					return
				}
				logger.L().Error().Err(err).Msg("Could not read notification message, retrying")
				time.Sleep(time.Second)
				continue
			}

			c.processMessage(ctx, msg)

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				logger.L().Error().Err(err).Msg("Failed to commit notification message")
			}
		}
	}()
}

// Stop 等待消费循环退出并关闭 reader。
func (c *NotificationConsumer) Stop() {
	c.reader.Close()
	c.wg.Wait()
}

func (c *NotificationConsumer) processMessage(ctx context.Context, msg kafka.Message) {
	var notification StatusNotification
	if err := json.Unmarshal(msg.Value, &notification); err != nil {
		logger.L().Error().Err(err).Msg("Failed to unmarshal notification, message skipped")
		return
	}
	if notification.UserID == "" {
		return
	}

	node, err := c.sessions.GetUserGateway(ctx, notification.UserID)
	if err != nil {
		// 会话查询失败降级为直接尝试本地投递
		logger.L().Warn().Err(err).Str("user_id", notification.UserID).Msg("Session lookup failed, trying local delivery")
	} else if node != "" && node != c.nodeID {
		return // 用户连在其他网关节点
	}

	if c.hub.Push(notification.UserID, msg.Value) {
		logger.L().Debug().
			Str("user_id", notification.UserID).
			Str("entity_id", notification.EntityID).
			Str("status", notification.Status).
			Msg("Notification pushed")
	}
}
