// internal/pkg/session/manager.go
package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "push:session:"
	sessionTTL       = 24 * time.Hour
)

// Manager 维护 "用户 → 所连推送网关节点" 的会话映射，存放在 Redis，
// 供消息路由时查询用户在哪个网关在线。
type Manager struct {
	client *redis.Client
}

// NewManager 创建会话管理器。
func NewManager(redisAddr string) *Manager {
	return &Manager{
		client: redis.NewClient(&redis.Options{Addr: redisAddr}),
	}
}

// SetUserGateway 记录用户当前连接的网关节点。
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	err := m.client.Set(ctx, sessionKeyPrefix+userID, nodeID, sessionTTL).Err()
	return errors.Wrapf(err, "failed to set session for user %s", userID)
}

// GetUserGateway 查询用户所在的网关节点，离线返回空串。
func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	nodeID, err := m.client.Get(ctx, sessionKeyPrefix+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to get session for user %s", userID)
	}
	return nodeID, nil
}

// 仅当会话仍指向指定节点时才删除。旧连接断开晚于用户重连时，
// 不能误删新连接刚写入的会话。
var clearIfOwnerScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// ClearUserGatewayIf 在会话仍指向 nodeID 时将其清除，否则不动。
func (m *Manager) ClearUserGatewayIf(ctx context.Context, userID, nodeID string) error {
	err := clearIfOwnerScript.Run(ctx, m.client, []string{sessionKeyPrefix + userID}, nodeID).Err()
	if err == redis.Nil {
		err = nil
	}
	return errors.Wrapf(err, "failed to clear session for user %s", userID)
}
