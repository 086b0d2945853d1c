// internal/service/repairs/domain/port/notifier.go
package port

import "context"

// StatusNotification 状态变更通知，推送网关按 UserID 分发给在线用户。
type StatusNotification struct {
	UserID   string `json:"user_id"`
	EntityID string `json:"entity_id"`
	Kind     string `json:"kind"` // order | repair
	Status   string `json:"status"`
	Note     string `json:"note"`
}

// StatusNotifier 发布状态变更通知。通知是顾问性质的：失败只记日志。
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, n StatusNotification) error
}
