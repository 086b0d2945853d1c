// internal/service/inventory/domain/port/backlog.go
package port

import "context"

// BacklogNotifier 把未满足的数量上报给缺件积压方（经注册中心发现的
// order-parts 后端）。上报是顾问性质的：失败由调用方记日志后吞掉，
// 绝不影响预留调用本身的结果。
type BacklogNotifier interface {
	NotifyShortage(ctx context.Context, missing map[string]int) error
}
