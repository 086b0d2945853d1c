// internal/service/orders/domain/repository.go
package domain

import "context"

// ListFilter 是 list 查询的可选过滤条件，两个字段做 AND 组合。
type ListFilter struct {
	UserID string
	Status Status
}

// OrderRepository 定义订单聚合的持久化接口，由基础设施层实现。
type OrderRepository interface {
	// Save 保存订单聚合（创建或更新）。
	Save(ctx context.Context, order *Order) error
	// FindByID 按 ID 查找，不存在返回 NotFound 类错误。
	FindByID(ctx context.Context, id string) (*Order, error)
	// List 按过滤条件列出订单。
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
}
