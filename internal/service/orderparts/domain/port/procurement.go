// internal/service/orderparts/domain/port/procurement.go
package port

import (
	"context"

	"fixflow/internal/service/orderparts/domain"
)

// ProcurementPublisher 把采购下单发给供应链侧。
type ProcurementPublisher interface {
	Publish(ctx context.Context, order *domain.ProcurementOrder) error
}

// FlushLock 保证同一时刻只有一个实例在执行积压下单。
// 具体实现是 ZooKeeper 临时顺序节点锁。
type FlushLock interface {
	Lock() error
	Unlock() error
}
