// internal/service/orderparts/domain/port/store.go
package port

import "context"

// BacklogStore 持久化缺件积压。多个库存实例并发上报同一零件时
// 数量必须累加，不能互相覆盖。
type BacklogStore interface {
	// Add 把缺口累加进积压。
	Add(ctx context.Context, parts map[string]int) error
	// List 返回当前积压的快照。
	List(ctx context.Context) (map[string]int, error)
	// Drain 原子地取出并清空整个积压，空积压返回空映射。
	Drain(ctx context.Context) (map[string]int, error)
}
