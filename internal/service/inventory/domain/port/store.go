// internal/service/inventory/domain/port/store.go
package port

import (
	"context"

	"fixflow/internal/service/inventory/domain"
)

// InventoryStore 是预留引擎对共享库存存储的依赖。
//
// Reserve 必须满足单键原子性：同一零件上的并发调用要串行化，两个并发
// 请求绝不能读到同一个陈旧的 available；不同零件之间互不阻塞。
// 这是整个系统的正确性关键（实现里用 Redis Lua 脚本 / 每键互斥锁达成）。
type InventoryStore interface {
	// GetPart 读取零件记录，不存在时返回 NotFound 类错误。
	GetPart(ctx context.Context, partID string) (*domain.PartRecord, error)
	// ListParts 返回全部零件记录。
	ListParts(ctx context.Context) ([]domain.PartRecord, error)
	// UpsertPart 合并写入一条记录：已存在时累加数量，其余属性覆盖。
	UpsertPart(ctx context.Context, rec domain.PartRecord) error

	// Reserve 原子地扣减 min(available, qty)，把扣减量记入 reservationID
	// 名下并返回。零件不存在时返回 0（整单计入缺口），不算错误。
	Reserve(ctx context.Context, reservationID, partID string, qty int) (int, error)
	// Release 原子地把 reservationID 名下的全部扣减量加回库存并删除该
	// 预留记录，返回归还的数量映射。未知 ID 是空操作，返回空映射。
	Release(ctx context.Context, reservationID string) (map[string]int, error)
}
