// internal/service/repairs/domain/port/reservation.go
package port

import "context"

// ReservationResult 是预留引擎返回的结果快照。
type ReservationResult struct {
	Success  bool           `json:"success"`
	Reserved map[string]int `json:"reserved"`
	Missing  map[string]int `json:"missing"`
}

// ReservationService 是维修生命周期对预留引擎的依赖。
// 预留 ID 使用 repair_<id>，取消时的补偿释放以同一个 ID 定位。
type ReservationService interface {
	Reserve(ctx context.Context, reservationID string, parts map[string]int) (*ReservationResult, error)
	// Release 尽力而为的补偿：失败由调用方记日志后吞掉。
	Release(ctx context.Context, reservationID string) error
}
