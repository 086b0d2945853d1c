// internal/service/orders/infrastructure/gorm_model.go
package infrastructure

import (
	"time"
)

// OrderModel 对应数据库中的 orders 表。行项目、历史轨迹、收货地址和
// 缺货快照整体按 JSON 落列，按 ID / 用户 / 状态查询即可，不需要行级关联。
type OrderModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	UserID      string `gorm:"size:64;index"`
	Status      string `gorm:"size:32;index"`
	TotalPrice  float64
	ItemsJSON   string `gorm:"type:text"`
	AddressJSON string `gorm:"type:text"`
	MissingJSON string `gorm:"type:text"`
	HistoryJSON string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}
