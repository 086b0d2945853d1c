// internal/service/repairs/infrastructure/gorm_model.go
package infrastructure

import (
	"database/sql"
	"time"
)

// RepairModel 对应数据库中的 repairs 表。配件清单、历史轨迹和缺口快照
// 整体按 JSON 落列，查询维度只有 ID / 用户 / 状态。
type RepairModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	UserID       string `gorm:"size:64;index"`
	SubjectModel string `gorm:"size:128"`
	Description  string `gorm:"type:text"`
	Diagnosis    string `gorm:"type:text"`
	Status       string `gorm:"size:32;index"`
	PartsJSON    string `gorm:"type:text"`
	MissingJSON  string `gorm:"type:text"`
	HistoryJSON  string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  sql.NullTime
}

// TableName 指定 GORM 应该使用的表名
func (RepairModel) TableName() string {
	return "repairs"
}
