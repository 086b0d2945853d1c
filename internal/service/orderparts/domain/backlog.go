// internal/service/orderparts/domain/backlog.go
package domain

import (
	"sort"
	"time"

	"fixflow/internal/pkg/apperrors"
)

// ShortageReport 是一次缺口上报：零件 ID → 还欠的数量。
type ShortageReport map[string]int

// Validate 校验缺口内容。空上报合法（no-op），数量必须为正。
func (r ShortageReport) Validate() error {
	for id, qty := range r {
		if id == "" {
			return apperrors.New(apperrors.KindValidation, "part id must not be empty")
		}
		if qty <= 0 {
			return apperrors.Newf(apperrors.KindValidation, "part %s: quantity must be positive", id)
		}
	}
	return nil
}

// BacklogEntry 积压清单里的一项。
type BacklogEntry struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
}

// EntriesFromMap 把积压映射展开成按零件 ID 排序的清单。
func EntriesFromMap(backlog map[string]int) []BacklogEntry {
	entries := make([]BacklogEntry, 0, len(backlog))
	for id, qty := range backlog {
		entries = append(entries, BacklogEntry{PartID: id, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].PartID < entries[j].PartID })
	return entries
}

// ProcurementOrder 是一次采购下单：积压清空时刻的完整快照。
type ProcurementOrder struct {
	ID        string         `json:"id"`
	Parts     []BacklogEntry `json:"parts"`
	CreatedAt time.Time      `json:"created_at"`
}
