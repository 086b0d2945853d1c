// internal/service/inventory/domain/part.go
package domain

import "fixflow/internal/pkg/apperrors"

// PartRecord 是共享库存里一个零件的存量记录。
// 不变量：任意可观测时刻 0 <= Available <= Total；
// Available 只能经由预留引擎的扣减/归还操作变化。
type PartRecord struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Total     int     `json:"total"`
	Available int     `json:"available"`
	UnitPrice float64 `json:"unit_price"`
}

// Validate 校验一条入库记录。
func (p *PartRecord) Validate() error {
	if p.ID == "" {
		return apperrors.New(apperrors.KindValidation, "part id must not be empty")
	}
	if p.Total < 0 {
		return apperrors.Newf(apperrors.KindValidation, "part %s: quantity must not be negative", p.ID)
	}
	if p.UnitPrice < 0 {
		return apperrors.Newf(apperrors.KindValidation, "part %s: unit price must not be negative", p.ID)
	}
	return nil
}
