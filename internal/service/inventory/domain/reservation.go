// internal/service/inventory/domain/reservation.go
package domain

import (
	"sort"

	"fixflow/internal/pkg/apperrors"
)

// ReservationRequest 是一次预留请求：零件 ID → 请求数量。按调用构造，不落盘。
type ReservationRequest map[string]int

// Validate 要求所有数量为正整数。
func (r ReservationRequest) Validate() error {
	if len(r) == 0 {
		return apperrors.New(apperrors.KindValidation, "reservation request must not be empty")
	}
	for id, qty := range r {
		if id == "" {
			return apperrors.New(apperrors.KindValidation, "reservation request contains an empty part id")
		}
		if qty <= 0 {
			return apperrors.Newf(apperrors.KindValidation, "part %s: requested quantity must be positive, got %d", id, qty)
		}
	}
	return nil
}

// SortedIDs 返回确定性的处理顺序。
func (r ReservationRequest) SortedIDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReservationOutcome 描述一次预留的结果。
// 不变量：对请求里的每个 id，Reserved[id] + Missing[id] == 请求数量（缺省按 0 计）。
type ReservationOutcome struct {
	Reserved map[string]int `json:"reserved"`
	Missing  map[string]int `json:"missing"`
}

// NewReservationOutcome 创建空结果。
func NewReservationOutcome() *ReservationOutcome {
	return &ReservationOutcome{
		Reserved: make(map[string]int),
		Missing:  make(map[string]int),
	}
}

// Record 记录单个零件的扣减结果。
func (o *ReservationOutcome) Record(partID string, requested, reserved int) {
	if reserved > 0 {
		o.Reserved[partID] = reserved
	}
	if deficit := requested - reserved; deficit > 0 {
		o.Missing[partID] = deficit
	}
}

// Complete 判断请求是否被完整满足。
func (o *ReservationOutcome) Complete() bool {
	return len(o.Missing) == 0
}
