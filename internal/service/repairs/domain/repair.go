// internal/service/repairs/domain/repair.go
package domain

import (
	"time"

	"fixflow/internal/pkg/apperrors"

	"github.com/google/uuid"
)

// RequiredPart 诊断后登记的一项所需配件。
type RequiredPart struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
}

// HistoryEntry 是历史轨迹里的一条只追加记录。
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// Repair 是维修单聚合的根实体。诊断、配件清单和状态只能经由流转方法变化。
type Repair struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	SubjectModel  string         `json:"subject_model"`
	Description   string         `json:"description"`
	Diagnosis     string         `json:"diagnosis,omitempty"`
	RequiredParts []RequiredPart `json:"required_parts,omitempty"`
	Status        Status         `json:"status"`
	MissingParts  map[string]int `json:"missing_parts,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	History       []HistoryEntry `json:"repair_history"`
}

// NewRepair 工厂函数：登记一张 PENDING 状态的维修单。
func NewRepair(userID, subjectModel, description string) (*Repair, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "user id must not be empty")
	}
	if subjectModel == "" {
		return nil, apperrors.New(apperrors.KindValidation, "subject model must not be empty")
	}

	now := time.Now()
	r := &Repair{
		ID:           uuid.New().String(),
		UserID:       userID,
		SubjectModel: subjectModel,
		Description:  description,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.appendHistory(StatusPending, "Repair registered")
	return r, nil
}

func (r *Repair) appendHistory(status Status, note string) {
	now := time.Now()
	r.History = append(r.History, HistoryEntry{Status: status, Timestamp: now, Note: note})
	r.UpdatedAt = now
}

// ReservationKey 是预留引擎里这张维修单独占的预留 ID。
func (r *Repair) ReservationKey() string {
	return "repair_" + r.ID
}

// Diagnose 记录诊断结论和所需配件，进入 DIAGNOSIS。只允许从 PENDING 发起。
// 预留结果由应用层随后通过 MarkInProgress / MarkWaitingParts /
// RevertToPending 写回。
func (r *Repair) Diagnose(diagnosis string, parts []RequiredPart) error {
	if r.Status != StatusPending {
		return apperrors.Newf(apperrors.KindIllegalTransition,
			"repair is %s, diagnosis is only accepted while awaiting diagnosis", r.Status.Description())
	}
	if diagnosis == "" {
		return apperrors.New(apperrors.KindValidation, "diagnosis text must not be empty")
	}
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if p.PartID == "" {
			return apperrors.New(apperrors.KindValidation, "required part id must not be empty")
		}
		if p.Quantity <= 0 {
			return apperrors.Newf(apperrors.KindValidation, "part %s: quantity must be positive", p.PartID)
		}
		if seen[p.PartID] {
			return apperrors.Newf(apperrors.KindValidation, "part %s listed twice", p.PartID)
		}
		seen[p.PartID] = true
	}

	r.Diagnosis = diagnosis
	r.RequiredParts = parts
	r.Status = StatusDiagnosis
	r.appendHistory(StatusDiagnosis, "Diagnosis recorded")
	return nil
}

// MarkInProgress 配件齐备（或无需配件）后的流转。
func (r *Repair) MarkInProgress(note string) {
	if note == "" {
		note = "Parts reserved, repair started"
	}
	r.Status = StatusInProgress
	r.MissingParts = nil
	r.appendHistory(StatusInProgress, note)
}

// MarkWaitingParts 配件有缺口时的流转，记录缺口快照。
func (r *Repair) MarkWaitingParts(missing map[string]int) {
	r.Status = StatusWaitingParts
	r.MissingParts = missing
	r.appendHistory(StatusWaitingParts, "Waiting for missing parts to arrive")
}

// RevertToPending 预留引擎不可用时回退到 PENDING，诊断文本保留，
// 失败原因进历史，诊断可以重试。
func (r *Repair) RevertToPending(reason string) {
	r.Status = StatusPending
	r.appendHistory(StatusPending, "Availability check failed: "+reason)
}

// Complete 人工终结一张维修单。这是显式的人工覆盖：不校验配件是否到齐，
// 只拒绝已终态的单子。
func (r *Repair) Complete() error {
	if r.Status.Terminal() {
		return apperrors.Newf(apperrors.KindIllegalTransition,
			"cannot complete a repair that is already %s", r.Status.Description())
	}
	now := time.Now()
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.appendHistory(StatusCompleted, "Repair completed by operator")
	return nil
}

// Cancel 取消维修单，终态拒绝。
func (r *Repair) Cancel() error {
	if r.Status.Terminal() {
		return apperrors.Newf(apperrors.KindIllegalTransition,
			"cannot cancel a repair that is already %s", r.Status.Description())
	}
	r.Status = StatusCancelled
	r.appendHistory(StatusCancelled, "Repair cancelled")
	return nil
}

// Matches 是 list 接口的 AND 过滤：空条件放行一切。
func (r *Repair) Matches(userID string, status Status) bool {
	if userID != "" && r.UserID != userID {
		return false
	}
	if status != "" && r.Status != status {
		return false
	}
	return true
}
