// internal/service/repairs/domain/status.go
package domain

// Status 定义了维修单的生命周期状态。
type Status string

const (
	StatusPending      Status = "PENDING"       // 已登记，等待诊断
	StatusDiagnosis    Status = "DIAGNOSIS"     // 诊断已记录
	StatusInProgress   Status = "IN_PROGRESS"   // 配件齐备，维修中
	StatusWaitingParts Status = "WAITING_PARTS" // 配件缺货，等待到货
	StatusCompleted    Status = "COMPLETED"     // 已完成
	StatusCancelled    Status = "CANCELLED"     // 已取消
)

var statusDescriptions = map[Status]string{
	StatusPending:      "awaiting diagnosis",
	StatusDiagnosis:    "diagnosed",
	StatusInProgress:   "repair in progress",
	StatusWaitingParts: "waiting for parts",
	StatusCompleted:    "completed",
	StatusCancelled:    "cancelled",
}

// Valid 判断是否是已知状态值。
func (s Status) Valid() bool {
	_, ok := statusDescriptions[s]
	return ok
}

// Description 返回状态的展示文案。
func (s Status) Description() string {
	return statusDescriptions[s]
}

// Terminal 完成与取消之后不再接受任何流转。
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}
