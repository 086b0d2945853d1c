// internal/service/orders/domain/status.go
package domain

// Status 定义了订单的生命周期状态。
type Status string

const (
	StatusPending      Status = "PENDING"       // 已创建，等待处理
	StatusProcessing   Status = "PROCESSING"    // 全部商品已预留，处理中
	StatusWaitingParts Status = "WAITING_PARTS" // 部分商品缺货，等待到货
	StatusShipped      Status = "SHIPPED"       // 已发货
	StatusDelivered    Status = "DELIVERED"     // 已送达
	StatusCancelled    Status = "CANCELLED"     // 已取消
)

var statusDescriptions = map[Status]string{
	StatusPending:      "awaiting processing",
	StatusProcessing:   "being processed",
	StatusWaitingParts: "waiting for parts",
	StatusShipped:      "shipped",
	StatusDelivered:    "delivered",
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
