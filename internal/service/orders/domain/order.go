// internal/service/orders/domain/order.go
package domain

import (
	"time"

	"fixflow/internal/pkg/apperrors"

	"github.com/google/uuid"
)

// 订单行项目的类型标签
const (
	ItemTypePhone     = "phone"
	ItemTypeComponent = "component"
)

// OrderItem 是订单里的一个行项目。
type OrderItem struct {
	ItemID    string  `json:"item_id"`
	Quantity  int     `json:"quantity"`
	Type      string  `json:"type"` // phone | component
	UnitPrice float64 `json:"unit_price"`
}

// ShippingAddress 收货地址。
type ShippingAddress struct {
	Line    string `json:"line"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// HistoryEntry 是历史轨迹里的一条只追加记录。
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// Order 是订单聚合的根实体，状态与历史只能经由下面的流转方法变化。
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Status          Status          `json:"status"`
	TotalPrice      float64         `json:"total_price"`
	MissingItems    map[string]int  `json:"missing_items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	History         []HistoryEntry  `json:"order_history"`
}

// NewOrder 工厂函数：创建一个 PENDING 状态的新订单并写入第一条历史。
func NewOrder(userID string, items []OrderItem, address ShippingAddress) (*Order, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "user id must not be empty")
	}
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "order must contain at least one item")
	}
	for _, item := range items {
		if item.ItemID == "" {
			return nil, apperrors.New(apperrors.KindValidation, "order item id must not be empty")
		}
		if item.Quantity <= 0 {
			return nil, apperrors.Newf(apperrors.KindValidation, "item %s: quantity must be positive", item.ItemID)
		}
		if item.Type != ItemTypePhone && item.Type != ItemTypeComponent {
			return nil, apperrors.Newf(apperrors.KindValidation, "item %s: unknown type %q", item.ItemID, item.Type)
		}
	}

	now := time.Now()
	o := &Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		Status:          StatusPending,
		TotalPrice:      totalPrice(items),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.appendHistory(StatusPending, "Order created")
	return o, nil
}

func totalPrice(items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

func (o *Order) appendHistory(status Status, note string) {
	now := time.Now()
	o.History = append(o.History, HistoryEntry{Status: status, Timestamp: now, Note: note})
	o.UpdatedAt = now
}

// MarkProcessing 全部商品预留成功后的流转。
func (o *Order) MarkProcessing() {
	o.Status = StatusProcessing
	o.MissingItems = nil
	o.appendHistory(StatusProcessing, "Items reserved, order is being processed")
}

// MarkWaitingParts 部分/全部商品缺货时的流转，记录缺口快照。
func (o *Order) MarkWaitingParts(missing map[string]int) {
	o.Status = StatusWaitingParts
	o.MissingItems = missing
	o.appendHistory(StatusWaitingParts, "Waiting for missing items to arrive")
}

// NoteReservationFailure 预留引擎不可用时订单停留在 PENDING，
// 失败原因进历史供人工跟进，不算致命错误。
func (o *Order) NoteReservationFailure(reason string) {
	o.appendHistory(StatusPending, "Availability check failed: "+reason)
}

// NoteReviewFlag 创建时命中人工复核规则，只追加历史不拦截。
func (o *Order) NoteReviewFlag() {
	o.appendHistory(o.Status, "Order flagged for manual review")
}

// Cancel 取消订单。已发货/已送达的订单拒绝取消。
func (o *Order) Cancel() error {
	if o.Status == StatusShipped || o.Status == StatusDelivered {
		return apperrors.Newf(apperrors.KindIllegalTransition,
			"cannot cancel an order that is already %s", o.Status.Description())
	}
	o.Status = StatusCancelled
	o.appendHistory(StatusCancelled, "Order cancelled")
	return nil
}

// SetStatus 设置任意已知状态，未知值拒绝。note 为空时使用默认模板。
func (o *Order) SetStatus(status Status, note string) error {
	if !status.Valid() {
		return apperrors.Newf(apperrors.KindValidation, "invalid order status %q", status)
	}
	if note == "" {
		note = "Status changed to " + status.Description()
	}
	o.Status = status
	o.appendHistory(status, note)
	return nil
}

// Matches 是 list 接口的 AND 过滤：空条件放行一切。
func (o *Order) Matches(userID string, status Status) bool {
	if userID != "" && o.UserID != userID {
		return false
	}
	if status != "" && o.Status != status {
		return false
	}
	return true
}
