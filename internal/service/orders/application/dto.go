// internal/service/orders/application/dto.go
package application

import "fixflow/internal/service/orders/domain"

// CreateOrderRequest 是创建订单的应用层 DTO。
type CreateOrderRequest struct {
	UserID          string                 `json:"user_id"`
	Items           []domain.OrderItem     `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
}

// SetStatusRequest 是状态更新的应用层 DTO。
type SetStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}
