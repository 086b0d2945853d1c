// internal/service/orders/infrastructure/adapter/inventory_http_adapter.go
package adapter

import (
	"context"
	"net/http"

	"fixflow/internal/pkg/constants"
	"fixflow/internal/pkg/httpclient"
	"fixflow/internal/service/orders/domain/port"
)

// InventoryHTTPAdapter 实现 port.ReservationService：经服务发现调用
// 库存后端的预留/释放接口。
type InventoryHTTPAdapter struct {
	client *httpclient.Client
}

// NewInventoryHTTPAdapter 创建库存适配器。
func NewInventoryHTTPAdapter(client *httpclient.Client) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client}
}

type reserveRequest struct {
	ReservationID string         `json:"reservation_id"`
	Parts         map[string]int `json:"parts"`
}

type reserveResponse struct {
	ReservationID string         `json:"reservation_id"`
	Success       bool           `json:"success"`
	Reserved      map[string]int `json:"reserved"`
	Missing       map[string]int `json:"missing"`
}

type releaseRequest struct {
	ReservationID string `json:"reservation_id"`
}

// Reserve 发起一次原子预留。网络/探活失败原样上抛，由调用方决定补救。
func (a *InventoryHTTPAdapter) Reserve(ctx context.Context, reservationID string, parts map[string]int) (*port.ReservationResult, error) {
	req := reserveRequest{ReservationID: reservationID, Parts: parts}
	var resp reserveResponse
	if err := a.client.CallJSON(ctx, http.MethodPost, constants.InventoryService, "/reserve", req, &resp); err != nil {
		return nil, err
	}
	return &port.ReservationResult{
		Success:  resp.Success,
		Reserved: resp.Reserved,
		Missing:  resp.Missing,
	}, nil
}

// Release 释放一个预留。库存端对未知 ID 幂等，这里不需要区分。
func (a *InventoryHTTPAdapter) Release(ctx context.Context, reservationID string) error {
	req := releaseRequest{ReservationID: reservationID}
	return a.client.CallJSON(ctx, http.MethodPost, constants.InventoryService, "/release", req, nil)
}
