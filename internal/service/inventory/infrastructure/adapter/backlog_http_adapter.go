// internal/service/inventory/infrastructure/adapter/backlog_http_adapter.go
package adapter

import (
	"context"
	"net/http"

	"fixflow/internal/pkg/constants"
	"fixflow/internal/pkg/httpclient"
)

// BacklogHTTPAdapter 实现 port.BacklogNotifier：把缺口经服务发现上报给
// order-parts 后端。
type BacklogHTTPAdapter struct {
	client *httpclient.Client
}

// NewBacklogHTTPAdapter 创建积压上报适配器。
func NewBacklogHTTPAdapter(client *httpclient.Client) *BacklogHTTPAdapter {
	return &BacklogHTTPAdapter{client: client}
}

type backlogPart struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type backlogRequest struct {
	Parts []backlogPart `json:"parts"`
}

// NotifyShortage 上报一次缺口。调用方决定失败是否致命（预留路径上不致命）。
func (a *BacklogHTTPAdapter) NotifyShortage(ctx context.Context, missing map[string]int) error {
	req := backlogRequest{Parts: make([]backlogPart, 0, len(missing))}
	for id, qty := range missing {
		req.Parts = append(req.Parts, backlogPart{ID: id, Quantity: qty})
	}
	return a.client.CallJSON(ctx, http.MethodPost, constants.OrderPartsService, "/order", req, nil)
}
