// internal/service/orders/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/orders/application"
	"fixflow/internal/service/orders/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// OrderHandler 暴露订单生命周期的 HTTP 边界。
type OrderHandler struct {
	service *application.OrderService
}

// NewOrderHandler 创建 HTTP 处理器。
func NewOrderHandler(service *application.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /orders", h.create)
	mux.HandleFunc("GET /orders", h.list)
	mux.HandleFunc("GET /orders/{id}", h.get)
	mux.HandleFunc("POST /orders/{id}/cancel", h.cancel)
	mux.HandleFunc("PUT /orders/{id}/status", h.setStatus)
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, err, "malformed request body"))
		return
	}

	order, err := h.service.Create(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(extract(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: domain.Status(r.URL.Query().Get("status")),
	}
	orders, err := h.service.List(extract(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Cancel(extract(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req application.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, err, "malformed request body"))
		return
	}

	order, err := h.service.SetStatus(ctx, r.PathValue("id"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperrors.HTTPStatus(err), map[string]string{"error": err.Error()})
}
