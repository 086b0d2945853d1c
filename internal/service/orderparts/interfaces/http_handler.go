// internal/service/orderparts/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/orderparts/application"
	"fixflow/internal/service/orderparts/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// BacklogHandler 暴露缺件积压的 HTTP 边界。
type BacklogHandler struct {
	service *application.BacklogService
}

// NewBacklogHandler 创建 HTTP 处理器。
func NewBacklogHandler(service *application.BacklogService) *BacklogHandler {
	return &BacklogHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *BacklogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /order", h.report)
	mux.HandleFunc("GET /order-parts", h.list)
	mux.HandleFunc("POST /flush", h.flush)
}

type reportPart struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type reportRequest struct {
	Parts []reportPart `json:"parts"`
}

func (h *BacklogHandler) report(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, err, "malformed request body"))
		return
	}

	report := make(domain.ShortageReport, len(req.Parts))
	for _, p := range req.Parts {
		report[p.ID] += p.Quantity
	}
	if err := h.service.Report(ctx, report); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "backlog updated"})
}

func (h *BacklogHandler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(extract(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *BacklogHandler) flush(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Flush(extract(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if order == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "backlog empty"})
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
