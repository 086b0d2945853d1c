// internal/service/repairs/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/repairs/application"
	"fixflow/internal/service/repairs/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// RepairHandler 暴露维修生命周期的 HTTP 边界。
type RepairHandler struct {
	service *application.RepairService
}

// NewRepairHandler 创建 HTTP 处理器。
func NewRepairHandler(service *application.RepairService) *RepairHandler {
	return &RepairHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *RepairHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /repairs", h.create)
	mux.HandleFunc("GET /repairs", h.list)
	mux.HandleFunc("GET /repairs/{id}", h.get)
	mux.HandleFunc("POST /repairs/{id}/diagnose", h.diagnose)
	mux.HandleFunc("POST /repairs/{id}/complete", h.complete)
	mux.HandleFunc("POST /repairs/{id}/cancel", h.cancel)
}

func (h *RepairHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req application.CreateRepairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, err, "malformed request body"))
		return
	}

	repair, err := h.service.Create(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, repair)
}

func (h *RepairHandler) diagnose(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req application.DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, err, "malformed request body"))
		return
	}

	repair, err := h.service.Diagnose(ctx, r.PathValue("id"), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repair)
}

func (h *RepairHandler) complete(w http.ResponseWriter, r *http.Request) {
	repair, err := h.service.Complete(extract(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repair)
}

func (h *RepairHandler) cancel(w http.ResponseWriter, r *http.Request) {
	repair, err := h.service.Cancel(extract(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repair)
}

func (h *RepairHandler) get(w http.ResponseWriter, r *http.Request) {
	repair, err := h.service.Get(extract(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repair)
}

func (h *RepairHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: domain.Status(r.URL.Query().Get("status")),
	}
	repairs, err := h.service.List(extract(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repairs)
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
