// internal/service/inventory/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/inventory/application"
	"fixflow/internal/service/inventory/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// InventoryHandler 暴露预留引擎的 HTTP 边界。
type InventoryHandler struct {
	engine *application.ReservationEngine
}

// NewInventoryHandler 创建 HTTP 处理器。
func NewInventoryHandler(engine *application.ReservationEngine) *InventoryHandler {
	return &InventoryHandler{engine: engine}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /parts", h.listParts)
	mux.HandleFunc("GET /parts/{id}", h.getPart)
	mux.HandleFunc("POST /reserve", h.reserve)
	mux.HandleFunc("POST /release", h.release)
	mux.HandleFunc("POST /ingest", h.ingest)
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

func (h *InventoryHandler) reserve(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, err, "malformed request body"))
		return
	}

	outcome, err := h.engine.CheckAndReserve(ctx, req.ReservationID, domain.ReservationRequest(req.Parts))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reserveResponse{
		ReservationID: req.ReservationID,
		Success:       outcome.Complete(),
		Reserved:      outcome.Reserved,
		Missing:       outcome.Missing,
	})
}

type releaseRequest struct {
	ReservationID string `json:"reservation_id"`
}

func (h *InventoryHandler) release(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, err, "malformed request body"))
		return
	}

	if err := h.engine.Release(ctx, req.ReservationID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type ingestPart struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type ingestRequest struct {
	Parts []ingestPart `json:"parts"`
}

func (h *InventoryHandler) ingest(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindValidation, err, "malformed request body"))
		return
	}

	records := make([]domain.PartRecord, 0, len(req.Parts))
	for _, p := range req.Parts {
		records = append(records, domain.PartRecord{
			ID:        p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Total:     p.Quantity,
			UnitPrice: p.Price,
		})
	}

	if err := h.engine.Ingest(ctx, records); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "inventory updated"})
}

func (h *InventoryHandler) listParts(w http.ResponseWriter, r *http.Request) {
	parts, err := h.engine.ListParts(extract(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parts)
}

func (h *InventoryHandler) getPart(w http.ResponseWriter, r *http.Request) {
	part, err := h.engine.GetPart(extract(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, part)
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
