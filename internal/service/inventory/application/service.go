// internal/service/inventory/application/service.go
package application

import (
	"context"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/pkg/logger"
	"fixflow/internal/service/inventory/domain"
	"fixflow/internal/service/inventory/domain/port"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_reservations_total",
		Help: "Reservation requests processed, by completeness.",
	}, []string{"result"})
	shortageEscalationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_shortage_escalations_total",
		Help: "Shortage escalations to the backlog consumer, by outcome.",
	}, []string{"outcome"})
	releasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_releases_total",
		Help: "Reservation releases processed.",
	})
)

// ReservationEngine 是库存预留的应用服务。所有跨进程共享的库存变更都
// 必须经过这里，绝不允许调用方自己做"先读后写"。
type ReservationEngine struct {
	store   port.InventoryStore
	backlog port.BacklogNotifier
	tracer  trace.Tracer
}

// NewReservationEngine 创建预留引擎。
func NewReservationEngine(store port.InventoryStore, backlog port.BacklogNotifier, tracer trace.Tracer) *ReservationEngine {
	return &ReservationEngine{store: store, backlog: backlog, tracer: tracer}
}

// CheckAndReserve 对每个零件原子地扣减可满足的数量，返回已预留/缺口两个映射。
// 缺口非空时向积压方做一次尽力而为的上报；上报失败不影响本次调用的结果。
func (e *ReservationEngine) CheckAndReserve(ctx context.Context, reservationID string, requested domain.ReservationRequest) (*domain.ReservationOutcome, error) {
	ctx, span := e.tracer.Start(ctx, "inventory.CheckAndReserve")
	defer span.End()

	if reservationID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "reservation id must not be empty")
	}
	if err := requested.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("reservation.id", reservationID),
		attribute.Int("reservation.parts", len(requested)),
	)

	outcome := domain.NewReservationOutcome()
	for _, partID := range requested.SortedIDs() {
		qty := requested[partID]
		reserved, err := e.store.Reserve(ctx, reservationID, partID, qty)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "store reserve failed")
			return nil, err
		}
		outcome.Record(partID, qty, reserved)
	}

	if outcome.Complete() {
		reservationsTotal.WithLabelValues("full").Inc()
	} else {
		reservationsTotal.WithLabelValues("partial").Inc()
		e.escalateShortage(ctx, reservationID, outcome.Missing)
	}

	logger.Ctx(ctx).Info().
		Str("reservation_id", reservationID).
		Int("reserved", len(outcome.Reserved)).
		Int("missing", len(outcome.Missing)).
		Msg("Reservation processed")
	return outcome, nil
}

// escalateShortage 把缺口上报给积压方。失败只记日志——上报是顾问性质的。
func (e *ReservationEngine) escalateShortage(ctx context.Context, reservationID string, missing map[string]int) {
	if err := e.backlog.NotifyShortage(ctx, missing); err != nil {
		shortageEscalationsTotal.WithLabelValues("failed").Inc()
		logger.Ctx(ctx).Warn().Err(err).
			Str("reservation_id", reservationID).
			Msg("Failed to escalate shortage to backlog, continuing")
		return
	}
	shortageEscalationsTotal.WithLabelValues("ok").Inc()
}

// Release 把一次预留扣减的数量全部加回库存。对已释放或从不存在的 ID
// 是空操作而不是错误——取消路径必须能安全地重复调用。
func (e *ReservationEngine) Release(ctx context.Context, reservationID string) error {
	ctx, span := e.tracer.Start(ctx, "inventory.Release")
	defer span.End()

	if reservationID == "" {
		return apperrors.New(apperrors.KindValidation, "reservation id must not be empty")
	}

	restored, err := e.store.Release(ctx, reservationID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	releasesTotal.Inc()

	logger.Ctx(ctx).Info().
		Str("reservation_id", reservationID).
		Int("parts_restored", len(restored)).
		Msg("Reservation released")
	return nil
}

// Ingest 合并入库一批零件记录，已存在的零件累加数量。
func (e *ReservationEngine) Ingest(ctx context.Context, parts []domain.PartRecord) error {
	ctx, span := e.tracer.Start(ctx, "inventory.Ingest")
	defer span.End()

	if len(parts) == 0 {
		return apperrors.New(apperrors.KindValidation, "ingest request must contain at least one part")
	}
	for _, p := range parts {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	for _, p := range parts {
		if err := e.store.UpsertPart(ctx, p); err != nil {
			span.RecordError(err)
			return err
		}
	}

	logger.Ctx(ctx).Info().Int("parts", len(parts)).Msg("Inventory ingested")
	return nil
}

// GetPart 查询单个零件。
func (e *ReservationEngine) GetPart(ctx context.Context, partID string) (*domain.PartRecord, error) {
	if partID == "" {
		return nil, apperrors.New(apperrors.KindValidation, "part id must not be empty")
	}
	return e.store.GetPart(ctx, partID)
}

// ListParts 列出全部零件。
func (e *ReservationEngine) ListParts(ctx context.Context) ([]domain.PartRecord, error) {
	return e.store.ListParts(ctx)
}
