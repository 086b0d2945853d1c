// internal/service/orderparts/application/service.go
package application

import (
	"context"
	"time"

	"fixflow/internal/pkg/logger"
	"fixflow/internal/service/orderparts/domain"
	"fixflow/internal/service/orderparts/domain/port"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	reportCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backlog_shortage_reports_total",
		Help: "Number of shortage reports accepted into the backlog.",
	})
	flushCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlog_flushes_total",
		Help: "Number of backlog flush attempts by outcome.",
	}, []string{"outcome"})
)

// BacklogService 管理缺件积压：累加上报、暴露快照、独占地下采购单。
type BacklogService struct {
	store       port.BacklogStore
	procurement port.ProcurementPublisher
	flushLock   port.FlushLock
	tracer      trace.Tracer
}

// NewBacklogService 创建积压应用服务。procurement 与 flushLock 可为 nil
// （测试/裁剪部署，此时 Flush 只清空不下单、不做跨实例互斥）。
func NewBacklogService(store port.BacklogStore, procurement port.ProcurementPublisher,
	flushLock port.FlushLock, tracer trace.Tracer) *BacklogService {
	return &BacklogService{
		store:       store,
		procurement: procurement,
		flushLock:   flushLock,
		tracer:      tracer,
	}
}

// Report 把一次缺口上报累加进积压。空上报是合法的 no-op。
func (s *BacklogService) Report(ctx context.Context, report domain.ShortageReport) error {
	ctx, span := s.tracer.Start(ctx, "orderparts.Report")
	defer span.End()

	if err := report.Validate(); err != nil {
		span.RecordError(err)
		return err
	}
	if len(report) == 0 {
		return nil
	}

	if err := s.store.Add(ctx, report); err != nil {
		span.RecordError(err)
		return err
	}

	reportCounter.Inc()
	span.SetAttributes(attribute.Int("backlog.report_size", len(report)))
	logger.Ctx(ctx).Info().Int("parts", len(report)).Msg("Shortage report recorded")
	return nil
}

// List 返回当前积压的排序清单。
func (s *BacklogService) List(ctx context.Context) ([]domain.BacklogEntry, error) {
	backlog, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.EntriesFromMap(backlog), nil
}

// Flush 取空积压并下一张采购单。多实例部署时经分布式锁互斥，
// 保证同一批积压只会被下单一次。空积压直接返回 nil 订单。
func (s *BacklogService) Flush(ctx context.Context) (*domain.ProcurementOrder, error) {
	ctx, span := s.tracer.Start(ctx, "orderparts.Flush")
	defer span.End()

	if s.flushLock != nil {
		if err := s.flushLock.Lock(); err != nil {
			flushCounter.WithLabelValues("lock_failed").Inc()
			span.RecordError(err)
			return nil, err
		}
		defer func() {
			if err := s.flushLock.Unlock(); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("Failed to release flush lock")
			}
		}()
	}

	backlog, err := s.store.Drain(ctx)
	if err != nil {
		flushCounter.WithLabelValues("store_failed").Inc()
		span.RecordError(err)
		return nil, err
	}
	if len(backlog) == 0 {
		flushCounter.WithLabelValues("empty").Inc()
		return nil, nil
	}

	order := &domain.ProcurementOrder{
		ID:        uuid.New().String(),
		Parts:     domain.EntriesFromMap(backlog),
		CreatedAt: time.Now(),
	}
	if s.procurement != nil {
		if err := s.procurement.Publish(ctx, order); err != nil {
			// 下单失败把积压放回去，下一次 flush 重试
			if addErr := s.store.Add(ctx, backlog); addErr != nil {
				logger.Ctx(ctx).Error().Err(addErr).Msg("Failed to restore backlog after publish failure")
			}
			flushCounter.WithLabelValues("publish_failed").Inc()
			span.RecordError(err)
			return nil, err
		}
	}

	flushCounter.WithLabelValues("ok").Inc()
	logger.Ctx(ctx).Info().Str("procurement_id", order.ID).Int("parts", len(order.Parts)).
		Msg("✅ Backlog flushed into procurement order")
	return order, nil
}
