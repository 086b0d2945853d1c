// internal/service/orders/application/service.go
package application

import (
	"context"

	"fixflow/internal/pkg/logger"
	"fixflow/internal/service/orders/domain"
	"fixflow/internal/service/orders/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrderService 是订单生命周期的应用服务：持有权威记录，驱动预留调用，
// 把预留结果解释成状态流转。
type OrderService struct {
	repo         domain.OrderRepository
	reservations port.ReservationService
	notifier     port.StatusNotifier
	reviewRules  port.ReviewRules
	tracer       trace.Tracer
}

// NewOrderService 创建订单应用服务。notifier 与 reviewRules 可为 nil（测试/裁剪部署）。
func NewOrderService(repo domain.OrderRepository, reservations port.ReservationService,
	notifier port.StatusNotifier, reviewRules port.ReviewRules, tracer trace.Tracer) *OrderService {
	return &OrderService{
		repo:         repo,
		reservations: reservations,
		notifier:     notifier,
		reviewRules:  reviewRules,
		tracer:       tracer,
	}
}

// Create 创建订单并立即尝试预留全部行项目。
// 预留结果决定流转：全量满足 → PROCESSING；有缺口 → WAITING_PARTS 并记录
// 缺口快照；预留引擎不可用 → 停留在 PENDING，失败写进历史，订单保留下来
// 供人工跟进，调用本身不报错。
func (s *OrderService) Create(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "orders.Create")
	defer span.End()

	order, err := domain.NewOrder(req.UserID, req.Items, req.ShippingAddress)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("user.id", order.UserID),
		attribute.Float64("order.total_price", order.TotalPrice),
	)

	if err := s.repo.Save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save initial order")
		return nil, err
	}

	s.applyReviewRules(ctx, order)

	parts := make(map[string]int, len(order.Items))
	for _, item := range order.Items {
		parts[item.ItemID] += item.Quantity
	}

	result, err := s.reservations.Reserve(ctx, order.ID, parts)
	switch {
	case err != nil:
		// 预留引擎不可用不是致命错误：订单保持 PENDING，原因进历史
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).
			Msg("Reservation engine unavailable, order stays PENDING")
		order.NoteReservationFailure(err.Error())
	case result.Success:
		order.MarkProcessing()
	default:
		order.MarkWaitingParts(result.Missing)
	}

	if err := s.repo.Save(ctx, order); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.notify(ctx, order)
	logger.Ctx(ctx).Info().Str("order_id", order.ID).Str("status", string(order.Status)).
		Msg("Order created")
	return order, nil
}

// applyReviewRules 顾问性质的复核规则：命中只追加历史，评估失败只记日志。
func (s *OrderService) applyReviewRules(ctx context.Context, order *domain.Order) {
	if s.reviewRules == nil {
		return
	}
	fact := map[string]interface{}{
		"user_id":     order.UserID,
		"total_price": order.TotalPrice,
		"item_count":  len(order.Items),
	}
	flagged, err := s.reviewRules.RequiresReview(ctx, fact)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("Review rule evaluation failed, skipping")
		return
	}
	if flagged {
		order.NoteReviewFlag()
	}
}

// Cancel 取消订单。已发货/已送达拒绝；成功取消后尽力而为地释放预留，
// 释放失败只记日志——只要允许取消，取消就一定成功。
func (s *OrderService) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "orders.Cancel")
	defer span.End()

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	if err := s.reservations.Release(ctx, order.ID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).
			Msg("Failed to release reservation on cancel, continuing")
	}

	s.notify(ctx, order)
	return order, nil
}

// SetStatus 设置订单状态，未知状态值拒绝，历史必有记录。
func (s *OrderService) SetStatus(ctx context.Context, orderID string, req *SetStatusRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "orders.SetStatus")
	defer span.End()

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.SetStatus(domain.Status(req.Status), req.Note); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.notify(ctx, order)
	return order, nil
}

// Get 按 ID 查询订单。
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

// List 按过滤条件列出订单。
func (s *OrderService) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, error) {
	return s.repo.List(ctx, filter)
}

func (s *OrderService) notify(ctx context.Context, order *domain.Order) {
	if s.notifier == nil {
		return
	}
	note := ""
	if len(order.History) > 0 {
		note = order.History[len(order.History)-1].Note
	}
	err := s.notifier.NotifyStatusChange(ctx, port.StatusNotification{
		UserID:   order.UserID,
		EntityID: order.ID,
		Kind:     "order",
		Status:   string(order.Status),
		Note:     note,
	})
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).
			Msg("Failed to publish status notification, continuing")
	}
}
