// internal/service/repairs/application/service.go
package application

import (
	"context"

	"fixflow/internal/pkg/logger"
	"fixflow/internal/service/repairs/domain"
	"fixflow/internal/service/repairs/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RepairService 是维修生命周期的应用服务。诊断是预留的触发点：
// 配件清单落盘后立刻以 repair_<id> 为键向预留引擎要货。
type RepairService struct {
	repo         domain.RepairRepository
	reservations port.ReservationService
	notifier     port.StatusNotifier
	tracer       trace.Tracer
}

// NewRepairService 创建维修应用服务。notifier 可为 nil（测试/裁剪部署）。
func NewRepairService(repo domain.RepairRepository, reservations port.ReservationService,
	notifier port.StatusNotifier, tracer trace.Tracer) *RepairService {
	return &RepairService{
		repo:         repo,
		reservations: reservations,
		notifier:     notifier,
		tracer:       tracer,
	}
}

// Create 登记一张维修单，配件清单为空，等待诊断。
func (s *RepairService) Create(ctx context.Context, req *CreateRepairRequest) (*domain.Repair, error) {
	ctx, span := s.tracer.Start(ctx, "repairs.Create")
	defer span.End()

	repair, err := domain.NewRepair(req.UserID, req.SubjectModel, req.Description)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("repair.id", repair.ID),
		attribute.String("user.id", repair.UserID),
	)

	if err := s.repo.Save(ctx, repair); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.notify(ctx, repair)
	logger.Ctx(ctx).Info().Str("repair_id", repair.ID).Str("subject", repair.SubjectModel).
		Msg("Repair registered")
	return repair, nil
}

// Diagnose 录入诊断并立即尝试预留所需配件。
// 清单为空 → 直接 IN_PROGRESS，不触发预留。全量满足 → IN_PROGRESS；
// 有缺口 → WAITING_PARTS 并记录缺口；预留引擎不可用 → 回退 PENDING，
// 诊断可重试，调用本身不报错。
func (s *RepairService) Diagnose(ctx context.Context, repairID string, req *DiagnoseRequest) (*domain.Repair, error) {
	ctx, span := s.tracer.Start(ctx, "repairs.Diagnose")
	defer span.End()

	repair, err := s.repo.FindByID(ctx, repairID)
	if err != nil {
		return nil, err
	}
	if err := repair.Diagnose(req.Diagnosis, req.RequiredParts); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(repair.RequiredParts) == 0 {
		repair.MarkInProgress("No parts required, repair started")
	} else {
		parts := make(map[string]int, len(repair.RequiredParts))
		for _, p := range repair.RequiredParts {
			parts[p.PartID] = p.Quantity
		}

		result, err := s.reservations.Reserve(ctx, repair.ReservationKey(), parts)
		switch {
		case err != nil:
			span.RecordError(err)
			logger.Ctx(ctx).Warn().Err(err).Str("repair_id", repair.ID).
				Msg("Reservation engine unavailable, repair reverts to PENDING")
			repair.RevertToPending(err.Error())
		case result.Success:
			repair.MarkInProgress("")
		default:
			repair.MarkWaitingParts(result.Missing)
		}
	}

	if err := s.repo.Save(ctx, repair); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.notify(ctx, repair)
	logger.Ctx(ctx).Info().Str("repair_id", repair.ID).Str("status", string(repair.Status)).
		Msg("Diagnosis processed")
	return repair, nil
}

// Complete 人工终结一张维修单，终态拒绝。
func (s *RepairService) Complete(ctx context.Context, repairID string) (*domain.Repair, error) {
	ctx, span := s.tracer.Start(ctx, "repairs.Complete")
	defer span.End()

	repair, err := s.repo.FindByID(ctx, repairID)
	if err != nil {
		return nil, err
	}
	if err := repair.Complete(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.repo.Save(ctx, repair); err != nil {
		return nil, err
	}

	s.notify(ctx, repair)
	return repair, nil
}

// Cancel 取消维修单。成功取消后尽力而为地释放 repair_<id> 预留，
// 释放失败只记日志。
func (s *RepairService) Cancel(ctx context.Context, repairID string) (*domain.Repair, error) {
	ctx, span := s.tracer.Start(ctx, "repairs.Cancel")
	defer span.End()

	repair, err := s.repo.FindByID(ctx, repairID)
	if err != nil {
		return nil, err
	}
	if err := repair.Cancel(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.repo.Save(ctx, repair); err != nil {
		return nil, err
	}

	if err := s.reservations.Release(ctx, repair.ReservationKey()); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("repair_id", repair.ID).
			Msg("Failed to release reservation on cancel, continuing")
	}

	s.notify(ctx, repair)
	return repair, nil
}

// Get 按 ID 查询维修单。
func (s *RepairService) Get(ctx context.Context, repairID string) (*domain.Repair, error) {
	return s.repo.FindByID(ctx, repairID)
}

// List 按过滤条件列出维修单。
func (s *RepairService) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Repair, error) {
	return s.repo.List(ctx, filter)
}

func (s *RepairService) notify(ctx context.Context, repair *domain.Repair) {
	if s.notifier == nil {
		return
	}
	note := ""
	if len(repair.History) > 0 {
		note = repair.History[len(repair.History)-1].Note
	}
	err := s.notifier.NotifyStatusChange(ctx, port.StatusNotification{
		UserID:   repair.UserID,
		EntityID: repair.ID,
		Kind:     "repair",
		Status:   string(repair.Status),
		Note:     note,
	})
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("repair_id", repair.ID).
			Msg("Failed to publish status notification, continuing")
	}
}
