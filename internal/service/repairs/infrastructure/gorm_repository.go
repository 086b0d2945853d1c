// internal/service/repairs/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/repairs/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepairRepository 是 RepairRepository 的 GORM 实现。
type GormRepairRepository struct {
	db *gorm.DB
}

// NewGormRepairRepository 创建一个新的 GORM 仓储实例，并确保表结构就绪。
func NewGormRepairRepository(db *gorm.DB) (*GormRepairRepository, error) {
	if err := db.AutoMigrate(&RepairModel{}); err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "migrate repairs table")
	}
	return &GormRepairRepository{db: db}, nil
}

// Save 保存维修单聚合，存在即整行覆盖。
func (r *GormRepairRepository) Save(ctx context.Context, repair *domain.Repair) error {
	model, err := FromDomainRepair(repair)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return apperrors.Wrap(apperrors.KindDependency, err, "save repair")
	}
	return nil
}

// FindByID 按 ID 查找维修单。
func (r *GormRepairRepository) FindByID(ctx context.Context, id string) (*domain.Repair, error) {
	var model RepairModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "repair %s not found", id)
		}
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "find repair")
	}
	return ToDomainRepair(&model)
}

// List 按过滤条件列出维修单。
func (r *GormRepairRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Repair, error) {
	query := r.db.WithContext(ctx).Model(&RepairModel{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var models []RepairModel
	if err := query.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "list repairs")
	}

	repairs := make([]*domain.Repair, 0, len(models))
	for i := range models {
		repair, err := ToDomainRepair(&models[i])
		if err != nil {
			return nil, err
		}
		repairs = append(repairs, repair)
	}
	return repairs, nil
}
