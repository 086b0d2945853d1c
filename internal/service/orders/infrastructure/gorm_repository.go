// internal/service/orders/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/orders/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例，并确保表结构就绪。
func NewGormOrderRepository(db *gorm.DB) (*GormOrderRepository, error) {
	if err := db.AutoMigrate(&OrderModel{}); err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "migrate orders table")
	}
	return &GormOrderRepository{db: db}, nil
}

// Save 保存订单聚合，存在即整行覆盖（历史是只追加的，覆盖是安全的）。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model, err := FromDomainOrder(order)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return apperrors.Wrap(apperrors.KindDependency, err, "save order")
	}
	return nil
}

// FindByID 按 ID 查找订单。
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "order %s not found", id)
		}
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "find order")
	}
	return ToDomainOrder(&model)
}

// List 按过滤条件列出订单，过滤条件在 SQL 层做 AND 组合。
func (r *GormOrderRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, error) {
	query := r.db.WithContext(ctx).Model(&OrderModel{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var models []OrderModel
	if err := query.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.KindDependency, err, "list orders")
	}

	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		order, err := ToDomainOrder(&models[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}
