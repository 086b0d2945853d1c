// internal/service/orders/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/orders/domain"
)

// MemoryOrderRepository 是 OrderRepository 的进程内实现，用于测试和本地运行。
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *MemoryOrderRepository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	copied.Items = append([]domain.OrderItem(nil), order.Items...)
	copied.History = append([]domain.HistoryEntry(nil), order.History...)
	if order.MissingItems != nil {
		copied.MissingItems = make(map[string]int, len(order.MissingItems))
		for k, v := range order.MissingItems {
			copied.MissingItems[k] = v
		}
	}
	r.orders[order.ID] = &copied
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindNotFound, "order %s not found", id)
	}
	copied := *order
	return &copied, nil
}

func (r *MemoryOrderRepository) List(_ context.Context, filter domain.ListFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Order
	for _, order := range r.orders {
		if order.Matches(filter.UserID, filter.Status) {
			copied := *order
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
