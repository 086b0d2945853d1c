// internal/service/repairs/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/repairs/domain"
)

// MemoryRepairRepository 是 RepairRepository 的进程内实现，用于测试和本地运行。
type MemoryRepairRepository struct {
	mu      sync.RWMutex
	repairs map[string]*domain.Repair
}

func NewMemoryRepairRepository() *MemoryRepairRepository {
	return &MemoryRepairRepository{repairs: make(map[string]*domain.Repair)}
}

func (r *MemoryRepairRepository) Save(_ context.Context, repair *domain.Repair) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *repair
	copied.RequiredParts = append([]domain.RequiredPart(nil), repair.RequiredParts...)
	copied.History = append([]domain.HistoryEntry(nil), repair.History...)
	if repair.MissingParts != nil {
		copied.MissingParts = make(map[string]int, len(repair.MissingParts))
		for k, v := range repair.MissingParts {
			copied.MissingParts[k] = v
		}
	}
	r.repairs[repair.ID] = &copied
	return nil
}

func (r *MemoryRepairRepository) FindByID(_ context.Context, id string) (*domain.Repair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	repair, ok := r.repairs[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindNotFound, "repair %s not found", id)
	}
	copied := *repair
	return &copied, nil
}

func (r *MemoryRepairRepository) List(_ context.Context, filter domain.ListFilter) ([]*domain.Repair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Repair
	for _, repair := range r.repairs {
		if repair.Matches(filter.UserID, filter.Status) {
			copied := *repair
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
