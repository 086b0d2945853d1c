// internal/service/inventory/infrastructure/memory_store.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/inventory/domain"
)

// MemoryStore 是 port.InventoryStore 的进程内实现，供单测与本地开发使用。
// 单把互斥锁覆盖全部状态：读-扣减对与 Redis 脚本一样不可分割。
type MemoryStore struct {
	mu           sync.Mutex
	parts        map[string]*domain.PartRecord
	reservations map[string]map[string]int
}

// NewMemoryStore 创建内存库存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		parts:        make(map[string]*domain.PartRecord),
		reservations: make(map[string]map[string]int),
	}
}

func (s *MemoryStore) GetPart(ctx context.Context, partID string) (*domain.PartRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.parts[partID]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindNotFound, "part %s not found", partID)
	}
	copied := *rec
	return &copied, nil
}

func (s *MemoryStore) ListParts(ctx context.Context) ([]domain.PartRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.parts))
	for id := range s.parts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]domain.PartRecord, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, *s.parts[id])
	}
	return parts, nil
}

func (s *MemoryStore) UpsertPart(ctx context.Context, rec domain.PartRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.parts[rec.ID]; ok {
		existing.Total += rec.Total
		existing.Available += rec.Total
		existing.Name = rec.Name
		existing.Category = rec.Category
		existing.UnitPrice = rec.UnitPrice
		return nil
	}
	copied := rec
	copied.Available = rec.Total
	s.parts[rec.ID] = &copied
	return nil
}

func (s *MemoryStore) Reserve(ctx context.Context, reservationID, partID string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.parts[partID]
	if !ok {
		return 0, nil // 零件不存在：整单计入缺口
	}

	take := qty
	if rec.Available < qty {
		take = rec.Available
	}
	if take > 0 {
		rec.Available -= take
		if s.reservations[reservationID] == nil {
			s.reservations[reservationID] = make(map[string]int)
		}
		s.reservations[reservationID][partID] += take
	}
	return take, nil
}

func (s *MemoryStore) Release(ctx context.Context, reservationID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.reservations[reservationID]
	if !ok {
		return map[string]int{}, nil
	}

	restored := make(map[string]int, len(held))
	for partID, qty := range held {
		if rec, ok := s.parts[partID]; ok {
			rec.Available += qty
		}
		restored[partID] = qty
	}
	delete(s.reservations, reservationID)
	return restored, nil
}
