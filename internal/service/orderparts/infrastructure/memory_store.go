// internal/service/orderparts/infrastructure/memory_store.go
package infrastructure

import (
	"context"
	"sync"
)

// MemoryBacklogStore 是积压存储的进程内实现，用于测试和本地运行。
type MemoryBacklogStore struct {
	mu      sync.Mutex
	backlog map[string]int
}

func NewMemoryBacklogStore() *MemoryBacklogStore {
	return &MemoryBacklogStore{backlog: make(map[string]int)}
}

func (s *MemoryBacklogStore) Add(_ context.Context, parts map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, qty := range parts {
		s.backlog[id] += qty
	}
	return nil
}

func (s *MemoryBacklogStore) List(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]int, len(s.backlog))
	for id, qty := range s.backlog {
		snapshot[id] = qty
	}
	return snapshot, nil
}

func (s *MemoryBacklogStore) Drain(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drained := s.backlog
	s.backlog = make(map[string]int)
	return drained, nil
}
