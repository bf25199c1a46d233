package storage

import (
	"context"
	"sync"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/model"
)

// MemoryRepository 进程内存储，用于测试和临时运行
type MemoryRepository struct {
	mu      sync.RWMutex
	reports model.History
}

// NewMemory 创建内存存储
func NewMemory() *MemoryRepository {
	return &MemoryRepository{}
}

var _ Repository = (*MemoryRepository)(nil)

func (m *MemoryRepository) Prepend(ctx context.Context, reports ...model.AnalysisReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.reports.IDs()
	for _, r := range reports {
		if _, ok := ids[r.ID]; ok {
			return ErrDuplicateID
		}
		ids[r.ID] = struct{}{}
	}

	next := make(model.History, 0, len(reports)+len(m.reports))
	next = append(next, reports...)
	next = append(next, m.reports...)
	m.reports = next
	return nil
}

func (m *MemoryRepository) List(ctx context.Context) (model.History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(model.History, len(m.reports))
	copy(out, m.reports)
	return out, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.reports {
		if r.ID == id {
			m.reports = append(m.reports[:i:i], m.reports[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepository) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.reports = nil
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) Close() error { return nil }
