// Package memory 护栏仓储的内存实现。
package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/decisionsim/internal/guardrail/domain"
)

// Repository 基于 map 的护栏仓储
type Repository struct {
	mu         sync.RWMutex
	guardrails map[string]*domain.Guardrail
	outcomes   map[string][]domain.OutcomeRecord
}

// NewRepository 创建内存护栏仓储
func NewRepository() *Repository {
	return &Repository{
		guardrails: make(map[string]*domain.Guardrail),
		outcomes:   make(map[string][]domain.OutcomeRecord),
	}
}

// SaveGuardrail 保存护栏，ID 相同时覆盖
func (r *Repository) SaveGuardrail(_ context.Context, g *domain.Guardrail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	r.guardrails[g.ID] = &cp
	return nil
}

// GetGuardrail 查询护栏，未找到时返回 (nil, nil)
func (r *Repository) GetGuardrail(_ context.Context, id string) (*domain.Guardrail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.guardrails[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

// AppendOutcome 追加观测记录
func (r *Repository) AppendOutcome(_ context.Context, record *domain.OutcomeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[record.GuardrailID] = append(r.outcomes[record.GuardrailID], *record)
	return nil
}

// ListOutcomes 返回最近 limit 条观测，limit <= 0 表示全部
func (r *Repository) ListOutcomes(_ context.Context, guardrailID string, limit int) ([]domain.OutcomeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.outcomes[guardrailID]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}
	out := make([]domain.OutcomeRecord, len(all)-start)
	copy(out, all[start:])
	return out, nil
}
