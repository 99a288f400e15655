// Package memory 提供快照仓储的内存实现，用于测试与无数据库的本地运行。
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
)

// SnapshotRepository 基于 map 的快照仓储
type SnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.SimulationSnapshot
}

// NewSnapshotRepository 创建内存快照仓储
func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{
		snapshots: make(map[string]*domain.SimulationSnapshot),
	}
}

// Save 保存快照，RunID 相同时覆盖
func (r *SnapshotRepository) Save(_ context.Context, snapshot *domain.SimulationSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *snapshot
	r.snapshots[snapshot.RunID] = &cp
	return nil
}

// GetByRunID 按运行 ID 查询，未找到时返回 (nil, nil)
func (r *SnapshotRepository) GetByRunID(_ context.Context, runID string) (*domain.SimulationSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.snapshots[runID]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

// GetByFingerprint 返回该决策下同一指纹的最近一次快照，未找到时返回 (nil, nil)
func (r *SnapshotRepository) GetByFingerprint(_ context.Context, decisionID, fingerprint string) (*domain.SimulationSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.SimulationSnapshot
	for _, snap := range r.snapshots {
		if snap.DecisionID != decisionID || snap.Fingerprint != fingerprint {
			continue
		}
		if latest == nil || snap.CreatedAt.After(latest.CreatedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// ListByDecision 返回该决策的全部快照，按创建时间降序
func (r *SnapshotRepository) ListByDecision(_ context.Context, decisionID string) ([]*domain.SimulationSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.SimulationSnapshot
	for _, snap := range r.snapshots {
		if snap.DecisionID != decisionID {
			continue
		}
		cp := *snap
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
