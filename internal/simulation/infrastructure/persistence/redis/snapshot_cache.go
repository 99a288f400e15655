// Package redis 提供快照仓储的读穿缓存装饰器。
package redis

import (
	"context"
	"time"

	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
	"github.com/wyfcoding/decisionsim/pkg/cache"
	"github.com/wyfcoding/decisionsim/pkg/logger"
	"github.com/wyfcoding/decisionsim/pkg/metrics"
)

const snapshotKeyPrefix = "decisionsim:snapshot:"

// CachedSnapshotRepository 在底层仓储之上按 RunID 做读穿缓存。
// 快照写入后不可变，缓存只需 TTL 过期，无需失效逻辑。
type CachedSnapshotRepository struct {
	inner   domain.SnapshotRepository
	cache   *cache.RedisCache
	metrics *metrics.Metrics
	ttl     time.Duration
}

// NewCachedSnapshotRepository 创建缓存装饰器
func NewCachedSnapshotRepository(inner domain.SnapshotRepository, c *cache.RedisCache, m *metrics.Metrics, ttl time.Duration) *CachedSnapshotRepository {
	return &CachedSnapshotRepository{inner: inner, cache: c, metrics: m, ttl: ttl}
}

// Save 写入底层仓储并预热缓存
func (r *CachedSnapshotRepository) Save(ctx context.Context, snapshot *domain.SimulationSnapshot) error {
	if err := r.inner.Save(ctx, snapshot); err != nil {
		return err
	}
	if err := r.cache.SetJSON(ctx, snapshotKeyPrefix+snapshot.RunID, snapshot, r.ttl); err != nil {
		// 缓存失败不影响主流程，下次读取落库即可
		logger.Warn(ctx, "Failed to cache snapshot", "run_id", snapshot.RunID, "error", err)
	}
	return nil
}

// GetByRunID 优先读缓存，未命中时落库并回填
func (r *CachedSnapshotRepository) GetByRunID(ctx context.Context, runID string) (*domain.SimulationSnapshot, error) {
	var cached domain.SimulationSnapshot
	hit, err := r.cache.GetJSON(ctx, snapshotKeyPrefix+runID, &cached)
	if err != nil {
		logger.Warn(ctx, "Snapshot cache read failed, falling back to repository", "run_id", runID, "error", err)
	} else if hit {
		r.metrics.SnapshotCacheHits.Inc()
		return &cached, nil
	}

	r.metrics.SnapshotCacheMisses.Inc()
	snap, err := r.inner.GetByRunID(ctx, runID)
	if err != nil || snap == nil {
		return snap, err
	}
	if err := r.cache.SetJSON(ctx, snapshotKeyPrefix+runID, snap, r.ttl); err != nil {
		logger.Warn(ctx, "Failed to backfill snapshot cache", "run_id", runID, "error", err)
	}
	return snap, nil
}

// GetByFingerprint 指纹查询直接落库，命中率低且结果随时间变化
func (r *CachedSnapshotRepository) GetByFingerprint(ctx context.Context, decisionID, fingerprint string) (*domain.SimulationSnapshot, error) {
	return r.inner.GetByFingerprint(ctx, decisionID, fingerprint)
}

// ListByDecision 列表查询直接落库
func (r *CachedSnapshotRepository) ListByDecision(ctx context.Context, decisionID string) ([]*domain.SimulationSnapshot, error) {
	return r.inner.ListByDecision(ctx, decisionID)
}
