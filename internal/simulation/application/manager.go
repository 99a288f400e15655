// Package application 模拟服务的应用层，编排领域引擎、快照仓储与事件发布。
package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
	"github.com/wyfcoding/decisionsim/pkg/logger"
	"github.com/wyfcoding/decisionsim/pkg/metrics"
)

// SimulationManager 负责模拟运行的写路径：执行、去重、持久化、事件发布。
type SimulationManager struct {
	engine    *domain.Engine
	repo      domain.SnapshotRepository
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
}

// NewSimulationManager 创建模拟管理器
func NewSimulationManager(engine *domain.Engine, repo domain.SnapshotRepository, publisher domain.EventPublisher, m *metrics.Metrics) *SimulationManager {
	return &SimulationManager{engine: engine, repo: repo, publisher: publisher, metrics: m}
}

// RunSimulation 执行一次模拟。相同决策下指纹一致的输入直接复用既有快照，
// 不重新计算；否则执行引擎并持久化新快照。
func (m *SimulationManager) RunSimulation(ctx context.Context, in domain.SimulationInput) (*SimulationResponse, error) {
	fingerprint := domain.Fingerprint(in.Seed, in.Runs, in.Options, in.ScenarioVars)

	existing, err := m.repo.GetByFingerprint(ctx, in.DecisionID, fingerprint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info(ctx, "Identical inputs detected, reusing snapshot",
			"decision_id", in.DecisionID,
			"run_id", existing.RunID,
			"fingerprint", fingerprint,
		)
		m.metrics.SimulationReuseTotal.Inc()
		m.publishEvent(ctx, domain.SimulationReusedEventType, existing.RunID, domain.SimulationReusedEvent{
			RunID:       existing.RunID,
			DecisionID:  existing.DecisionID,
			Fingerprint: fingerprint,
			Timestamp:   time.Now(),
		})
		return &SimulationResponse{
			RunID:       existing.RunID,
			DecisionID:  existing.DecisionID,
			Fingerprint: fingerprint,
			Reused:      true,
			Results:     existing.Results,
		}, nil
	}

	start := time.Now()
	results, err := m.engine.Run(ctx, in)
	if err != nil {
		m.metrics.SimulationErrorsTotal.Inc()
		return nil, err
	}
	m.metrics.SimulationsTotal.Inc()
	m.metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	m.metrics.SimulationRuns.Observe(float64(in.Runs))

	snapshot := &domain.SimulationSnapshot{
		RunID:       uuid.New().String(),
		DecisionID:  in.DecisionID,
		Fingerprint: fingerprint,
		Seed:        in.Seed,
		Runs:        in.Runs,
		Results:     results,
		CreatedAt:   time.Now(),
	}
	if err := m.repo.Save(ctx, snapshot); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Simulation completed",
		"decision_id", in.DecisionID,
		"run_id", snapshot.RunID,
		"runs", in.Runs,
		"options", len(in.Options),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	m.publishEvent(ctx, domain.SimulationCompletedEventType, snapshot.RunID, domain.SimulationCompletedEvent{
		RunID:       snapshot.RunID,
		DecisionID:  snapshot.DecisionID,
		Fingerprint: fingerprint,
		Runs:        snapshot.Runs,
		Seed:        snapshot.Seed,
		OptionCount: len(results),
		Timestamp:   time.Now(),
	})

	return &SimulationResponse{
		RunID:       snapshot.RunID,
		DecisionID:  snapshot.DecisionID,
		Fingerprint: fingerprint,
		Reused:      false,
		Results:     results,
	}, nil
}

// RunSensitivity 执行龙卷风敏感性分析
func (m *SimulationManager) RunSensitivity(ctx context.Context, in domain.SensitivityInput) ([]domain.SensitivityRow, error) {
	rows, err := m.engine.RunSensitivity(ctx, in)
	if err != nil {
		m.metrics.SimulationErrorsTotal.Inc()
		return nil, err
	}
	m.metrics.SensitivityTotal.Inc()
	logger.Info(ctx, "Sensitivity analysis completed",
		"decision_id", in.Base.DecisionID,
		"parameters", len(rows),
		"metric", in.Metric,
	)
	return rows, nil
}

// publishEvent 事件发布失败不影响主流程，只记录告警
func (m *SimulationManager) publishEvent(ctx context.Context, eventType, key string, payload any) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, eventType, key, payload); err != nil {
		logger.Warn(ctx, "Failed to publish simulation event",
			"event_type", eventType,
			"key", key,
			"error", err,
		)
	}
}
