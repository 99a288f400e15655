package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
)

// SimulationQuery 负责模拟快照的读路径。
type SimulationQuery struct {
	repo domain.SnapshotRepository
}

// NewSimulationQuery 创建查询服务
func NewSimulationQuery(repo domain.SnapshotRepository) *SimulationQuery {
	return &SimulationQuery{repo: repo}
}

// GetSnapshot 按运行 ID 查询快照，未找到时返回 (nil, nil)
func (q *SimulationQuery) GetSnapshot(ctx context.Context, runID string) (*domain.SimulationSnapshot, error) {
	return q.repo.GetByRunID(ctx, runID)
}

// ListSnapshots 返回指定决策的全部快照，按创建时间降序
func (q *SimulationQuery) ListSnapshots(ctx context.Context, decisionID string) ([]*domain.SimulationSnapshot, error) {
	return q.repo.ListByDecision(ctx, decisionID)
}

// CompareSnapshots 对比两次运行：对共有选项逐指标求差（target - base），
// 仅出现在一侧的选项单独列出。
func (q *SimulationQuery) CompareSnapshots(ctx context.Context, baseRunID, targetRunID string) (*SnapshotComparison, error) {
	base, err := q.repo.GetByRunID(ctx, baseRunID)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, fmt.Errorf("base snapshot %s not found", baseRunID)
	}
	target, err := q.repo.GetByRunID(ctx, targetRunID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("target snapshot %s not found", targetRunID)
	}

	baseByOption := make(map[string]domain.SimulationResult, len(base.Results))
	for _, r := range base.Results {
		baseByOption[r.OptionID] = r
	}

	cmp := &SnapshotComparison{BaseRunID: baseRunID, TargetRunID: targetRunID}
	seen := make(map[string]bool, len(target.Results))
	for _, tr := range target.Results {
		seen[tr.OptionID] = true
		br, ok := baseByOption[tr.OptionID]
		if !ok {
			cmp.OnlyInTarget = append(cmp.OnlyInTarget, tr.OptionID)
			continue
		}
		cmp.Deltas = append(cmp.Deltas, OptionMetricDelta{
			OptionID:             tr.OptionID,
			OptionLabel:          tr.OptionLabel,
			EVDelta:              tr.EV.Sub(br.EV),
			VaR95Delta:           tr.VaR95.Sub(br.VaR95),
			CVaR95Delta:          tr.CVaR95.Sub(br.CVaR95),
			EconomicCapitalDelta: tr.EconomicCapital.Sub(br.EconomicCapital),
			RAROCDelta:           tr.RAROC.Sub(br.RAROC),
		})
	}
	for _, br := range base.Results {
		if !seen[br.OptionID] {
			cmp.OnlyInBase = append(cmp.OnlyInBase, br.OptionID)
		}
	}
	return cmp, nil
}
