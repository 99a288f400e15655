package application

import (
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
)

// SimulationResponse 模拟运行的应用层返回
type SimulationResponse struct {
	RunID       string                    `json:"run_id"`
	DecisionID  string                    `json:"decision_id"`
	Fingerprint string                    `json:"fingerprint"`
	// Reused 表示本次请求命中了既有快照，结果未重新计算
	Reused  bool                      `json:"reused"`
	Results []domain.SimulationResult `json:"results"`
}

// OptionMetricDelta 同一选项在两次运行之间的指标变化（target - base）
type OptionMetricDelta struct {
	OptionID             string          `json:"option_id"`
	OptionLabel          string          `json:"option_label"`
	EVDelta              decimal.Decimal `json:"ev_delta"`
	VaR95Delta           decimal.Decimal `json:"var95_delta"`
	CVaR95Delta          decimal.Decimal `json:"cvar95_delta"`
	EconomicCapitalDelta decimal.Decimal `json:"economic_capital_delta"`
	RAROCDelta           decimal.Decimal `json:"raroc_delta"`
}

// SnapshotComparison 两次运行快照的对比结果
type SnapshotComparison struct {
	BaseRunID   string `json:"base_run_id"`
	TargetRunID string `json:"target_run_id"`
	// Deltas 两次运行共有选项的指标差值
	Deltas []OptionMetricDelta `json:"deltas"`
	// OnlyInBase / OnlyInTarget 仅出现在一侧的选项 ID
	OnlyInBase   []string `json:"only_in_base,omitempty"`
	OnlyInTarget []string `json:"only_in_target,omitempty"`
}
