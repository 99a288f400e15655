// Package domain 护栏阈值的领域模型：记录决策执行后的实际偏差，
// 并根据偏差分布自动校准告警阈值。
package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

var (
	// ErrGuardrailNotFound 护栏不存在
	ErrGuardrailNotFound = errors.New("guardrail not found")
	// ErrInvalidGuardrail 护栏配置非法
	ErrInvalidGuardrail = errors.New("invalid guardrail config")
	// ErrNoOutcomes 没有可用于校准的观测记录
	ErrNoOutcomes = errors.New("no outcome records to adjust from")
)

// 校准默认参数：偏差分位数 95%，EWMA 平滑系数 0.3，至少 5 条观测。
const (
	DefaultQuantile   = 95.0
	DefaultSmoothing  = 0.3
	MinOutcomesNeeded = 5
)

// Guardrail 单条护栏：当实际结果对模拟预期的偏差超过 Threshold 时告警。
type Guardrail struct {
	ID         string  `json:"id"`
	DecisionID string  `json:"decision_id"`
	Name       string  `json:"name"`
	// Threshold 当前绝对偏差告警阈值
	Threshold float64 `json:"threshold"`
	// Quantile 校准使用的偏差分位数（百分比），0 取默认值 95
	Quantile float64 `json:"quantile,omitempty"`
	// Smoothing EWMA 平滑系数 (0, 1]，0 取默认值 0.3
	Smoothing float64 `json:"smoothing,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate 校验护栏配置。
func (g Guardrail) Validate() error {
	if g.ID == "" || g.DecisionID == "" {
		return fmt.Errorf("%w: id and decision_id are required", ErrInvalidGuardrail)
	}
	if g.Threshold < 0 {
		return fmt.Errorf("%w: threshold must be >= 0", ErrInvalidGuardrail)
	}
	if g.Quantile < 0 || g.Quantile > 100 {
		return fmt.Errorf("%w: quantile must be in [0, 100]", ErrInvalidGuardrail)
	}
	if g.Smoothing < 0 || g.Smoothing > 1 {
		return fmt.Errorf("%w: smoothing must be in [0, 1]", ErrInvalidGuardrail)
	}
	return nil
}

// OutcomeRecord 一次决策落地后的实际观测。
type OutcomeRecord struct {
	GuardrailID string    `json:"guardrail_id"`
	Observed    float64   `json:"observed"`
	Expected    float64   `json:"expected"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Deviation 实际值对预期值的偏差
func (r OutcomeRecord) Deviation() float64 {
	return r.Observed - r.Expected
}

// Adjustment 一次校准的结果。
type Adjustment struct {
	GuardrailID  string  `json:"guardrail_id"`
	OldThreshold float64 `json:"old_threshold"`
	NewThreshold float64 `json:"new_threshold"`
	// ObservedQuantile 本次观测窗口内 |偏差| 的分位数
	ObservedQuantile float64 `json:"observed_quantile"`
	SampleSize       int     `json:"sample_size"`
}

// Adjust 根据观测记录校准阈值：取 |偏差| 的指定分位数，
// 再与当前阈值做 EWMA 混合，避免单个窗口的离群观测导致阈值跳变。
func Adjust(g Guardrail, records []OutcomeRecord) (*Adjustment, error) {
	if len(records) < MinOutcomesNeeded {
		return nil, fmt.Errorf("%w: need at least %d records, got %d", ErrNoOutcomes, MinOutcomesNeeded, len(records))
	}

	quantile := g.Quantile
	if quantile == 0 {
		quantile = DefaultQuantile
	}
	smoothing := g.Smoothing
	if smoothing == 0 {
		smoothing = DefaultSmoothing
	}

	deviations := make([]float64, len(records))
	for i, r := range records {
		deviations[i] = math.Abs(r.Deviation())
	}

	observed, err := stats.Percentile(deviations, quantile)
	if err != nil {
		return nil, fmt.Errorf("failed to compute deviation quantile: %w", err)
	}

	newThreshold := (1-smoothing)*g.Threshold + smoothing*observed
	return &Adjustment{
		GuardrailID:      g.ID,
		OldThreshold:     g.Threshold,
		NewThreshold:     newThreshold,
		ObservedQuantile: observed,
		SampleSize:       len(records),
	}, nil
}

// Repository 护栏仓储接口。
type Repository interface {
	SaveGuardrail(ctx context.Context, g *Guardrail) error
	// GetGuardrail 未找到时返回 (nil, nil)
	GetGuardrail(ctx context.Context, id string) (*Guardrail, error)
	AppendOutcome(ctx context.Context, record *OutcomeRecord) error
	// ListOutcomes 返回最近 limit 条观测，limit <= 0 表示全部
	ListOutcomes(ctx context.Context, guardrailID string, limit int) ([]OutcomeRecord, error)
}
