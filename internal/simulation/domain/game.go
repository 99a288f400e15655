package domain

import (
	"fmt"
	"math"
)

// GameMode 策略交互模式，已知变体的标签联合。
type GameMode string

const (
	// GameModePayoffMatrix 离散收益矩阵查表，不求解均衡
	GameModePayoffMatrix GameMode = "payoff_matrix"
)

// CounterpartStrategy 对手策略及其出现概率。
type CounterpartStrategy struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// PayoffMatrixConfig 离散收益矩阵配置。
// Adjustments[选项策略][对手策略] = 收益修正值。
type PayoffMatrixConfig struct {
	Counterparts []CounterpartStrategy         `json:"counterparts"`
	Adjustments  map[string]map[string]float64 `json:"adjustments"`
}

// GameConfig 策略交互配置，按 Mode 分发到具体变体，边界处校验。
type GameConfig struct {
	Mode         GameMode            `json:"mode"`
	PayoffMatrix *PayoffMatrixConfig `json:"payoff_matrix,omitempty"`
}

// Validate 校验交互配置变体。
func (g *GameConfig) Validate() error {
	switch g.Mode {
	case GameModePayoffMatrix:
		if g.PayoffMatrix == nil {
			return fmt.Errorf("%w: payoff_matrix mode requires payoff matrix config", ErrInvalidParams)
		}
		if len(g.PayoffMatrix.Counterparts) == 0 {
			return fmt.Errorf("%w: payoff matrix requires at least one counterpart strategy", ErrInvalidParams)
		}
		var total float64
		for _, c := range g.PayoffMatrix.Counterparts {
			if c.Probability < 0 {
				return fmt.Errorf("%w: counterpart %q has negative probability", ErrInvalidParams, c.Name)
			}
			total += c.Probability
		}
		if math.Abs(total-1) > 1e-6 {
			return fmt.Errorf("%w: counterpart probabilities sum to %v, expected 1", ErrInvalidParams, total)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown game mode %q", ErrInvalidParams, g.Mode)
	}
}

// ExpectedAdjustment 给定选项策略下的期望收益修正：
// 对手策略概率加权的矩阵查表。未知策略修正为 0。
func (g *GameConfig) ExpectedAdjustment(optionStrategy string) float64 {
	if g == nil || g.Mode != GameModePayoffMatrix || g.PayoffMatrix == nil {
		return 0
	}
	row, ok := g.PayoffMatrix.Adjustments[optionStrategy]
	if !ok {
		return 0
	}
	var adj float64
	for _, c := range g.PayoffMatrix.Counterparts {
		adj += c.Probability * row[c.Name]
	}
	return adj
}
