package domain

import (
	"context"
)

// Engine 场景模拟引擎：同步执行，单次调用内跑完全部抽样。
// 引擎无共享可变状态，多次调用相互独立，可安全并发使用。
type Engine struct{}

// NewEngine 创建模拟引擎。
func NewEngine() *Engine {
	return &Engine{}
}

// ctxCheckInterval 传播循环中检查取消信号的步长。
const ctxCheckInterval = 1024

// Run 执行一次完整模拟：校验 → 贝叶斯覆盖 → 相关抽样 → 逐选项传播 → 指标聚合。
// 相同输入（含种子）保证产生比特级一致的结果。要么全部选项成功，
// 要么返回错误并说明失败原因，不返回部分结果。
func (e *Engine) Run(ctx context.Context, in SimulationInput) ([]SimulationResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	vars := applyBayesianOverride(in.ScenarioVars, in.Bayesian)

	draws, copSnap, achievedRho, err := e.sample(in, vars)
	if err != nil {
		return nil, err
	}

	results := make([]SimulationResult, 0, len(in.Options))
	for _, opt := range in.Options {
		outcomes, err := e.propagate(ctx, in, vars, draws, opt)
		if err != nil {
			return nil, err
		}
		res, err := aggregate(opt, outcomes, in.Utility, in.TCOR)
		if err != nil {
			return nil, err
		}
		res.AchievedSpearman = achievedRho
		res.Copula = copSnap
		results = append(results, res)
	}
	return results, nil
}

// sample 按依赖配置生成 runs×len(vars) 抽样矩阵及诊断信息。
// Copula 配置优先于成对配置。
func (e *Engine) sample(in SimulationInput, vars []ScenarioVar) ([][]float64, *CopulaSnapshot, *float64, error) {
	stream := NewStream(in.Seed)
	if len(vars) == 0 {
		return make([][]float64, in.Runs), nil, nil, nil
	}

	switch {
	case in.Copula != nil:
		draws, snap, err := sampleCopula(stream, vars, in.Runs, in.Copula.Matrix)
		if err != nil {
			return nil, nil, nil, err
		}
		return draws, snap, nil, nil
	case in.Dependence != nil:
		draws, rho, err := samplePairwise(stream, vars, in.Runs, in.Dependence)
		if err != nil {
			return nil, nil, nil, err
		}
		return draws, nil, &rho, nil
	default:
		draws, err := sampleIndependent(stream, vars, in.Runs)
		if err != nil {
			return nil, nil, nil, err
		}
		return draws, nil, nil, nil
	}
}

// propagate 将抽样扰动应用到单个选项的基线收益/成本，产出原始结果分布。
// 扰动为乘性：base × (1 + Σ weight·draw)，收益与成本各自累加对应方向的变量。
func (e *Engine) propagate(ctx context.Context, in SimulationInput, vars []ScenarioVar, draws [][]float64, opt DecisionOption) ([]float64, error) {
	horizon := in.HorizonMonths
	if opt.HorizonMonths > 0 {
		horizon = opt.HorizonMonths
	}
	factor := 1.0
	if horizon > 0 {
		factor = horizon / 12
	}
	baseReturn := opt.ExpectedReturn * factor
	baseCost := opt.Cost * factor

	var gameAdj float64
	if in.Game != nil {
		gameAdj = in.Game.ExpectedAdjustment(in.OptionStrategies[opt.ID])
	}

	outcomes := make([]float64, in.Runs)
	for r := 0; r < in.Runs; r++ {
		if r%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var retPert, costPert float64
		if len(vars) > 0 {
			row := draws[r]
			for j, v := range vars {
				d := row[j] * v.EffectiveWeight()
				if v.AppliesTo == AppliesToReturn {
					retPert += d
				} else {
					costPert += d
				}
			}
		}
		outcomes[r] = baseReturn*(1+retPert) - baseCost*(1+costPert) + gameAdj
	}
	return outcomes, nil
}
