package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInput() SimulationInput {
	return SimulationInput{
		DecisionID: "d1",
		Options: []DecisionOption{
			{ID: "o1", Label: "Expand", ExpectedReturn: 100, Cost: 50},
			{ID: "o2", Label: "Hold", ExpectedReturn: 60, Cost: 20},
		},
		ScenarioVars: []ScenarioVar{
			{ID: "v1", Name: "demand", AppliesTo: AppliesToReturn, Dist: DistNormal, Params: DistParams{Mean: 0.0, Sd: 0.15}},
			{ID: "v2", Name: "input cost", AppliesTo: AppliesToCost, Dist: DistTriangular, Params: DistParams{Min: -0.1, Mode: 0.0, Max: 0.2}},
		},
		Runs: 5000,
		Seed: 42,
	}
}

func TestRunDeterminism(t *testing.T) {
	engine := NewEngine()
	in := baseInput()

	first, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), in)
	require.NoError(t, err)

	// 相同输入必须产生比特级一致的结果
	require.Equal(t, first, second)
}

func TestRunDoesNotMutateInput(t *testing.T) {
	engine := NewEngine()
	in := baseInput()
	in.Bayesian = &BayesianPriorOverride{TargetVarID: "v1", PosteriorMean: 0.2, PosteriorSd: 0.05}

	_, err := engine.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 0.0, in.ScenarioVars[0].Params.Mean)
	assert.Equal(t, 0.15, in.ScenarioVars[0].Params.Sd)
}

func TestRunDegenerateDistribution(t *testing.T) {
	// 无场景变量时结果分布退化：每次运行都是 100 - 50 = 50
	engine := NewEngine()
	in := SimulationInput{
		DecisionID: "d1",
		Options:    []DecisionOption{{ID: "o1", Label: "Only", ExpectedReturn: 100, Cost: 50}},
		Runs:       1000,
		Seed:       42,
	}

	results, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 50.0, r.EV.InexactFloat64())
	assert.Equal(t, 50.0, r.VaR95.InexactFloat64())
	assert.Equal(t, 50.0, r.CVaR95.InexactFloat64())
	assert.Equal(t, 0.0, r.EconomicCapital.InexactFloat64())
	// 资本为 0 时 RAROC 固定哨兵值 0，绝不是 NaN/Inf
	assert.Equal(t, 0.0, r.RAROC.InexactFloat64())
}

func TestRunCVaRNeverExceedsVaR(t *testing.T) {
	engine := NewEngine()
	in := baseInput()

	results, err := engine.Run(context.Background(), in)
	require.NoError(t, err)

	for _, r := range results {
		assert.LessOrEqual(t, r.CVaR95.InexactFloat64(), r.VaR95.InexactFloat64(),
			"expected shortfall must not exceed the cutoff for option %s", r.OptionID)
	}
}

func TestRunRejectsDegenerateInput(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Run(context.Background(), SimulationInput{Runs: 100, Seed: 1})
	assert.ErrorIs(t, err, ErrNoOptions)

	in := baseInput()
	in.Runs = 0
	_, err = engine.Run(context.Background(), in)
	assert.ErrorIs(t, err, ErrNoRuns)

	in = baseInput()
	in.Runs = -5
	_, err = engine.Run(context.Background(), in)
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestRunRejectsBayesianOverrideOnUniform(t *testing.T) {
	engine := NewEngine()
	in := baseInput()
	in.ScenarioVars = append(in.ScenarioVars, ScenarioVar{
		ID: "v3", Name: "fx", AppliesTo: AppliesToCost, Dist: DistUniform, Params: DistParams{Min: -0.1, Max: 0.1},
	})
	in.Bayesian = &BayesianPriorOverride{TargetVarID: "v3", PosteriorMean: 0.0, PosteriorSd: 0.05}

	_, err := engine.Run(context.Background(), in)
	assert.ErrorIs(t, err, ErrOverrideUnsupported)
}

func TestRunRejectsBayesianOverrideOnUnknownVar(t *testing.T) {
	engine := NewEngine()
	in := baseInput()
	in.Bayesian = &BayesianPriorOverride{TargetVarID: "missing", PosteriorMean: 0, PosteriorSd: 0.05}

	_, err := engine.Run(context.Background(), in)
	assert.ErrorIs(t, err, ErrOverrideUnsupported)
}

func TestRunBayesianOverrideShiftsOutcome(t *testing.T) {
	engine := NewEngine()
	in := baseInput()

	base, err := engine.Run(context.Background(), in)
	require.NoError(t, err)

	in.Bayesian = &BayesianPriorOverride{TargetVarID: "v1", PosteriorMean: 0.3, PosteriorSd: 0.05}
	shifted, err := engine.Run(context.Background(), in)
	require.NoError(t, err)

	// 抬高收益侧变量的后验均值必须抬高期望值
	assert.Greater(t, shifted[0].EV.InexactFloat64(), base[0].EV.InexactFloat64())
}

func TestRunHorizonScaling(t *testing.T) {
	engine := NewEngine()
	in := SimulationInput{
		DecisionID:    "d1",
		Options:       []DecisionOption{{ID: "o1", Label: "Only", ExpectedReturn: 120, Cost: 60}},
		Runs:          100,
		Seed:          1,
		HorizonMonths: 6,
	}

	results, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	// 6 个月期限把年化基线缩放一半：(120-60)·0.5 = 30
	assert.Equal(t, 30.0, results[0].EV.InexactFloat64())
}

func TestRunPerOptionHorizonOverridesGlobal(t *testing.T) {
	engine := NewEngine()
	in := SimulationInput{
		DecisionID: "d1",
		Options: []DecisionOption{
			{ID: "o1", Label: "Global", ExpectedReturn: 120, Cost: 60},
			{ID: "o2", Label: "Own", ExpectedReturn: 120, Cost: 60, HorizonMonths: 24},
		},
		Runs:          100,
		Seed:          1,
		HorizonMonths: 12,
	}

	results, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 60.0, results[0].EV.InexactFloat64())
	assert.Equal(t, 120.0, results[1].EV.InexactFloat64())
}

func TestRunGameAdjustment(t *testing.T) {
	engine := NewEngine()
	in := SimulationInput{
		DecisionID: "d1",
		Options:    []DecisionOption{{ID: "o1", Label: "Enter", ExpectedReturn: 100, Cost: 50}},
		Runs:       500,
		Seed:       5,
		Game: &GameConfig{
			Mode: GameModePayoffMatrix,
			PayoffMatrix: &PayoffMatrixConfig{
				Counterparts: []CounterpartStrategy{
					{Name: "aggressive", Probability: 0.4},
					{Name: "passive", Probability: 0.6},
				},
				Adjustments: map[string]map[string]float64{
					"enter": {"aggressive": -20, "passive": 5},
				},
			},
		},
		OptionStrategies: map[string]string{"o1": "enter"},
	}

	results, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	// 期望修正 = 0.4·(-20) + 0.6·5 = -5，退化分布下逐点生效
	assert.Equal(t, 45.0, results[0].EV.InexactFloat64())
}

func TestRunAttachesDependenceDiagnostics(t *testing.T) {
	engine := NewEngine()
	in := baseInput()
	in.Dependence = &DependenceConfig{VarA: "v1", VarB: "v2", TargetSpearman: 0.5}

	results, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	for _, r := range results {
		require.NotNil(t, r.AchievedSpearman)
		assert.InDelta(t, 0.5, *r.AchievedSpearman, 0.06)
		assert.Nil(t, r.Copula)
	}
}

func TestRunAttachesCopulaDiagnostics(t *testing.T) {
	engine := NewEngine()
	in := baseInput()
	in.Copula = &CopulaConfig{Matrix: [][]float64{{1, 0.4}, {0.4, 1}}}
	in.Runs = 20000

	results, err := engine.Run(context.Background(), in)
	require.NoError(t, err)
	for _, r := range results {
		require.NotNil(t, r.Copula)
		assert.Equal(t, []string{"v1", "v2"}, r.Copula.Order)
		assert.Less(t, r.Copula.FroErr, 0.05)
		assert.Nil(t, r.AchievedSpearman)
	}
}

func TestRunRejectsCopulaSizeMismatch(t *testing.T) {
	engine := NewEngine()
	in := baseInput()
	in.Copula = &CopulaConfig{Matrix: [][]float64{{1, 0.4, 0}, {0.4, 1, 0}, {0, 0, 1}}}

	_, err := engine.Run(context.Background(), in)
	assert.ErrorIs(t, err, ErrCopulaMatrix)
}

func TestRunCancellation(t *testing.T) {
	engine := NewEngine()
	in := baseInput()
	in.Runs = 2_000_000

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, in)
	assert.ErrorIs(t, err, context.Canceled)
}
