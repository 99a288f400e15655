package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeCorrelatedVars() []ScenarioVar {
	return []ScenarioVar{
		{ID: "v1", Name: "demand", AppliesTo: AppliesToReturn, Dist: DistNormal, Params: DistParams{Mean: 0.05, Sd: 0.1}},
		{ID: "v2", Name: "price", AppliesTo: AppliesToReturn, Dist: DistLognormal, Params: DistParams{Mu: -0.02, Sigma: 0.2}},
		{ID: "v3", Name: "supply", AppliesTo: AppliesToCost, Dist: DistUniform, Params: DistParams{Min: -0.1, Max: 0.1}},
	}
}

func TestCopulaRoundTrip(t *testing.T) {
	target := [][]float64{
		{1, 0.6, 0.3},
		{0.6, 1, 0.2},
		{0.3, 0.2, 1},
	}
	vars := threeCorrelatedVars()

	draws, snap, err := sampleCopula(NewStream(42), vars, 50000, target)
	require.NoError(t, err)
	require.Len(t, draws, 50000)
	require.NotNil(t, snap)

	// 大样本下实际相关矩阵应在小容差内还原目标
	assert.Less(t, snap.FroErr, 0.05)
	assert.False(t, snap.Repaired)
	assert.Equal(t, []string{"v1", "v2", "v3"}, snap.Order)

	// 报告的 froErr 必须等于按诊断矩阵实际测得的值
	assert.Equal(t, frobeniusError(snap.Achieved, target), snap.FroErr)

	// 诊断矩阵对称且单位对角
	for i := range snap.Achieved {
		assert.Equal(t, 1.0, snap.Achieved[i][i])
		for j := range snap.Achieved[i] {
			assert.Equal(t, snap.Achieved[i][j], snap.Achieved[j][i])
		}
	}
}

func TestCopulaPreservesMarginals(t *testing.T) {
	target := [][]float64{
		{1, 0.8, 0},
		{0.8, 1, 0},
		{0, 0, 1},
	}
	vars := threeCorrelatedVars()

	draws, _, err := sampleCopula(NewStream(7), vars, 50000, target)
	require.NoError(t, err)

	// 均匀边缘分布在施加相关后仍应落在原区间内且均值不变
	col := column(draws, 2)
	var mean float64
	for _, x := range col {
		require.GreaterOrEqual(t, x, -0.1)
		require.LessOrEqual(t, x, 0.1)
		mean += x
	}
	mean /= float64(len(col))
	assert.InDelta(t, 0.0, mean, 0.005)
}

func TestCopulaRepairsNonPSDTarget(t *testing.T) {
	// 不满足半正定性的目标：修复后继续运行，不允许崩溃
	target := [][]float64{
		{1, 0.9, -0.9},
		{0.9, 1, 0.9},
		{-0.9, 0.9, 1},
	}
	_, ok := cholesky(target)
	require.False(t, ok, "fixture must not be positive definite")

	draws, snap, err := sampleCopula(NewStream(3), threeCorrelatedVars(), 20000, target)
	require.NoError(t, err)
	require.Len(t, draws, 20000)
	assert.True(t, snap.Repaired)
	// 修复量体现在拟合误差上
	assert.Greater(t, snap.FroErr, 0.0)
}

func TestPairwiseSpearmanTarget(t *testing.T) {
	vars := threeCorrelatedVars()
	dep := &DependenceConfig{VarA: "v1", VarB: "v3", TargetSpearman: 0.7}

	draws, rho, err := samplePairwise(NewStream(42), vars, 30000, dep)
	require.NoError(t, err)
	require.Len(t, draws, 30000)

	assert.InDelta(t, 0.7, rho, 0.03)

	// 未配对的变量不应产生明显相关
	side, err := SpearmanRho(column(draws, 0), column(draws, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, side, 0.03)
}

func TestPairwiseNegativeTarget(t *testing.T) {
	vars := threeCorrelatedVars()
	dep := &DependenceConfig{VarA: "v1", VarB: "v2", TargetSpearman: -0.5}

	_, rho, err := samplePairwise(NewStream(9), vars, 30000, dep)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, rho, 0.03)
}

func TestValidateCopulaTarget(t *testing.T) {
	tests := []struct {
		name   string
		matrix [][]float64
		n      int
		ok     bool
	}{
		{"valid", [][]float64{{1, 0.5}, {0.5, 1}}, 2, true},
		{"wrong size", [][]float64{{1}}, 2, false},
		{"ragged row", [][]float64{{1, 0.5}, {0.5}}, 2, false},
		{"diagonal not one", [][]float64{{0.9, 0.5}, {0.5, 1}}, 2, false},
		{"asymmetric", [][]float64{{1, 0.5}, {0.4, 1}}, 2, false},
		{"out of range", [][]float64{{1, 1.5}, {1.5, 1}}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCopulaTarget(tt.matrix, tt.n)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrCopulaMatrix)
			}
		})
	}
}

func TestSpearmanRhoRankBased(t *testing.T) {
	// 严格单调关系的秩相关为 1，与数值大小无关
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{10, 100, 1000, 10000, 100000}
	rho, err := SpearmanRho(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rho, 1e-12)

	rho, err = SpearmanRho(x, []float64{5, 4, 3, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, rho, 1e-12)
}

func TestRanksAverageTies(t *testing.T) {
	got := ranks([]float64{3, 1, 3, 2})
	assert.Equal(t, []float64{3.5, 1, 3.5, 2}, got)
}
