package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalPosteriorClosedForm(t *testing.T) {
	// 先验 N(0, 0.2²)，证据 x̄=0.1, n=20, σL=0.25。
	// 手算：1/τ0² = 25, n/σL² = 320, 精度 = 345,
	// τn² = 1/345, μn = 32/345 ≈ 0.0927536232。
	post, err := NormalPosterior(0, 0.2, 0.1, 20, 0.25)
	require.NoError(t, err)

	assert.InDelta(t, 32.0/345.0, post.Mean, 1e-12)
	assert.InDelta(t, 1.0/345.0, post.Variance, 1e-12)
	assert.InDelta(t, 0.05383819020581655, post.Sd, 1e-12)
}

func TestNormalPosteriorShrinksTowardEvidence(t *testing.T) {
	weak, err := NormalPosterior(0, 0.2, 0.1, 5, 0.25)
	require.NoError(t, err)
	strong, err := NormalPosterior(0, 0.2, 0.1, 500, 0.25)
	require.NoError(t, err)

	// 证据越多，后验均值越接近证据均值，后验方差越小
	assert.Greater(t, strong.Mean, weak.Mean)
	assert.Less(t, strong.Variance, weak.Variance)
	assert.InDelta(t, 0.1, strong.Mean, 0.01)
}

func TestNormalPosteriorRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name                 string
		priorSd, likelihoodSd float64
		n                    int
	}{
		{"zero prior sd", 0, 0.25, 20},
		{"negative prior sd", -0.1, 0.25, 20},
		{"zero likelihood sd", 0.2, 0, 20},
		{"zero evidence count", 0.2, 0.25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalPosterior(0, tt.priorSd, 0.1, tt.n, tt.likelihoodSd)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestApplyBayesianOverrideDoesNotMutateInput(t *testing.T) {
	vars := []ScenarioVar{
		{ID: "v1", AppliesTo: AppliesToReturn, Dist: DistNormal, Params: DistParams{Mean: 0.05, Sd: 0.1}},
		{ID: "v2", AppliesTo: AppliesToCost, Dist: DistLognormal, Params: DistParams{Mu: -0.2, Sigma: 0.3}},
	}
	override := &BayesianPriorOverride{TargetVarID: "v1", PosteriorMean: 0.09, PosteriorSd: 0.05}

	out := applyBayesianOverride(vars, override)

	assert.Equal(t, 0.09, out[0].Params.Mean)
	assert.Equal(t, 0.05, out[0].Params.Sd)
	// 原始定义不被触碰
	assert.Equal(t, 0.05, vars[0].Params.Mean)
	assert.Equal(t, 0.1, vars[0].Params.Sd)
	// 非目标变量原样保留
	assert.Equal(t, vars[1], out[1])
}

func TestApplyBayesianOverrideLognormalLogSpace(t *testing.T) {
	vars := []ScenarioVar{
		{ID: "v1", AppliesTo: AppliesToReturn, Dist: DistLognormal, Params: DistParams{Mu: 0.1, Sigma: 0.2}},
	}
	out := applyBayesianOverride(vars, &BayesianPriorOverride{TargetVarID: "v1", PosteriorMean: 0.3, PosteriorSd: 0.15})

	assert.Equal(t, 0.3, out[0].Params.Mu)
	assert.Equal(t, 0.15, out[0].Params.Sigma)
}
