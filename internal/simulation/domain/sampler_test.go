package domain

import (
	"math"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDeterminism(t *testing.T) {
	v := ScenarioVar{ID: "v1", AppliesTo: AppliesToReturn, Dist: DistNormal, Params: DistParams{Mean: 0.05, Sd: 0.1}}

	a := NewStream(42)
	b := NewStream(42)
	for i := 0; i < 1000; i++ {
		da, err := a.Draw(v)
		require.NoError(t, err)
		db, err := b.Draw(v)
		require.NoError(t, err)
		require.Equal(t, da, db, "same seed must reproduce the same stream")
	}
}

func TestStreamSeedOffsetDecorrelates(t *testing.T) {
	a := NewStream(42 + SeedOffsetPlus)
	b := NewStream(42 + SeedOffsetMinus)
	assert.NotEqual(t, a.StdNormal(), b.StdNormal())
}

func TestNormalDrawMoments(t *testing.T) {
	v := ScenarioVar{ID: "v1", AppliesTo: AppliesToReturn, Dist: DistNormal, Params: DistParams{Mean: 0.05, Sd: 0.1}}
	s := NewStream(7)

	draws := make([]float64, 50000)
	for i := range draws {
		d, err := s.Draw(v)
		require.NoError(t, err)
		draws[i] = d
	}
	mean, _ := stats.Mean(draws)
	sd, _ := stats.StandardDeviation(draws)

	assert.InDelta(t, 0.05, mean, 0.005)
	assert.InDelta(t, 0.1, sd, 0.005)
}

func TestTriangularDrawStaysInBounds(t *testing.T) {
	v := ScenarioVar{ID: "v1", AppliesTo: AppliesToCost, Dist: DistTriangular, Params: DistParams{Min: -0.2, Mode: 0.0, Max: 0.3}}
	s := NewStream(11)

	for i := 0; i < 10000; i++ {
		d, err := s.Draw(v)
		require.NoError(t, err)
		require.GreaterOrEqual(t, d, -0.2)
		require.LessOrEqual(t, d, 0.3)
	}
}

func TestUniformDrawStaysInBounds(t *testing.T) {
	v := ScenarioVar{ID: "v1", AppliesTo: AppliesToCost, Dist: DistUniform, Params: DistParams{Min: 1, Max: 2}}
	s := NewStream(13)

	for i := 0; i < 10000; i++ {
		d, err := s.Draw(v)
		require.NoError(t, err)
		require.GreaterOrEqual(t, d, 1.0)
		require.Less(t, d, 2.0)
	}
}

func TestNormQuantileRoundTrip(t *testing.T) {
	for _, x := range []float64{-3, -1.5, -0.5, 0, 0.5, 1.5, 3} {
		assert.InDelta(t, x, normQuantile(normCDF(x)), 1e-7)
	}
}

func TestQuantileMonotonic(t *testing.T) {
	vars := []ScenarioVar{
		{ID: "n", Dist: DistNormal, Params: DistParams{Mean: 0, Sd: 1}},
		{ID: "ln", Dist: DistLognormal, Params: DistParams{Mu: 0, Sigma: 0.5}},
		{ID: "tri", Dist: DistTriangular, Params: DistParams{Min: 0, Mode: 1, Max: 3}},
		{ID: "u", Dist: DistUniform, Params: DistParams{Min: -1, Max: 1}},
	}
	for _, v := range vars {
		prev := math.Inf(-1)
		for p := 0.01; p < 1; p += 0.01 {
			q, err := v.Quantile(p)
			require.NoError(t, err)
			require.GreaterOrEqual(t, q, prev, "%s quantile must be non-decreasing", v.ID)
			prev = q
		}
	}
}

func TestScenarioVarValidateRejectsBadParams(t *testing.T) {
	tests := []struct {
		name string
		v    ScenarioVar
		want error
	}{
		{"zero sd", ScenarioVar{ID: "v", AppliesTo: AppliesToReturn, Dist: DistNormal, Params: DistParams{Mean: 0, Sd: 0}}, ErrInvalidParams},
		{"negative sigma", ScenarioVar{ID: "v", AppliesTo: AppliesToReturn, Dist: DistLognormal, Params: DistParams{Mu: 0, Sigma: -1}}, ErrInvalidParams},
		{"mode outside range", ScenarioVar{ID: "v", AppliesTo: AppliesToCost, Dist: DistTriangular, Params: DistParams{Min: 0, Mode: 5, Max: 1}}, ErrInvalidParams},
		{"min not below max", ScenarioVar{ID: "v", AppliesTo: AppliesToCost, Dist: DistUniform, Params: DistParams{Min: 2, Max: 1}}, ErrInvalidParams},
		{"unknown dist", ScenarioVar{ID: "v", AppliesTo: AppliesToCost, Dist: "beta"}, ErrInvalidDistribution},
		{"unknown applies_to", ScenarioVar{ID: "v", AppliesTo: "margin", Dist: DistUniform, Params: DistParams{Min: 0, Max: 1}}, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.v.Validate(), tt.want)
		})
	}
}
