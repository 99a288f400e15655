package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/decisionsim/internal/simulation/domain"
	"github.com/wyfcoding/decisionsim/internal/simulation/infrastructure/persistence/memory"
	"github.com/wyfcoding/decisionsim/internal/simulation/infrastructure/publisher"
	"github.com/wyfcoding/decisionsim/pkg/metrics"
)

func testInput() domain.SimulationInput {
	return domain.SimulationInput{
		DecisionID: "d-1",
		Options: []domain.DecisionOption{
			{ID: "o1", Label: "Enter market", ExpectedReturn: 120, Cost: 80},
			{ID: "o2", Label: "Wait", ExpectedReturn: 40, Cost: 10},
		},
		ScenarioVars: []domain.ScenarioVar{
			{ID: "v1", Name: "demand", AppliesTo: domain.AppliesToReturn, Dist: domain.DistNormal,
				Params: domain.DistParams{Mean: 0, Sd: 0.1}},
		},
		Runs: 500,
		Seed: 42,
	}
}

func newTestService() (*Service, *memory.SnapshotRepository, *publisher.MockEventPublisher) {
	repo := memory.NewSnapshotRepository()
	pub := publisher.NewMockEventPublisher()
	return NewService(repo, pub, metrics.New("test")), repo, pub
}

func TestRunSimulationPersistsSnapshot(t *testing.T) {
	svc, repo, pub := newTestService()

	resp, err := svc.RunSimulation(context.Background(), testInput())
	require.NoError(t, err)
	require.NotEmpty(t, resp.RunID)
	assert.False(t, resp.Reused)
	assert.Equal(t, "d-1", resp.DecisionID)
	assert.Len(t, resp.Results, 2)
	assert.Len(t, resp.Fingerprint, 64)

	saved, err := repo.GetByRunID(context.Background(), resp.RunID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, resp.Fingerprint, saved.Fingerprint)
	assert.Equal(t, resp.Results, saved.Results)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.SimulationCompletedEventType, events[0].EventType)
	assert.Equal(t, resp.RunID, events[0].Key)
}

func TestRunSimulationReusesIdenticalInputs(t *testing.T) {
	svc, _, pub := newTestService()

	first, err := svc.RunSimulation(context.Background(), testInput())
	require.NoError(t, err)

	second, err := svc.RunSimulation(context.Background(), testInput())
	require.NoError(t, err)

	assert.True(t, second.Reused)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.Results, second.Results)

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.SimulationReusedEventType, events[1].EventType)
}

func TestRunSimulationDifferentSeedIsNotReused(t *testing.T) {
	svc, _, _ := newTestService()

	first, err := svc.RunSimulation(context.Background(), testInput())
	require.NoError(t, err)

	in := testInput()
	in.Seed = 43
	second, err := svc.RunSimulation(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, second.Reused)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
}

func TestRunSimulationRejectsInvalidInput(t *testing.T) {
	svc, _, pub := newTestService()

	in := testInput()
	in.Runs = 0
	_, err := svc.RunSimulation(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrNoRuns)
	assert.Empty(t, pub.Events())
}

func TestRunSensitivity(t *testing.T) {
	svc, _, _ := newTestService()

	rows, err := svc.RunSensitivity(context.Background(), domain.SensitivityInput{
		Base:   testInput(),
		Metric: domain.MetricEV,
	})
	require.NoError(t, err)
	// o1 的收益与成本 + v1 的权重与均值
	require.Len(t, rows, 4)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].Impact, rows[i].Impact)
	}
}
