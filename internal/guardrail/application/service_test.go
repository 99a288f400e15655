package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/decisionsim/internal/guardrail/domain"
	"github.com/wyfcoding/decisionsim/internal/guardrail/infrastructure/persistence/memory"
)

func newService() *GuardrailService {
	return NewGuardrailService(memory.NewRepository())
}

func createGuardrail(t *testing.T, s *GuardrailService) *domain.Guardrail {
	t.Helper()
	g, err := s.CreateGuardrail(context.Background(), domain.Guardrail{
		ID:         "g1",
		DecisionID: "d1",
		Name:       "EV deviation",
		Threshold:  10,
		Quantile:   50,
		Smoothing:  0.5,
	})
	require.NoError(t, err)
	return g
}

func TestCreateAndGetGuardrail(t *testing.T) {
	s := newService()
	created := createGuardrail(t, s)
	assert.False(t, created.UpdatedAt.IsZero())

	got, err := s.GetGuardrail(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, created.Threshold, got.Threshold)
}

func TestGetGuardrailNotFound(t *testing.T) {
	s := newService()
	_, err := s.GetGuardrail(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrGuardrailNotFound)
}

func TestCreateGuardrailRejectsInvalid(t *testing.T) {
	s := newService()
	_, err := s.CreateGuardrail(context.Background(), domain.Guardrail{ID: "g1"})
	assert.ErrorIs(t, err, domain.ErrInvalidGuardrail)
}

func TestRecordOutcomeRequiresGuardrail(t *testing.T) {
	s := newService()
	err := s.RecordOutcome(context.Background(), domain.OutcomeRecord{GuardrailID: "missing", Observed: 1})
	assert.ErrorIs(t, err, domain.ErrGuardrailNotFound)
}

func TestAdjustGuardrailPersistsNewThreshold(t *testing.T) {
	s := newService()
	createGuardrail(t, s)

	for _, dev := range []float64{1, -2, 3, -4, 5} {
		require.NoError(t, s.RecordOutcome(context.Background(), domain.OutcomeRecord{
			GuardrailID: "g1",
			Observed:    100 + dev,
			Expected:    100,
		}))
	}

	adj, err := s.AdjustGuardrail(context.Background(), "g1")
	require.NoError(t, err)
	// P50(|dev|) = 3，新阈值 = 0.5·10 + 0.5·3
	assert.InDelta(t, 6.5, adj.NewThreshold, 1e-12)

	got, err := s.GetGuardrail(context.Background(), "g1")
	require.NoError(t, err)
	assert.InDelta(t, 6.5, got.Threshold, 1e-12)
}

func TestAdjustGuardrailNeedsEnoughOutcomes(t *testing.T) {
	s := newService()
	createGuardrail(t, s)

	require.NoError(t, s.RecordOutcome(context.Background(), domain.OutcomeRecord{
		GuardrailID: "g1", Observed: 105, Expected: 100,
	}))

	_, err := s.AdjustGuardrail(context.Background(), "g1")
	assert.ErrorIs(t, err, domain.ErrNoOutcomes)
}
