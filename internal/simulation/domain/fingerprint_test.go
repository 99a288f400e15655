package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintStable(t *testing.T) {
	in := baseInput()

	a := Fingerprint(in.Seed, in.Runs, in.Options, in.ScenarioVars)
	b := Fingerprint(in.Seed, in.Runs, in.Options, in.ScenarioVars)

	assert.NotEmpty(t, a)
	assert.Len(t, a, 64)
	assert.Equal(t, a, b, "identical inputs must map to the same fingerprint")
}

func TestFingerprintChangesWithInput(t *testing.T) {
	in := baseInput()
	base := Fingerprint(in.Seed, in.Runs, in.Options, in.ScenarioVars)

	assert.NotEqual(t, base, Fingerprint(in.Seed+1, in.Runs, in.Options, in.ScenarioVars))
	assert.NotEqual(t, base, Fingerprint(in.Seed, in.Runs+1, in.Options, in.ScenarioVars))

	opts := cloneInput(in).Options
	opts[0].Cost += 0.01
	assert.NotEqual(t, base, Fingerprint(in.Seed, in.Runs, opts, in.ScenarioVars))

	vars := cloneInput(in).ScenarioVars
	vars[0].Params.Sd += 0.01
	assert.NotEqual(t, base, Fingerprint(in.Seed, in.Runs, in.Options, vars))
}
