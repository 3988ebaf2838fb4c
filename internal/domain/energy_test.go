package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnergyCfg = EnergyConfig{Max: 6, RegenInterval: 4 * time.Hour, RegenAmount: 1}

func TestComputeEnergy_NoElapsedTime(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	state := ComputeEnergy(3, 6, base, base.Add(time.Hour), testEnergyCfg)

	assert.Equal(t, 3, state.Current)
	assert.Equal(t, base, state.LastReplenishAt)
	require.NotNil(t, state.NextRegenAt)
	assert.Equal(t, base.Add(4*time.Hour), *state.NextRegenAt)
}

func TestComputeEnergy_PreservesPartialProgress(t *testing.T) {
	// max=6, interval=4h, current=3, elapsed=9h → current=5 with the
	// remaining 1h kept toward the next unit, not discarded.
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := base.Add(9 * time.Hour)

	state := ComputeEnergy(3, 6, base, now, testEnergyCfg)

	assert.Equal(t, 5, state.Current)
	assert.Equal(t, base.Add(8*time.Hour), state.LastReplenishAt)
	require.NotNil(t, state.NextRegenAt)
	assert.Equal(t, base.Add(12*time.Hour), *state.NextRegenAt)
}

func TestComputeEnergy_CapsAtMax(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := base.Add(100 * time.Hour)

	state := ComputeEnergy(2, 6, base, now, testEnergyCfg)

	assert.Equal(t, 6, state.Current)
	assert.Nil(t, state.NextRegenAt)
	// Drift collapses to now once capped.
	assert.Equal(t, now, state.LastReplenishAt)
}

func TestComputeEnergy_ExactCapKeepsPhase(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := base.Add(8 * time.Hour)

	state := ComputeEnergy(4, 6, base, now, testEnergyCfg)

	assert.Equal(t, 6, state.Current)
	assert.Nil(t, state.NextRegenAt)
	assert.Equal(t, base.Add(8*time.Hour), state.LastReplenishAt)
}

func TestComputeEnergy_AlreadyAtMax(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	state := ComputeEnergy(6, 6, base, base.Add(50*time.Hour), testEnergyCfg)

	assert.Equal(t, 6, state.Current)
	assert.Equal(t, base, state.LastReplenishAt)
	assert.Nil(t, state.NextRegenAt)
}

func TestComputeEnergy_ClockSkewClampsToZero(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	// now before lastReplenishAt must never drain or regenerate.
	state := ComputeEnergy(3, 6, base, base.Add(-2*time.Hour), testEnergyCfg)

	assert.Equal(t, 3, state.Current)
	assert.Equal(t, base, state.LastReplenishAt)
}

func TestComputeEnergy_NeverExceedsBounds(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for current := 0; current <= 6; current++ {
		for hours := 0; hours <= 60; hours += 3 {
			state := ComputeEnergy(current, 6, base, base.Add(time.Duration(hours)*time.Hour), testEnergyCfg)
			assert.LessOrEqual(t, state.Current, 6, "current=%d elapsed=%dh", current, hours)
			assert.GreaterOrEqual(t, state.Current, current, "current=%d elapsed=%dh", current, hours)
		}
	}
}

func TestComputeEnergy_RegenAmountGreaterThanOne(t *testing.T) {
	cfg := EnergyConfig{Max: 10, RegenInterval: time.Hour, RegenAmount: 2}
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	state := ComputeEnergy(1, 10, base, base.Add(3*time.Hour), cfg)

	assert.Equal(t, 7, state.Current)
	assert.Equal(t, base.Add(3*time.Hour), state.LastReplenishAt)
}

func TestEnergyStale(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, EnergyStale(3, 6, base, base.Add(time.Hour), testEnergyCfg))
	assert.True(t, EnergyStale(3, 6, base, base.Add(5*time.Hour), testEnergyCfg))
	// Full energy is never stale regardless of elapsed time.
	assert.False(t, EnergyStale(6, 6, base, base.Add(100*time.Hour), testEnergyCfg))
}
