package selector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateEqualSplitsBudget(t *testing.T) {
	allocator := NewAllocator(10000, 100, 0.25)
	selected := []Candidate{
		{Combination: "1-2-3", Probability: 0.30},
		{Combination: "2-1-3", Probability: 0.25},
		{Combination: "3-1-2", Probability: 0.20},
	}

	recs := allocator.Allocate(selected, MethodEqual)
	require.Len(t, recs, 3)
	for _, r := range recs {
		// 10000/3 = 3333.33 floored to the tradable unit.
		assert.Equal(t, 3300.0, r.Stake)
	}
}

func TestAllocateProportional(t *testing.T) {
	allocator := NewAllocator(10000, 100, 0.25)
	selected := []Candidate{
		{Combination: "1-2-3", Probability: 0.30},
		{Combination: "2-1-3", Probability: 0.10},
	}

	recs := allocator.Allocate(selected, MethodProportional)
	require.Len(t, recs, 2)
	assert.Equal(t, 7500.0, recs[0].Stake)
	assert.Equal(t, 2500.0, recs[1].Stake)
}

func TestAllocateKellyZeroForNonPositiveEdge(t *testing.T) {
	allocator := NewAllocator(10000, 100, 0.25)
	selected := []Candidate{
		{Combination: "1-2-3", Probability: 0.0476, Odds: 8.0, ExpectedValue: 0.0476*8 - 1},
		{Combination: "2-1-3", Probability: 0.10, Odds: 1.0},
		{Combination: "3-1-2", Probability: 0.0},
	}

	recs := allocator.Allocate(selected, MethodKelly)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Zero(t, r.Stake, "non-positive edge must receive zero stake for %s", r.Combination)
	}
}

func TestAllocateKellyScenarioC(t *testing.T) {
	allocator := NewAllocator(10000, 100, 0.25)
	selected := []Candidate{
		{Combination: "1-2-3", Probability: 0.05, Odds: 25, ExpectedValue: 0.05*25 - 1},
		{Combination: "2-1-3", Probability: 0.03, Odds: 40, ExpectedValue: 0.03*40 - 1},
		{Combination: "3-1-2", Probability: 0.02, Odds: 60, ExpectedValue: 0.02*60 - 1},
	}

	recs := allocator.Allocate(selected, MethodKelly)
	require.Len(t, recs, 3)

	total := 0.0
	for _, r := range recs {
		assert.GreaterOrEqual(t, r.Stake, 0.0)
		assert.Zero(t, math.Mod(r.Stake, 100), "stake %v must be a multiple of the unit", r.Stake)
		total += r.Stake
	}
	assert.LessOrEqual(t, total, 10000.0)
}

func TestAllocateKellyDampingAndRounding(t *testing.T) {
	// p=0.5 at odds 4: f* = (3*0.5 - 0.5)/3 = 1/3; quarter Kelly on a 10000
	// budget is 833.33, floored to 800.
	allocator := NewAllocator(10000, 100, 0.25)
	selected := []Candidate{{Combination: "1-2-3", Probability: 0.5, Odds: 4.0, ExpectedValue: 1.0}}

	recs := allocator.Allocate(selected, MethodKelly)
	require.Len(t, recs, 1)
	assert.Equal(t, 800.0, recs[0].Stake)
}

func TestAllocateScalesDownWhenOverBudget(t *testing.T) {
	// Three dominant edges whose damped Kelly stakes would exceed the budget.
	allocator := NewAllocator(1000, 100, 1.0)
	selected := []Candidate{
		{Combination: "1-2-3", Probability: 0.9, Odds: 10},
		{Combination: "2-1-3", Probability: 0.9, Odds: 10},
		{Combination: "3-1-2", Probability: 0.9, Odds: 10},
	}

	recs := allocator.Allocate(selected, MethodKelly)
	total := 0.0
	for _, r := range recs {
		assert.Zero(t, math.Mod(r.Stake, 100))
		total += r.Stake
	}
	assert.LessOrEqual(t, total, 1000.0)
	assert.Greater(t, total, 0.0)
}

func TestAllocateEmptySelection(t *testing.T) {
	allocator := NewAllocator(10000, 100, 0.25)
	assert.Empty(t, allocator.Allocate(nil, MethodKelly))
	assert.Empty(t, allocator.Allocate([]Candidate{}, MethodEqual))
}

func TestKellyFraction(t *testing.T) {
	// p=0.6 at odds 2: f* = (1*0.6 - 0.4)/1 = 0.2.
	assert.InDelta(t, 0.2, KellyFraction(0.6, 2.0), 1e-9)
	assert.Zero(t, KellyFraction(0.3, 1.0))
	assert.Zero(t, KellyFraction(0.0, 5.0))
	assert.Zero(t, KellyFraction(0.1, 2.0))
}
