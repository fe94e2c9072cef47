package selector

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/trifecta-engine/internal/models"
)

// Method identifies a stake allocation scheme.
type Method string

// Supported allocation methods
const (
	MethodEqual        Method = "equal"
	MethodProportional Method = "proportional"
	MethodKelly        Method = "kelly"
)

// DefaultKellyFraction is the damping applied to full Kelly stakes.
const DefaultKellyFraction = 0.25

// Allocator sizes stakes for a selected set of candidates under a budget.
// Stakes are rounded down to multiples of Unit, and the summed total never
// exceeds Budget.
type Allocator struct {
	Budget        float64
	Unit          float64
	KellyFraction float64
}

// NewAllocator creates an allocator with the given budget and tradable unit.
func NewAllocator(budget, unit, kellyFraction float64) *Allocator {
	if kellyFraction <= 0 {
		kellyFraction = DefaultKellyFraction
	}
	return &Allocator{Budget: budget, Unit: unit, KellyFraction: kellyFraction}
}

// Allocate computes a stake for each candidate using the requested method.
// An empty selection yields an empty list, not an error.
func (a *Allocator) Allocate(selected []Candidate, method Method) []models.BetRecommendation {
	if len(selected) == 0 {
		return []models.BetRecommendation{}
	}

	recommendations := make([]models.BetRecommendation, len(selected))
	for i, c := range selected {
		recommendations[i] = models.BetRecommendation{
			Combination:   c.Combination,
			Probability:   c.Probability,
			Odds:          c.Odds,
			ExpectedValue: c.ExpectedValue,
		}
	}

	switch method {
	case MethodProportional:
		a.allocateProportional(recommendations)
	case MethodKelly:
		a.allocateKelly(recommendations)
	default:
		a.allocateEqual(recommendations)
	}

	a.scaleToBudget(recommendations)
	return recommendations
}

func (a *Allocator) allocateEqual(recs []models.BetRecommendation) {
	per := a.Budget / float64(len(recs))
	for i := range recs {
		recs[i].Stake = a.roundToUnit(per)
	}
}

func (a *Allocator) allocateProportional(recs []models.BetRecommendation) {
	totalProb := 0.0
	for _, r := range recs {
		totalProb += r.Probability
	}
	if totalProb <= 0 {
		a.allocateEqual(recs)
		return
	}
	for i := range recs {
		recs[i].Stake = a.roundToUnit(a.Budget * recs[i].Probability / totalProb)
	}
}

// allocateKelly applies damped fractional Kelly sizing. Entries without a
// positive edge, or without usable odds, receive a zero stake.
func (a *Allocator) allocateKelly(recs []models.BetRecommendation) {
	for i := range recs {
		fraction := KellyFraction(recs[i].Probability, recs[i].Odds)
		if fraction <= 0 {
			recs[i].Stake = 0
			continue
		}
		recs[i].Stake = a.roundToUnit(fraction * a.KellyFraction * a.Budget)
	}
}

// KellyFraction returns the full Kelly fraction f* = (p*(odds-1) - (1-p)) / (odds-1).
// It is zero for odds <= 1 or a non-positive edge.
func KellyFraction(probability, odds float64) float64 {
	if probability <= 0 || odds <= 1 {
		return 0
	}
	b := odds - 1.0
	fraction := (b*probability - (1.0 - probability)) / b
	if fraction <= 0 {
		return 0
	}
	return fraction
}

// scaleToBudget proportionally shrinks all stakes when the total exceeds the
// budget, preserving the unit rounding.
func (a *Allocator) scaleToBudget(recs []models.BetRecommendation) {
	total := 0.0
	for _, r := range recs {
		total += r.Stake
	}
	if total <= a.Budget || total == 0 {
		return
	}
	factor := a.Budget / total
	for i := range recs {
		recs[i].Stake = a.roundToUnit(recs[i].Stake * factor)
	}
}

// roundToUnit rounds a stake down to the nearest tradable-unit multiple.
func (a *Allocator) roundToUnit(stake float64) float64 {
	if stake <= 0 || a.Unit <= 0 {
		return 0
	}
	unit := decimal.NewFromFloat(a.Unit)
	units := decimal.NewFromFloat(stake).Div(unit).Floor()
	rounded, _ := units.Mul(unit).Float64()
	return rounded
}
