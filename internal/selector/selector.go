// Package selector reduces a market probability distribution to a ranked
// subset of bet candidates and sizes a stake for each selected entry.
package selector

import (
	"sort"

	"github.com/yourusername/trifecta-engine/internal/models"
)

// Candidate represents one selectable combination with its selection inputs.
type Candidate struct {
	Combination   string  `json:"combination"`
	Probability   float64 `json:"probability"`
	Odds          float64 `json:"odds,omitempty"`
	ExpectedValue float64 `json:"expected_value,omitempty"`
}

// Selector defines the interface for bet selection policies.
type Selector interface {
	Name() string
	Select(dist models.MarketDistribution) []Candidate
}

// sortedCandidates returns all entries ordered by descending probability,
// ties broken by ascending combination key.
func sortedCandidates(dist models.MarketDistribution) []Candidate {
	candidates := make([]Candidate, 0, len(dist))
	for key, p := range dist {
		candidates = append(candidates, Candidate{Combination: key, Probability: p})
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].Probability != candidates[b].Probability {
			return candidates[a].Probability > candidates[b].Probability
		}
		return candidates[a].Combination < candidates[b].Combination
	})
	return candidates
}

// TopN selects the K highest-probability entries.
type TopN struct {
	K int
}

// Name returns the policy name
func (s TopN) Name() string { return "top_n" }

// Select returns min(K, |dist|) entries, each at least as probable as every
// unselected entry.
func (s TopN) Select(dist models.MarketDistribution) []Candidate {
	if s.K <= 0 {
		return nil
	}
	candidates := sortedCandidates(dist)
	if len(candidates) > s.K {
		candidates = candidates[:s.K]
	}
	return candidates
}

// Threshold selects every entry with probability at or above a floor.
type Threshold struct {
	MinProbability float64
}

// Name returns the policy name
func (s Threshold) Name() string { return "threshold" }

// Select returns all entries with probability >= MinProbability, descending.
func (s Threshold) Select(dist models.MarketDistribution) []Candidate {
	var selected []Candidate
	for _, c := range sortedCandidates(dist) {
		if c.Probability < s.MinProbability {
			break
		}
		selected = append(selected, c)
	}
	return selected
}

// Coverage selects the minimal descending-order prefix whose cumulative
// probability reaches a target.
type Coverage struct {
	Target float64
}

// Name returns the policy name
func (s Coverage) Name() string { return "coverage" }

// Select returns entries in descending order until cumulative probability
// first reaches Target. When total mass is below Target every entry is
// returned.
func (s Coverage) Select(dist models.MarketDistribution) []Candidate {
	var selected []Candidate
	cumulative := 0.0
	for _, c := range sortedCandidates(dist) {
		selected = append(selected, c)
		cumulative += c.Probability
		if cumulative >= s.Target {
			break
		}
	}
	return selected
}

// ExpectedValue selects entries whose edge against the quoted odds clears a
// minimum, gated by a probability floor.
type ExpectedValue struct {
	Odds             models.OddsTable
	MinExpectedValue float64
	MinProbability   float64
}

// Name returns the policy name
func (s ExpectedValue) Name() string { return "expected_value" }

// Select computes ev = probability*odds - 1 for entries present in the odds
// table, keeps those with ev >= MinExpectedValue and probability >=
// MinProbability, and sorts descending by ev. An empty odds table yields an
// empty selection.
func (s ExpectedValue) Select(dist models.MarketDistribution) []Candidate {
	if len(s.Odds) == 0 {
		return nil
	}
	var selected []Candidate
	for _, c := range sortedCandidates(dist) {
		odds, ok := s.Odds[c.Combination]
		if !ok || odds <= 0 {
			continue
		}
		ev := c.Probability*odds - 1.0
		if ev < s.MinExpectedValue || c.Probability < s.MinProbability {
			continue
		}
		c.Odds = odds
		c.ExpectedValue = ev
		selected = append(selected, c)
	}
	sort.Slice(selected, func(a, b int) bool {
		if selected[a].ExpectedValue != selected[b].ExpectedValue {
			return selected[a].ExpectedValue > selected[b].ExpectedValue
		}
		return selected[a].Combination < selected[b].Combination
	})
	return selected
}

// dynamicBands maps a confidence score to a bet count. Higher confidence
// concentrates the selection on fewer combinations.
var dynamicBands = []struct {
	minConfidence float64
	k             int
}{
	{0.80, 2},
	{0.60, 3},
	{0.40, 5},
	{0.00, 8},
}

// Dynamic maps a confidence score to a TopN width via a fixed lookup table.
type Dynamic struct {
	Confidence float64
}

// Name returns the policy name
func (s Dynamic) Name() string { return "dynamic" }

// Select resolves the bet count for the confidence score and delegates to TopN.
func (s Dynamic) Select(dist models.MarketDistribution) []Candidate {
	k := dynamicBands[len(dynamicBands)-1].k
	for _, band := range dynamicBands {
		if s.Confidence >= band.minConfidence {
			k = band.k
			break
		}
	}
	return TopN{K: k}.Select(dist)
}
