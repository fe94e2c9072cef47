package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Triple is an ordered finishing triple of internal (0-based) indices.
type Triple struct {
	First  int
	Second int
	Third  int
}

// Key returns the external hyphen-joined 1-indexed combination key, e.g. "1-2-3".
func (t Triple) Key() string {
	return fmt.Sprintf("%d-%d-%d", t.First+1, t.Second+1, t.Third+1)
}

// PermutationProbability maps ordered finishing triples to probabilities.
type PermutationProbability map[Triple]float64

// Total returns the summed probability mass.
func (p PermutationProbability) Total() float64 {
	total := 0.0
	for _, v := range p {
		total += v
	}
	return total
}

// ToMarket converts the distribution to external combination keys.
func (p PermutationProbability) ToMarket() MarketDistribution {
	dist := make(MarketDistribution, len(p))
	for t, v := range p {
		dist[t.Key()] = v
	}
	return dist
}

// MarketDistribution maps external combination keys ("a-b" or "a-b-c") to probabilities.
type MarketDistribution map[string]float64

// Total returns the summed probability mass.
func (m MarketDistribution) Total() float64 {
	total := 0.0
	for _, v := range m {
		total += v
	}
	return total
}

// OrderedPairKey builds the external key for an ordered (1st, 2nd) pair.
func OrderedPairKey(first, second int) string {
	return fmt.Sprintf("%d-%d", first+1, second+1)
}

// SortedPairKey builds the order-insensitive external key for two entrants.
func SortedPairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a+1, b+1)
}

// SortedTripleKey builds the order-insensitive external key for three entrants.
func SortedTripleKey(a, b, c int) string {
	nums := []int{a + 1, b + 1, c + 1}
	sort.Ints(nums)
	return fmt.Sprintf("%d-%d-%d", nums[0], nums[1], nums[2])
}

// ParseCombination parses a hyphen-joined combination key into internal indices.
func ParseCombination(key string) ([]int, error) {
	parts := strings.Split(key, "-")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCombination, key)
	}
	indices := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCombination, key)
		}
		indices[i] = n - 1
	}
	return indices, nil
}
