// Package market folds the trifecta permutation distribution into coarser
// derived markets. All folds repartition probability mass; they never create
// or destroy it.
package market

import (
	"sort"

	"github.com/yourusername/trifecta-engine/internal/models"
)

// sortedTriples returns the distribution's keys in lexicographic order so
// accumulation order, and therefore floating-point output, is deterministic.
func sortedTriples(dist models.PermutationProbability) []models.Triple {
	triples := make([]models.Triple, 0, len(dist))
	for t := range dist {
		triples = append(triples, t)
	}
	sort.Slice(triples, func(a, b int) bool {
		if triples[a].First != triples[b].First {
			return triples[a].First < triples[b].First
		}
		if triples[a].Second != triples[b].Second {
			return triples[a].Second < triples[b].Second
		}
		return triples[a].Third < triples[b].Third
	})
	return triples
}

// ToTrifecta converts the permutation distribution to external combination keys.
func ToTrifecta(dist models.PermutationProbability) models.MarketDistribution {
	return dist.ToMarket()
}

// ToTrio sums probability over the 6 permutations sharing the same 3-subset.
// Keys are sorted, e.g. "1-2-3" covers every ordering of entrants 1, 2 and 3.
func ToTrio(dist models.PermutationProbability) models.MarketDistribution {
	out := make(models.MarketDistribution)
	for _, triple := range sortedTriples(dist) {
		out[models.SortedTripleKey(triple.First, triple.Second, triple.Third)] += dist[triple]
	}
	return out
}

// ToExacta marginalizes the free third slot, yielding the ordered (1st, 2nd)
// pair distribution.
func ToExacta(dist models.PermutationProbability) models.MarketDistribution {
	out := make(models.MarketDistribution)
	for _, triple := range sortedTriples(dist) {
		out[models.OrderedPairKey(triple.First, triple.Second)] += dist[triple]
	}
	return out
}

// ToQuinella sums the two orderings of each exacta pair, yielding the
// order-insensitive top-two distribution.
func ToQuinella(dist models.PermutationProbability) models.MarketDistribution {
	out := make(models.MarketDistribution)
	for _, triple := range sortedTriples(dist) {
		out[models.SortedPairKey(triple.First, triple.Second)] += dist[triple]
	}
	return out
}

// Derive produces the distribution for the requested market.
func Derive(dist models.PermutationProbability, m models.Market) models.MarketDistribution {
	switch m {
	case models.MarketTrio:
		return ToTrio(dist)
	case models.MarketExacta:
		return ToExacta(dist)
	case models.MarketQuinella:
		return ToQuinella(dist)
	default:
		return ToTrifecta(dist)
	}
}
