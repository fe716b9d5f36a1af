package patterns

import "sort"

// jaccard computes multiset Jaccard similarity: the sum of per-token
// minimum counts over the sum of per-token maximum counts. The union size
// is derived as |A| + |B| - |A∩B| so only the intersection is walked.
func jaccard(a, b *Block) float64 {
	if a.TokenCount == 0 || b.TokenCount == 0 {
		return 0
	}

	// Token-identical blocks short-circuit to exact similarity.
	if a.Fingerprint == b.Fingerprint && a.TokenCount == b.TokenCount {
		return 1.0
	}

	small, large := a.Tokens, b.Tokens
	if len(small) > len(large) {
		small, large = large, small
	}

	var inter uint64
	for tok, count := range small {
		other, ok := large[tok]
		if !ok {
			continue
		}
		if other < count {
			inter += uint64(other)
		} else {
			inter += uint64(count)
		}
	}

	union := uint64(a.TokenCount) + uint64(b.TokenCount) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// scorePairs evaluates candidate pairs against the similarity threshold.
// Ties at exactly the threshold are included. The returned matches are
// sorted canonically so downstream processing is independent of the order
// candidates were proposed in.
func scorePairs(blocks []Block, pairs []candidatePair, minSimilarity float64) []Match {
	var matches []Match
	for _, p := range pairs {
		sim := jaccard(&blocks[p.a], &blocks[p.b])
		if sim >= minSimilarity {
			matches = append(matches, Match{A: p.a, B: p.b, Similarity: sim})
		}
	}

	sortMatches(matches)
	return matches
}

// sortMatches orders matches by their canonical pair indices.
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].A != matches[j].A {
			return matches[i].A < matches[j].A
		}
		return matches[i].B < matches[j].B
	})
}
