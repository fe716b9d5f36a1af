package patterns

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// candidatePair proposes two blocks for scoring. a < b in canonical block
// order, so each unordered pair is generated exactly once.
type candidatePair struct {
	a, b   int
	shared int
}

// candidateIndex is the scan-scoped inverted index from token to the set
// of blocks containing it. It is built once, read-only afterwards, and
// discarded with the scan.
type candidateIndex struct {
	postings map[uint64]*roaring.Bitmap
}

// buildIndex indexes every block's distinct tokens. Zero-token blocks are
// skipped and therefore never produce candidates.
func buildIndex(blocks []Block) *candidateIndex {
	idx := &candidateIndex{
		postings: make(map[uint64]*roaring.Bitmap),
	}
	for i, b := range blocks {
		for tok := range b.Tokens {
			bm, ok := idx.postings[tok]
			if !ok {
				bm = roaring.New()
				idx.postings[tok] = bm
			}
			bm.Add(uint32(i))
		}
	}
	return idx
}

// candidatesFor gathers the blocks after i (canonical order) that share
// tokens with it, ranked by distinct shared-token count. Pairs sharing
// fewer than minShared tokens are pruned: similarity is bounded above by
// sharedTokens / min(|A|,|B|), so low-overlap pairs cannot reach any
// positive threshold. The list is capped at maxCandidates, dropping the
// lowest-overlap candidates first, ties kept in block order.
func (idx *candidateIndex) candidatesFor(blocks []Block, i int, minShared, maxCandidates int) []candidatePair {
	if len(blocks[i].Tokens) == 0 {
		return nil
	}

	// A pair must share at least one token to be scorable above zero.
	if minShared < 1 {
		minShared = 1
	}

	counts := make(map[uint32]int)
	for tok := range blocks[i].Tokens {
		it := idx.postings[tok].Iterator()
		it.AdvanceIfNeeded(uint32(i + 1))
		for it.HasNext() {
			counts[it.Next()]++
		}
	}

	pairs := make([]candidatePair, 0, len(counts))
	for j, shared := range counts {
		if shared >= minShared {
			pairs = append(pairs, candidatePair{a: i, b: int(j), shared: shared})
		}
	}

	sort.Slice(pairs, func(x, y int) bool {
		if pairs[x].shared != pairs[y].shared {
			return pairs[x].shared > pairs[y].shared
		}
		return pairs[x].b < pairs[y].b
	})

	if maxCandidates > 0 && len(pairs) > maxCandidates {
		pairs = pairs[:maxCandidates]
	}

	return pairs
}

// batchPairs proposes the candidate pairs for blocks in [start, end). A
// block's candidates depend only on the block itself and the shared index,
// so batch boundaries are a throughput control, never a correctness one.
func batchPairs(blocks []Block, idx *candidateIndex, start, end int, cfg Config) []candidatePair {
	var pairs []candidatePair

	for i := start; i < end; i++ {
		if cfg.Approx {
			pairs = append(pairs, idx.candidatesFor(blocks, i, cfg.MinSharedTokens, cfg.MaxCandidatesPerBlock)...)
			continue
		}
		// Exhaustive mode: every block pairs with every later block.
		for j := i + 1; j < len(blocks); j++ {
			pairs = append(pairs, candidatePair{a: i, b: j})
		}
	}

	return pairs
}
