package patterns

import (
	"math"
	"sort"
	"testing"

	"github.com/cespare/xxhash/v2"
)

// tokenBlock builds a block from token text counts, interning the same
// way extraction does.
func tokenBlock(id string, counts map[string]uint32) Block {
	b := Block{ID: id, Tokens: make(map[uint64]uint32, len(counts))}
	texts := make([]string, 0, len(counts))
	for text := range counts {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	total := 0
	var ordered []uint64
	for _, text := range texts {
		n := counts[text]
		h := xxhash.Sum64String(text)
		b.Tokens[h] = n
		total += int(n)
		for i := uint32(0); i < n; i++ {
			ordered = append(ordered, h)
		}
	}
	b.TokenCount = total
	b.Fingerprint = fingerprint(ordered)
	return b
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]uint32
		want float64
	}{
		{
			name: "disjoint",
			a:    map[string]uint32{"x": 1, "y": 1},
			b:    map[string]uint32{"p": 1, "q": 1},
			want: 0,
		},
		{
			name: "multiset counts respected",
			a:    map[string]uint32{"a": 2, "b": 1},
			b:    map[string]uint32{"a": 1, "c": 1},
			want: 0.25, // inter 1, union 3+2-1
		},
		{
			name: "half overlap",
			a:    map[string]uint32{"a": 1, "b": 1},
			b:    map[string]uint32{"a": 1, "c": 1},
			want: 1.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tokenBlock("a", tt.a)
			b := tokenBlock("b", tt.b)
			got := jaccard(&a, &b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("jaccard() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJaccard_IdenticalBlocksShortCircuit(t *testing.T) {
	counts := map[string]uint32{"func": 1, "x": 3, "return": 1}
	a := tokenBlock("a", counts)
	b := tokenBlock("b", counts)

	if got := jaccard(&a, &b); got != 1.0 {
		t.Errorf("jaccard(identical) = %v, want exactly 1.0", got)
	}
}

func TestJaccard_EmptyBlocks(t *testing.T) {
	a := tokenBlock("a", nil)
	b := tokenBlock("b", map[string]uint32{"x": 1})

	if got := jaccard(&a, &b); got != 0 {
		t.Errorf("jaccard(empty, nonempty) = %v, want 0", got)
	}
}

func TestScorePairs_ThresholdIncludesTies(t *testing.T) {
	blocks := []Block{
		tokenBlock("a", map[string]uint32{"a": 1, "b": 1, "c": 1}),
		tokenBlock("b", map[string]uint32{"a": 1, "b": 1, "d": 1}),
	}
	// inter 2, union 4: similarity exactly 0.5
	pairs := []candidatePair{{a: 0, b: 1}}

	matches := scorePairs(blocks, pairs, 0.5)
	if len(matches) != 1 {
		t.Fatalf("got %d matches at exact threshold, want 1", len(matches))
	}
	if matches[0].Similarity != 0.5 {
		t.Errorf("similarity = %v, want 0.5", matches[0].Similarity)
	}

	matches = scorePairs(blocks, pairs, 0.51)
	if len(matches) != 0 {
		t.Errorf("got %d matches above threshold, want 0", len(matches))
	}
}
