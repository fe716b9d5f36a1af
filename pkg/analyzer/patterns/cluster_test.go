package patterns

import (
	"reflect"
	"testing"
)

func costBlock(id string, tokens int, pt PatternType) Block {
	return Block{ID: id, FileName: id, TokenCount: tokens, PatternType: pt}
}

func TestBuildGroups_TransitiveClosure(t *testing.T) {
	blocks := []Block{
		costBlock("a", 100, PatternValidator),
		costBlock("b", 90, PatternValidator),
		costBlock("c", 80, PatternFunction),
		costBlock("d", 70, PatternUtility),
	}
	// a~b and b~c chain into one component; d is untouched.
	matches := []Match{
		{A: 0, B: 1, Similarity: 0.92},
		{A: 1, B: 2, Similarity: 0.96},
	}

	groups := buildGroups(blocks, matches)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	g := groups[0]
	if !reflect.DeepEqual(g.Members, []int{0, 1, 2}) {
		t.Errorf("members = %v, want [0 1 2]", g.Members)
	}
	if g.RepresentativeSimilarity != 0.96 {
		t.Errorf("representative similarity = %v, want max edge 0.96", g.RepresentativeSimilarity)
	}
	if g.PatternType != PatternValidator {
		t.Errorf("patternType = %v, want validator (majority)", g.PatternType)
	}
	// Keeping the 100-token copy eliminates the 90 and 80 token copies.
	if g.TokenCost != 170 {
		t.Errorf("tokenCost = %d, want 170", g.TokenCost)
	}
}

func TestBuildGroups_SeparateComponents(t *testing.T) {
	blocks := []Block{
		costBlock("a", 50, PatternFunction),
		costBlock("b", 50, PatternFunction),
		costBlock("c", 40, PatternUtility),
		costBlock("d", 40, PatternUtility),
	}
	matches := []Match{
		{A: 0, B: 1, Similarity: 1.0},
		{A: 2, B: 3, Similarity: 0.91},
	}

	groups := buildGroups(blocks, matches)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	if !reflect.DeepEqual(groups[0].Members, []int{0, 1}) {
		t.Errorf("first group = %v, want [0 1]", groups[0].Members)
	}
	if !reflect.DeepEqual(groups[1].Members, []int{2, 3}) {
		t.Errorf("second group = %v, want [2 3]", groups[1].Members)
	}
	if groups[0].TokenCost != 50 || groups[1].TokenCost != 40 {
		t.Errorf("token costs = %d, %d; want 50, 40", groups[0].TokenCost, groups[1].TokenCost)
	}
}

func TestBuildGroups_NoMatches(t *testing.T) {
	blocks := []Block{costBlock("a", 10, PatternFunction)}
	if groups := buildGroups(blocks, nil); groups != nil {
		t.Errorf("got %v, want nil for no matches", groups)
	}
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(6)
	uf.union(0, 1)
	uf.union(2, 3)
	uf.union(1, 2)

	if uf.find(0) != uf.find(3) {
		t.Error("0 and 3 should share a root after chained unions")
	}
	if uf.find(4) == uf.find(0) {
		t.Error("4 should remain its own component")
	}
	if uf.find(4) == uf.find(5) {
		t.Error("4 and 5 were never united")
	}
}
