package patterns

import "sort"

// unionFind is an arena-of-indices disjoint set with path compression and
// union by size, giving near-linear clustering over the match graph.
type unionFind struct {
	parent []int32
	size   []int32
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int32, n),
		size:   make([]int32, n),
	}
	for i := range uf.parent {
		uf.parent[i] = int32(i)
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int32) int32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int32) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}

// buildGroups merges matches into connected components. Pairwise matches
// alone would emit k-choose-2 findings for k copies of the same snippet;
// clustering yields one finding per duplicated pattern with aggregate cost.
func buildGroups(blocks []Block, matches []Match) []Group {
	if len(matches) == 0 {
		return nil
	}

	uf := newUnionFind(len(blocks))
	for _, m := range matches {
		uf.union(int32(m.A), int32(m.B))
	}

	memberships := make(map[int32][]int)
	seen := make(map[int]bool)
	for _, m := range matches {
		for _, idx := range [2]int{m.A, m.B} {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			root := uf.find(int32(idx))
			memberships[root] = append(memberships[root], idx)
		}
	}

	// Representative similarity is the MAX over internal edges: it answers
	// "how bad is the worst redundancy here", which is what severity gates
	// care about.
	maxEdge := make(map[int32]float64)
	for _, m := range matches {
		root := uf.find(int32(m.A))
		if m.Similarity > maxEdge[root] {
			maxEdge[root] = m.Similarity
		}
	}

	groups := make([]Group, 0, len(memberships))
	for root, members := range memberships {
		sort.Ints(members)

		types := make([]PatternType, len(members))
		totalTokens, largest := 0, 0
		for i, idx := range members {
			types[i] = blocks[idx].PatternType
			totalTokens += blocks[idx].TokenCount
			if blocks[idx].TokenCount > largest {
				largest = blocks[idx].TokenCount
			}
		}

		groups = append(groups, Group{
			Members:                  members,
			RepresentativeSimilarity: maxEdge[root],
			PatternType:              dominantType(types),
			// Keeping one canonical copy eliminates every member but the
			// largest; non-negative because a group has at least 2 members.
			TokenCost: totalTokens - largest,
		})
	}

	// Canonical group order: by first member index. Report-level ordering
	// re-sorts by cost; this keeps intermediate output stable.
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Members[0] < groups[j].Members[0]
	})

	return groups
}
