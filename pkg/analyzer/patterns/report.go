package patterns

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// assembleReport turns groups into the ordered, deterministic report.
// Ordering never depends on insertion order: groups sort by token cost,
// then representative similarity, then smallest member path; per-file
// issues sort by line.
func assembleReport(blocks []Block, groups []Group, warnings []string, partial bool) *Report {
	report := &Report{
		Summary: Summary{
			TotalBlocks:    len(blocks),
			TotalPatterns:  len(groups),
			PatternsByType: make(map[string]int),
			TopDuplicates:  make([]TopDuplicate, 0, len(groups)),
		},
		Results:  make([]FileResult, 0),
		Warnings: warnings,
		Partial:  partial,
	}

	ordered := make([]Group, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].TokenCost != ordered[j].TokenCost {
			return ordered[i].TokenCost > ordered[j].TokenCost
		}
		if ordered[i].RepresentativeSimilarity != ordered[j].RepresentativeSimilarity {
			return ordered[i].RepresentativeSimilarity > ordered[j].RepresentativeSimilarity
		}
		return smallestPath(blocks, ordered[i]) < smallestPath(blocks, ordered[j])
	})

	issuesByFile := make(map[string][]Issue)
	similarities := make([]float64, 0, len(ordered))

	for _, g := range ordered {
		report.Summary.TotalTokenCost += g.TokenCost
		report.Summary.PatternsByType[string(g.PatternType)]++
		similarities = append(similarities, g.RepresentativeSimilarity)

		top := TopDuplicate{
			Similarity:  g.RepresentativeSimilarity,
			PatternType: string(g.PatternType),
			TokenCost:   g.TokenCost,
			Files:       make([]Location, 0, len(g.Members)),
		}
		for _, idx := range g.Members {
			b := &blocks[idx]
			top.Files = append(top.Files, Location{
				Path:      b.FileName,
				StartLine: b.StartLine,
				EndLine:   b.EndLine,
			})
		}
		sort.Slice(top.Files, func(i, j int) bool {
			if top.Files[i].Path != top.Files[j].Path {
				return top.Files[i].Path < top.Files[j].Path
			}
			return top.Files[i].StartLine < top.Files[j].StartLine
		})
		report.Summary.TopDuplicates = append(report.Summary.TopDuplicates, top)

		severity := severityFor(g.RepresentativeSimilarity)
		for _, idx := range g.Members {
			b := &blocks[idx]
			issuesByFile[b.FileName] = append(issuesByFile[b.FileName], Issue{
				Severity:   severity,
				Message:    issueMessage(blocks, g, idx),
				Location:   IssueLocation{File: b.FileName, Line: b.StartLine},
				Suggestion: suggestionFor(g),
			})
		}
	}

	fileNames := make([]string, 0, len(issuesByFile))
	for name := range issuesByFile {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	for _, name := range fileNames {
		issues := issuesByFile[name]
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].Location.Line < issues[j].Location.Line
		})
		report.Results = append(report.Results, FileResult{FileName: name, Issues: issues})
	}

	if len(similarities) > 0 {
		sort.Float64s(similarities)
		report.Summary.SimilarityStats = &SimilarityStats{
			Mean: stat.Mean(similarities, nil),
			P50:  stat.Quantile(0.50, stat.Empirical, similarities, nil),
			P95:  stat.Quantile(0.95, stat.Empirical, similarities, nil),
		}
	}

	return report
}

// smallestPath returns the lexicographically smallest member file path,
// the final tie-breaker for group ordering.
func smallestPath(blocks []Block, g Group) string {
	smallest := ""
	for _, idx := range g.Members {
		if smallest == "" || blocks[idx].FileName < smallest {
			smallest = blocks[idx].FileName
		}
	}
	return smallest
}

// issueMessage describes one member's participation in a group, naming up
// to three of the other copies.
func issueMessage(blocks []Block, g Group, member int) string {
	others := make([]string, 0, len(g.Members)-1)
	for _, idx := range g.Members {
		if idx == member {
			continue
		}
		others = append(others, blocks[idx].ID)
	}

	shown := others
	suffix := ""
	if len(shown) > 3 {
		suffix = fmt.Sprintf(" and %d more", len(shown)-3)
		shown = shown[:3]
	}

	return fmt.Sprintf("Near-duplicate %s pattern (%.0f%% similar) also implemented at %s%s",
		g.PatternType, g.RepresentativeSimilarity*100, strings.Join(shown, ", "), suffix)
}

// suggestionFor proposes a remediation tuned to the pattern type.
func suggestionFor(g Group) string {
	copies := len(g.Members)
	switch g.PatternType {
	case PatternValidator:
		return fmt.Sprintf("Consolidate the %d validator copies into one shared validation helper", copies)
	case PatternAPIHandler:
		return fmt.Sprintf("Extract the shared handler logic into middleware or a common service used by all %d endpoints", copies)
	case PatternComponent:
		return fmt.Sprintf("Create one parameterized component and replace the %d near-identical variants", copies)
	case PatternClassMethod:
		return fmt.Sprintf("Move the shared behavior into a base class or mixin reused by the %d methods", copies)
	default:
		return fmt.Sprintf("Extract the duplicated logic into a single function and replace the %d copies with calls to it", copies)
	}
}
