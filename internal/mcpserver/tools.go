package mcpserver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/caopengau/aiready/internal/output"
	"github.com/caopengau/aiready/pkg/analyzer/patterns"
	"github.com/caopengau/aiready/pkg/config"
	"github.com/caopengau/aiready/pkg/scanner"
	"github.com/caopengau/aiready/pkg/source"
)

// DetectPatternsInput configures the near-duplicate detection tool.
type DetectPatternsInput struct {
	Paths         []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	MinLines      int      `json:"min_lines,omitempty" jsonschema:"Minimum lines for a block to be considered. Default 5."`
	MinSimilarity float64  `json:"min_similarity,omitempty" jsonschema:"Similarity threshold (0.0-1.0). Default 0.4."`
	Exhaustive    bool     `json:"exhaustive,omitempty" jsonschema:"Compare every block pair instead of using the candidate index."`
	FullResults   bool     `json:"full_results,omitempty" jsonschema:"Include per-file issues, not just the summary."`
}

// EstimateContextInput configures the context estimation tool.
type EstimateContextInput struct {
	Paths []string `json:"paths,omitempty" jsonschema:"Paths to scan. Defaults to current directory if empty."`
	Top   int      `json:"top,omitempty" jsonschema:"Show top N files by token count. Default 20."`
}

func getPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

func scanPaths(cfg *config.Config, paths []string) ([]string, error) {
	scan := scanner.NewScanner(cfg)
	var files []string
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		found, err := scan.ScanDir(absPath)
		if err != nil {
			if errors.Is(err, scanner.ErrNoFiles) {
				continue
			}
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, scanner.ErrNoFiles
	}
	return files, nil
}

func toolResult(data any) (*mcp.CallToolResult, any, error) {
	text, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func handleDetectPatterns(ctx context.Context, req *mcp.CallToolRequest, input DetectPatternsInput) (*mcp.CallToolResult, any, error) {
	cfg := config.LoadOrDefault()
	if input.MinLines > 0 {
		cfg.Patterns.MinLines = input.MinLines
	}
	if input.MinSimilarity > 0 {
		cfg.Patterns.MinSimilarity = input.MinSimilarity
	}
	if input.Exhaustive {
		cfg.Patterns.Approx = false
	}

	files, err := scanPaths(cfg, getPaths(input.Paths))
	if err != nil {
		return toolError(err.Error())
	}

	a := patterns.New(patterns.WithConfig(cfg.Patterns))
	report, err := a.Analyze(ctx, files, source.NewFilesystem())
	if err != nil {
		return toolError(err.Error())
	}

	if !input.FullResults {
		out := struct {
			Summary  patterns.Summary `json:"summary" toon:"summary"`
			Warnings []string         `json:"warnings,omitempty" toon:"warnings,omitempty"`
			Partial  bool             `json:"partial" toon:"partial"`
		}{report.Summary, report.Warnings, report.Partial}
		return toolResult(out)
	}

	return toolResult(report)
}

type fileTokens struct {
	Path   string `json:"path" toon:"path"`
	Tokens int    `json:"tokens" toon:"tokens"`
}

func handleEstimateContext(ctx context.Context, req *mcp.CallToolRequest, input EstimateContextInput) (*mcp.CallToolResult, any, error) {
	cfg := config.LoadOrDefault()

	files, err := scanPaths(cfg, getPaths(input.Paths))
	if err != nil {
		return toolError(err.Error())
	}

	top := input.Top
	if top <= 0 {
		top = 20
	}

	var entries []fileTokens
	total := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		tokens := output.EstimateTokens(string(data))
		total += tokens
		entries = append(entries, fileTokens{Path: path, Tokens: tokens})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Tokens != entries[j].Tokens {
			return entries[i].Tokens > entries[j].Tokens
		}
		return entries[i].Path < entries[j].Path
	})
	if len(entries) > top {
		entries = entries[:top]
	}

	out := struct {
		Files       []fileTokens `json:"files" toon:"files"`
		TotalTokens int          `json:"totalTokens" toon:"totalTokens"`
		TotalFiles  int          `json:"totalFiles" toon:"totalFiles"`
	}{entries, total, len(files)}

	return toolResult(out)
}
