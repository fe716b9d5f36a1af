package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/caopengau/aiready/internal/output"
	"github.com/caopengau/aiready/internal/progress"
	"github.com/caopengau/aiready/pkg/analyzer/patterns"
	"github.com/caopengau/aiready/pkg/config"
	"github.com/caopengau/aiready/pkg/scanner"
	"github.com/caopengau/aiready/pkg/source"
)

func patternsCmd() *cli.Command {
	return &cli.Command{
		Name:      "patterns",
		Aliases:   []string{"dup", "duplicates"},
		Usage:     "Detect near-duplicate code patterns",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "min-similarity",
				Value: 0.40,
				Usage: "Similarity threshold (0.0-1.0)",
			},
			&cli.IntFlag{
				Name:  "min-lines",
				Value: 5,
				Usage: "Minimum lines for a block to be considered",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Value: 100,
				Usage: "Blocks scored per batch",
			},
			&cli.BoolFlag{
				Name:  "exhaustive",
				Usage: "Compare every block pair instead of using the candidate index",
			},
			&cli.IntFlag{
				Name:  "min-shared-tokens",
				Value: 8,
				Usage: "Minimum distinct tokens two blocks must share to become candidates",
			},
			&cli.IntFlag{
				Name:  "max-candidates",
				Value: 100,
				Usage: "Maximum candidates considered per block",
			},
			&cli.BoolFlag{
				Name:  "no-stream",
				Usage: "Buffer all matches instead of streaming them per batch",
			},
			&cli.Int64Flag{
				Name:  "max-file-size",
				Value: 1 << 20,
				Usage: "Skip files larger than this many bytes",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Glob of file names to include (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Glob of file names to exclude (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "fail-on-duplicates",
				Usage: "Exit with code 1 when any duplicate group is found",
			},
		},
		Action: runPatternsCmd,
	}
}

func loadPatternsConfig(c *cli.Context) (*config.Config, []string, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	p := &cfg.Patterns
	if c.IsSet("min-similarity") {
		p.MinSimilarity = c.Float64("min-similarity")
	}
	if c.IsSet("min-lines") {
		p.MinLines = c.Int("min-lines")
	}
	if c.IsSet("batch-size") {
		p.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("exhaustive") {
		p.Approx = !c.Bool("exhaustive")
	}
	if c.IsSet("min-shared-tokens") {
		p.MinSharedTokens = c.Int("min-shared-tokens")
	}
	if c.IsSet("max-candidates") {
		p.MaxCandidatesPerBlock = c.Int("max-candidates")
	}
	if c.IsSet("no-stream") {
		p.StreamResults = !c.Bool("no-stream")
	}
	if c.IsSet("include") {
		p.Include = c.StringSlice("include")
	}
	if c.IsSet("exclude") {
		p.Exclude = c.StringSlice("exclude")
	}

	warnings := cfg.Normalize()
	return cfg, warnings, nil
}

func runPatternsCmd(c *cli.Context) error {
	cfg, configWarnings, err := loadPatternsConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	for _, w := range configWarnings {
		color.Yellow("Warning: %s", w)
	}

	scan := scanner.NewScanner(cfg)
	var files []string
	for _, path := range getPaths(c) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid path %s: %v", path, err), 2)
		}
		found, err := scan.ScanDir(absPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to scan %s: %v", path, err), 2)
		}
		files = append(files, found...)
	}

	// Cancel cleanly between batches on interrupt; the report comes
	// back marked partial instead of being lost.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := patterns.New(
		patterns.WithConfig(cfg.Patterns),
		patterns.WithMaxFileSize(c.Int64("max-file-size")),
	)

	var onProgress patterns.ProgressFunc
	var tracker *progress.Tracker
	if isTextFormat(c) && c.String("output") == "" {
		tracker = progress.NewTracker("Detecting patterns...", len(files))
		onProgress = tracker.Update
	}

	var onStream patterns.StreamFunc
	if c.Bool("verbose") && cfg.Patterns.StreamResults {
		onStream = func(matches []patterns.PartialMatch) {
			for _, m := range matches {
				fmt.Fprintf(os.Stderr, "match %.0f%% %s ~ %s\n", m.Similarity*100, m.A, m.B)
			}
		}
	}

	report, err := a.AnalyzeWithProgress(ctx, files, source.NewFilesystem(), onProgress, onStream)
	if tracker != nil {
		tracker.FinishSuccess()
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("analysis failed: %v", err), 2)
	}

	if err := renderPatternsReport(c, cfg, report); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if report.Partial {
		color.Yellow("Scan interrupted: results cover only the completed batches")
	}
	for _, w := range report.Warnings {
		color.Yellow("Warning: %s", w)
	}

	if c.Bool("fail-on-duplicates") && report.Summary.TotalPatterns > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func isTextFormat(c *cli.Context) bool {
	return output.ParseFormat(c.String("format")) == output.FormatText
}

func renderPatternsReport(c *cli.Context, cfg *config.Config, report *patterns.Report) error {
	colored := cfg.Output.Color && !c.Bool("no-color")
	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), colored)
	if err != nil {
		return err
	}
	defer formatter.Close()

	// JSON and TOON carry the full report contract.
	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatToon {
		return formatter.Output(report)
	}

	if report.Summary.TotalPatterns == 0 {
		if formatter.Format() == output.FormatText {
			formatter.Success("No duplicate patterns found above %.0f%% similarity", cfg.Patterns.MinSimilarity*100)
			return nil
		}
		return formatter.Output(report)
	}

	doc := &output.Document{
		Title: "Duplicate Patterns",
		Sections: []output.Renderable{
			summarySection(report),
			topDuplicatesTable(report, formatter.Colored()),
			issuesTable(report, formatter.Colored()),
		},
		Data: report,
	}

	if c.Bool("verbose") && formatter.Format() == output.FormatText {
		if encoded, err := json.Marshal(report); err == nil {
			formatter.Info("Report context cost: ~%s tokens",
				output.FormatTokenCount(output.EstimateTokens(string(encoded))))
		}
	}

	return formatter.Output(doc)
}

func summarySection(report *patterns.Report) output.Renderable {
	content := fmt.Sprintf(
		"Blocks analyzed: %d\nDuplicate groups: %d\nRedundant tokens: %s",
		report.Summary.TotalBlocks,
		report.Summary.TotalPatterns,
		output.FormatTokenCount(report.Summary.TotalTokenCost),
	)
	if s := report.Summary.SimilarityStats; s != nil {
		content += fmt.Sprintf("\nSimilarity mean/p50/p95: %.2f / %.2f / %.2f", s.Mean, s.P50, s.P95)
	}
	for _, pt := range sortedPatternTypes(report.Summary.PatternsByType) {
		content += fmt.Sprintf("\n  %s: %d", pt, report.Summary.PatternsByType[pt])
	}
	return &output.Section{Title: "Summary", Content: content, Data: report.Summary}
}

func sortedPatternTypes(byType map[string]int) []string {
	keys := make([]string, 0, len(byType))
	for k := range byType {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func topDuplicatesTable(report *patterns.Report, colored bool) output.Renderable {
	var rows [][]string
	for _, dup := range report.Summary.TopDuplicates {
		simStr := fmt.Sprintf("%.0f%%", dup.Similarity*100)
		if colored {
			if dup.Similarity > 0.95 {
				simStr = color.RedString(simStr)
			} else if dup.Similarity > 0.90 {
				simStr = color.YellowString(simStr)
			}
		}

		first := dup.Files[0]
		rows = append(rows, []string{
			fmt.Sprintf("%s:%d-%d", first.Path, first.StartLine, first.EndLine),
			fmt.Sprintf("%d", len(dup.Files)),
			dup.PatternType,
			simStr,
			output.FormatTokenCount(dup.TokenCost),
		})
	}

	return output.NewTable(
		"Top Duplicates",
		[]string{"Representative", "Copies", "Type", "Similarity", "Token Cost"},
		rows,
		[]string{
			fmt.Sprintf("Groups: %d", report.Summary.TotalPatterns),
			"", "", "",
			fmt.Sprintf("Total: %s", output.FormatTokenCount(report.Summary.TotalTokenCost)),
		},
		report.Summary.TopDuplicates,
	)
}

func issuesTable(report *patterns.Report, colored bool) output.Renderable {
	var rows [][]string
	for _, fr := range report.Results {
		for _, issue := range fr.Issues {
			sev := string(issue.Severity)
			if colored {
				sev = output.SeverityColor(sev, sev)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%s:%d", issue.Location.File, issue.Location.Line),
				sev,
				issue.Message,
			})
		}
	}

	return output.NewTable(
		"Issues",
		[]string{"Location", "Severity", "Message"},
		rows,
		nil,
		report.Results,
	)
}
