// Package patterns detects groups of near-duplicate code blocks across a
// codebase and quantifies the context-window cost of keeping the copies.
package patterns

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/caopengau/aiready/internal/fileproc"
	"github.com/caopengau/aiready/pkg/config"
	"github.com/caopengau/aiready/pkg/parser"
	"github.com/caopengau/aiready/pkg/source"
)

// ErrNoFiles is returned when a scan has nothing to analyze. Callers must
// be able to distinguish this from a clean scan that found no duplicates.
var ErrNoFiles = errors.New("no readable source files to analyze")

// Stage labels reported through ProgressFunc.
const (
	StageExtract = "extract"
	StageScore   = "score"
)

// ProgressFunc receives best-effort progress updates. Implementations must
// not block; the engine never waits on the callback.
type ProgressFunc func(processed, total int, stage string)

// PartialMatch is one above-threshold pair streamed as its batch
// completes. Groups are only final after clustering, so streaming works at
// match granularity.
type PartialMatch struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Similarity float64 `json:"similarity"`
}

// StreamFunc receives each completed batch's matches.
type StreamFunc func(matches []PartialMatch)

// Analyzer detects near-duplicate code patterns using an inverted
// candidate index and multiset Jaccard scoring.
type Analyzer struct {
	config        Config
	maxFileSize   int64
	clampWarnings []string
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithMinLines sets the minimum block size considered.
func WithMinLines(minLines int) Option {
	return func(a *Analyzer) {
		a.config.MinLines = minLines
	}
}

// WithSimilarityThreshold sets the duplicate similarity threshold.
func WithSimilarityThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		a.config.MinSimilarity = threshold
	}
}

// WithApprox toggles approximate candidate filtering. Disabling it scores
// every block against every other block.
func WithApprox(approx bool) Option {
	return func(a *Analyzer) {
		a.config.Approx = approx
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// WithConfig sets all detection parameters from the app config.
func WithConfig(cfg config.PatternConfig) Option {
	return func(a *Analyzer) {
		a.config = Config{
			MinSimilarity:         cfg.MinSimilarity,
			MinLines:              cfg.MinLines,
			BatchSize:             cfg.BatchSize,
			Approx:                cfg.Approx,
			MinSharedTokens:       cfg.MinSharedTokens,
			MaxCandidatesPerBlock: cfg.MaxCandidatesPerBlock,
			StreamResults:         cfg.StreamResults,
		}
	}
}

// New creates an analyzer. Out-of-range settings are clamped to the
// nearest valid bound; the adjustments surface as report warnings rather
// than failing the scan.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.clampWarnings = a.config.Clamp()
	return a
}

// Analyze runs a full scan over the given files.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src source.ContentSource) (*Report, error) {
	return a.AnalyzeWithProgress(ctx, files, src, nil, nil)
}

// AnalyzeWithProgress runs a scan with optional progress and streaming
// callbacks. Cancellation is checked between batches: a cancelled scan
// returns a well-formed partial report, never a torn one.
func (a *Analyzer) AnalyzeWithProgress(ctx context.Context, files []string, src source.ContentSource, onProgress ProgressFunc, onStream StreamFunc) (*Report, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	warnings := append([]string(nil), a.clampWarnings...)

	blocks, extractWarnings := a.extractAll(files, src, onProgress)
	warnings = append(warnings, extractWarnings...)

	// Canonical order: everything downstream (pair direction, tie-breaks,
	// clustering) derives from this, making results independent of worker
	// scheduling.
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].less(&blocks[j])
	})

	matches, partial := a.scoreAll(ctx, blocks, onProgress, onStream)
	groups := buildGroups(blocks, matches)

	return assembleReport(blocks, groups, warnings, partial), nil
}

// extractAll parses files in parallel and flattens the resulting blocks.
// Per-file failures degrade the scan instead of aborting it.
func (a *Analyzer) extractAll(files []string, src source.ContentSource, onProgress ProgressFunc) ([]Block, []string) {
	var processed atomic.Int64
	total := len(files)

	var warnMu sync.Mutex
	var warnings []string

	perFile := fileproc.MapFilesN(files, 0, func(psr *parser.Parser, path string) ([]Block, error) {
		content, err := src.Read(path)
		if err != nil {
			return nil, err
		}
		if a.maxFileSize > 0 && int64(len(content)) > a.maxFileSize {
			return nil, nil
		}

		lang := parser.DetectLanguage(path)
		if lang == parser.LangUnknown {
			return nil, nil
		}

		result, err := psr.Parse(content, lang, path)
		if err != nil {
			return nil, err
		}

		return extractBlocks(result, a.config.MinLines), nil
	}, func() {
		if onProgress != nil {
			onProgress(int(processed.Add(1)), total, StageExtract)
		} else {
			processed.Add(1)
		}
	}, func(path string, err error) {
		warnMu.Lock()
		warnings = append(warnings, fmt.Sprintf("skipped %s: %v", path, err))
		warnMu.Unlock()
	})

	var blocks []Block
	for _, fb := range perFile {
		blocks = append(blocks, fb...)
	}

	sort.Strings(warnings)
	return blocks, warnings
}

// scoreAll proposes and scores candidate pairs in batches. The index is
// built once and only read afterwards; batch boundaries control memory,
// not results.
func (a *Analyzer) scoreAll(ctx context.Context, blocks []Block, onProgress ProgressFunc, onStream StreamFunc) ([]Match, bool) {
	if len(blocks) < 2 {
		return nil, false
	}

	var idx *candidateIndex
	if a.config.Approx {
		idx = buildIndex(blocks)
	}

	var matches []Match
	partial := false

	for start := 0; start < len(blocks); start += a.config.BatchSize {
		if ctx != nil && ctx.Err() != nil {
			partial = true
			break
		}

		end := start + a.config.BatchSize
		if end > len(blocks) {
			end = len(blocks)
		}

		pairs := batchPairs(blocks, idx, start, end, a.config)
		batchMatches := a.scoreConcurrent(blocks, pairs)
		matches = append(matches, batchMatches...)

		if a.config.StreamResults && onStream != nil && len(batchMatches) > 0 {
			onStream(toPartialMatches(blocks, batchMatches))
		}
		if onProgress != nil {
			onProgress(end, len(blocks), StageScore)
		}
	}

	sortMatches(matches)
	return matches, partial
}

// scoreConcurrent fans pair scoring out over a worker pool. Chunk results
// are re-sorted canonically, so worker count never affects output.
func (a *Analyzer) scoreConcurrent(blocks []Block, pairs []candidatePair) []Match {
	if len(pairs) == 0 {
		return nil
	}

	workers := runtime.NumCPU()
	chunkSize := (len(pairs) + workers - 1) / workers

	var mu sync.Mutex
	var matches []Match

	p := pool.New().WithMaxGoroutines(workers)
	for start := 0; start < len(pairs); start += chunkSize {
		end := start + chunkSize
		if end > len(pairs) {
			end = len(pairs)
		}
		chunk := pairs[start:end]
		p.Go(func() {
			scored := scorePairs(blocks, chunk, a.config.MinSimilarity)
			if len(scored) == 0 {
				return
			}
			mu.Lock()
			matches = append(matches, scored...)
			mu.Unlock()
		})
	}
	p.Wait()

	sortMatches(matches)
	return matches
}

func toPartialMatches(blocks []Block, matches []Match) []PartialMatch {
	out := make([]PartialMatch, len(matches))
	for i, m := range matches {
		out[i] = PartialMatch{
			A:          blocks[m.A].ID,
			B:          blocks[m.B].ID,
			Similarity: m.Similarity,
		}
	}
	return out
}
