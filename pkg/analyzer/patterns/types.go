package patterns

import "fmt"

// PatternType classifies the structural role of a code block.
type PatternType string

const (
	PatternAPIHandler  PatternType = "api-handler"
	PatternValidator   PatternType = "validator"
	PatternUtility     PatternType = "utility"
	PatternClassMethod PatternType = "class-method"
	PatternComponent   PatternType = "component"
	PatternFunction    PatternType = "function"
	PatternUnknown     PatternType = "unknown"
)

// String returns the string representation.
func (t PatternType) String() string {
	return string(t)
}

// Severity ranks how urgently a duplicate finding should be addressed.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// severityFor maps a group's representative similarity to a severity.
// Thresholds are strict: exactly 0.95 is major, exactly 0.90 is minor.
func severityFor(similarity float64) Severity {
	switch {
	case similarity > 0.95:
		return SeverityCritical
	case similarity > 0.90:
		return SeverityMajor
	default:
		return SeverityMinor
	}
}

// Block is one comparison unit: a function, method, or component body
// extracted from a source file. Blocks are created once per scan and
// never mutated afterwards.
type Block struct {
	ID          string
	FileName    string
	StartLine   int
	EndLine     int
	LineCount   int
	PatternType PatternType

	// Tokens is the normalized token multiset: interned token hash -> count.
	// Identifiers keep their identity; literals are folded to class tokens.
	Tokens map[uint64]uint32

	// TokenCount is the raw normalized token count, used for cost estimation.
	TokenCount int

	// Fingerprint is a content hash of the normalized token sequence,
	// used to recognize byte-identical blocks cheaply.
	Fingerprint uint64
}

// blockID builds the stable identifier for a block.
func blockID(file string, startLine, endLine int) string {
	return fmt.Sprintf("%s:%d-%d", file, startLine, endLine)
}

// less orders blocks canonically: by file, then start line, then end line.
// All pair canonicalization and tie-breaking in the engine derives from
// this ordering so results are independent of scheduling.
func (b *Block) less(other *Block) bool {
	if b.FileName != other.FileName {
		return b.FileName < other.FileName
	}
	if b.StartLine != other.StartLine {
		return b.StartLine < other.StartLine
	}
	return b.EndLine < other.EndLine
}

// Match is a candidate pair that scored at or above the similarity
// threshold. A and B index into the scan's canonical block slice, A < B.
type Match struct {
	A          int
	B          int
	Similarity float64
}

// Group is a maximal set of blocks connected transitively by matches.
type Group struct {
	// Members are indices into the canonical block slice, sorted.
	Members []int

	// RepresentativeSimilarity is the maximum similarity over the group's
	// internal match edges.
	RepresentativeSimilarity float64

	PatternType PatternType

	// TokenCost is the sum of member token counts minus the largest single
	// member: the tokens that keeping one canonical copy would save.
	TokenCost int
}

// Location identifies one member occurrence inside a reported group.
type Location struct {
	Path      string `json:"path"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// TopDuplicate is one entry of the report's ranked duplicate list.
type TopDuplicate struct {
	Similarity  float64    `json:"similarity"`
	PatternType string     `json:"patternType"`
	TokenCost   int        `json:"tokenCost"`
	Files       []Location `json:"files"`
}

// SimilarityStats summarizes the distribution of group similarities.
type SimilarityStats struct {
	Mean float64 `json:"mean"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
}

// Summary aggregates scan-level results.
type Summary struct {
	TotalBlocks     int              `json:"totalBlocks"`
	TotalPatterns   int              `json:"totalPatterns"`
	TotalTokenCost  int              `json:"totalTokenCost"`
	PatternsByType  map[string]int   `json:"patternsByType"`
	SimilarityStats *SimilarityStats `json:"similarityStats,omitempty"`
	TopDuplicates   []TopDuplicate   `json:"topDuplicates"`
}

// IssueLocation points at the first line of an offending block.
type IssueLocation struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Issue is one finding emitted for a block that participates in a group.
type Issue struct {
	Severity   Severity      `json:"severity"`
	Message    string        `json:"message"`
	Location   IssueLocation `json:"location"`
	Suggestion string        `json:"suggestion"`
}

// FileResult lists the issues found in a single file, ordered by line.
type FileResult struct {
	FileName string  `json:"fileName"`
	Issues   []Issue `json:"issues"`
}

// Report is the stable output contract consumed by callers.
type Report struct {
	Summary  Summary      `json:"summary"`
	Results  []FileResult `json:"results"`
	Warnings []string     `json:"warnings,omitempty"`

	// Partial is true when the scan was cancelled between batches; the
	// report is internally consistent but covers only the work completed.
	Partial bool `json:"partial,omitempty"`
}

// Config holds pattern detection configuration.
type Config struct {
	MinSimilarity         float64
	MinLines              int
	BatchSize             int
	Approx                bool
	MinSharedTokens       int
	MaxCandidatesPerBlock int
	StreamResults         bool
}

// DefaultConfig returns the default detection parameters.
func DefaultConfig() Config {
	return Config{
		MinSimilarity:         0.40,
		MinLines:              5,
		BatchSize:             100,
		Approx:                true,
		MinSharedTokens:       8,
		MaxCandidatesPerBlock: 100,
		StreamResults:         true,
	}
}

// Clamp folds out-of-range values to the nearest valid bound and returns a
// warning per adjustment. A slightly malformed config should degrade, not
// crash a CI run.
func (c *Config) Clamp() []string {
	var warnings []string

	if c.MinSimilarity < 0 {
		warnings = append(warnings, fmt.Sprintf("min_similarity %.2f below 0, clamped to 0", c.MinSimilarity))
		c.MinSimilarity = 0
	} else if c.MinSimilarity > 1 {
		warnings = append(warnings, fmt.Sprintf("min_similarity %.2f above 1, clamped to 1", c.MinSimilarity))
		c.MinSimilarity = 1
	}

	if c.MinLines < 1 {
		warnings = append(warnings, fmt.Sprintf("min_lines %d below 1, clamped to 1", c.MinLines))
		c.MinLines = 1
	}

	if c.BatchSize < 1 {
		warnings = append(warnings, fmt.Sprintf("batch_size %d below 1, clamped to 1", c.BatchSize))
		c.BatchSize = 1
	}

	if c.MinSharedTokens < 0 {
		warnings = append(warnings, fmt.Sprintf("min_shared_tokens %d below 0, clamped to 0", c.MinSharedTokens))
		c.MinSharedTokens = 0
	}

	if c.MaxCandidatesPerBlock < 1 {
		warnings = append(warnings, fmt.Sprintf("max_candidates_per_block %d below 1, clamped to 1", c.MaxCandidatesPerBlock))
		c.MaxCandidatesPerBlock = 1
	}

	return warnings
}
