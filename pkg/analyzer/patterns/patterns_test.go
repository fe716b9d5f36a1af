package patterns

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/caopengau/aiready/pkg/source"
)

// Two 13-line billing functions, identical except for the function name
// and one literal. Literal folding makes the constant irrelevant; the
// renamed identifier costs one token occurrence per side.
const invoiceA = `package billing

func computeInvoice(order Order) Invoice {
	subtotal := 0
	for _, item := range order.Items {
		subtotal += item.Price * item.Quantity
	}
	tax := subtotal * 8 / 100
	shipping := 12
	if subtotal > 500 {
		shipping = 0
	}
	total := subtotal + tax + shipping
	return Invoice{Subtotal: subtotal, Tax: tax, Shipping: shipping, Total: total}
}
`

const invoiceB = `package billing

func computeReceipt(order Order) Invoice {
	subtotal := 0
	for _, item := range order.Items {
		subtotal += item.Price * item.Quantity
	}
	tax := subtotal * 9 / 100
	shipping := 12
	if subtotal > 500 {
		shipping = 0
	}
	total := subtotal + tax + shipping
	return Invoice{Subtotal: subtotal, Tax: tax, Shipping: shipping, Total: total}
}
`

const validatorCode = `package check

func validateEmail(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return errors.New("email is required")
	}
	at := strings.IndexByte(trimmed, '@')
	if at <= 0 || at == len(trimmed)-1 {
		return errors.New("email is malformed")
	}
	if strings.ContainsAny(trimmed, " \t") {
		return errors.New("email contains whitespace")
	}
	return nil
}
`

func analyzeFiles(t *testing.T, a *Analyzer, files map[string]string) *Report {
	t.Helper()

	contents := make(map[string][]byte, len(files))
	paths := make([]string, 0, len(files))
	for path, code := range files {
		contents[path] = []byte(code)
		paths = append(paths, path)
	}

	report, err := a.Analyze(context.Background(), paths, source.NewMemory(contents))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return report
}

func TestAnalyze_RenamedNearDuplicate(t *testing.T) {
	a := New()
	report := analyzeFiles(t, a, map[string]string{
		"billing/invoice.go": invoiceA,
		"billing/receipt.go": invoiceB,
	})

	if report.Summary.TotalPatterns != 1 {
		t.Fatalf("TotalPatterns = %d, want 1", report.Summary.TotalPatterns)
	}

	dup := report.Summary.TopDuplicates[0]
	if dup.Similarity < 0.9 {
		t.Errorf("similarity = %.3f, want >= 0.9", dup.Similarity)
	}
	if dup.TokenCost <= 0 {
		t.Errorf("tokenCost = %d, want > 0", dup.TokenCost)
	}
	if len(dup.Files) != 2 {
		t.Errorf("group has %d members, want 2", len(dup.Files))
	}

	for _, fr := range report.Results {
		for _, issue := range fr.Issues {
			if issue.Severity != SeverityCritical && issue.Severity != SeverityMajor {
				t.Errorf("severity = %q, want critical or major", issue.Severity)
			}
		}
	}
}

func TestAnalyze_MinLinesExcludesShortFunctions(t *testing.T) {
	short := `package tiny

func pad(s string) string {
	spaced := " " + s
	return spaced + " "
}
`
	a := New(WithMinLines(5))
	report := analyzeFiles(t, a, map[string]string{
		"a.go": short,
		"b.go": short,
		"c.go": short,
	})

	if report.Summary.TotalBlocks != 0 {
		t.Errorf("TotalBlocks = %d, want 0", report.Summary.TotalBlocks)
	}
	if report.Summary.TotalPatterns != 0 {
		t.Errorf("TotalPatterns = %d, want 0", report.Summary.TotalPatterns)
	}
	if len(report.Results) != 0 {
		t.Errorf("Results has %d entries, want 0", len(report.Results))
	}
}

func TestAnalyze_ThreeValidatorsOneGroup(t *testing.T) {
	a := New()
	report := analyzeFiles(t, a, map[string]string{
		"users/validate.go":  validatorCode,
		"orders/validate.go": validatorCode,
		"admin/validate.go":  validatorCode,
	})

	if report.Summary.TotalPatterns != 1 {
		t.Fatalf("TotalPatterns = %d, want 1 group (not pairwise issues)", report.Summary.TotalPatterns)
	}

	dup := report.Summary.TopDuplicates[0]
	if len(dup.Files) != 3 {
		t.Errorf("group has %d members, want 3", len(dup.Files))
	}
	if dup.Similarity != 1.0 {
		t.Errorf("similarity = %.3f, want 1.0 for identical copies", dup.Similarity)
	}
	if dup.PatternType != string(PatternValidator) {
		t.Errorf("patternType = %q, want %q", dup.PatternType, PatternValidator)
	}
	if report.Summary.PatternsByType[string(PatternValidator)] != 1 {
		t.Errorf("patternsByType[validator] = %d, want 1", report.Summary.PatternsByType[string(PatternValidator)])
	}

	if len(report.Results) != 3 {
		t.Fatalf("Results has %d files, want 3", len(report.Results))
	}
	for _, fr := range report.Results {
		if len(fr.Issues) != 1 {
			t.Errorf("%s has %d issues, want 1", fr.FileName, len(fr.Issues))
			continue
		}
		if fr.Issues[0].Severity != SeverityCritical {
			t.Errorf("%s severity = %q, want critical", fr.FileName, fr.Issues[0].Severity)
		}
	}
}

func TestAnalyze_UnreadableFileDegradesWithWarning(t *testing.T) {
	a := New()

	contents := map[string][]byte{
		"billing/invoice.go": []byte(invoiceA),
		"billing/receipt.go": []byte(invoiceB),
	}
	paths := []string{"billing/invoice.go", "billing/receipt.go", "billing/missing.go"}

	report, err := a.Analyze(context.Background(), paths, source.NewMemory(contents))
	if err != nil {
		t.Fatalf("Analyze() error = %v, want degraded success", err)
	}

	if report.Summary.TotalPatterns != 1 {
		t.Errorf("TotalPatterns = %d, want 1", report.Summary.TotalPatterns)
	}

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "billing/missing.go") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want one mentioning billing/missing.go", report.Warnings)
	}
	if report.Partial {
		t.Error("Partial = true, want false for a completed scan")
	}
}

func TestAnalyze_ExactThresholdFindsNothingInexact(t *testing.T) {
	a := New(WithSimilarityThreshold(1.0))
	report := analyzeFiles(t, a, map[string]string{
		"billing/invoice.go": invoiceA,
		"billing/receipt.go": invoiceB,
	})

	if report.Summary.TotalPatterns != 0 {
		t.Errorf("TotalPatterns = %d, want 0 at threshold 1.0", report.Summary.TotalPatterns)
	}
	if len(report.Summary.TopDuplicates) != 0 {
		t.Errorf("TopDuplicates has %d entries, want 0", len(report.Summary.TopDuplicates))
	}
}

func TestAnalyze_NoFiles(t *testing.T) {
	a := New()
	_, err := a.Analyze(context.Background(), nil, source.NewMemory(nil))
	if err != ErrNoFiles {
		t.Errorf("Analyze() error = %v, want ErrNoFiles", err)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	files := map[string]string{
		"billing/invoice.go": invoiceA,
		"billing/receipt.go": invoiceB,
		"users/validate.go":  validatorCode,
		"orders/validate.go": validatorCode,
		"admin/validate.go":  validatorCode,
	}

	first, err := json.Marshal(analyzeFiles(t, New(), files))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(analyzeFiles(t, New(), files))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("two runs produced different JSON:\n%s\n%s", first, second)
	}
}

func TestAnalyze_IdempotentSummaryTotals(t *testing.T) {
	files := map[string]string{
		"billing/invoice.go": invoiceA,
		"billing/receipt.go": invoiceB,
		"users/validate.go":  validatorCode,
	}

	first := analyzeFiles(t, New(), files)
	second := analyzeFiles(t, New(), files)

	if first.Summary.TotalBlocks != second.Summary.TotalBlocks ||
		first.Summary.TotalPatterns != second.Summary.TotalPatterns ||
		first.Summary.TotalTokenCost != second.Summary.TotalTokenCost {
		t.Errorf("summary totals differ across runs: %+v vs %+v", first.Summary, second.Summary)
	}
}

func TestAnalyze_ApproxMatchesExhaustive(t *testing.T) {
	files := map[string]string{
		"billing/invoice.go": invoiceA,
		"billing/receipt.go": invoiceB,
		"users/validate.go":  validatorCode,
		"orders/validate.go": validatorCode,
	}

	approx := New(WithApprox(true))
	approx.config.MinSharedTokens = 0
	approx.config.MaxCandidatesPerBlock = 1 << 30

	exhaustive := New(WithApprox(false))

	approxJSON, err := json.Marshal(analyzeFiles(t, approx, files))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	exhaustiveJSON, err := json.Marshal(analyzeFiles(t, exhaustive, files))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if !bytes.Equal(approxJSON, exhaustiveJSON) {
		t.Errorf("approximate and exhaustive reports differ:\n%s\n%s", approxJSON, exhaustiveJSON)
	}
}

func TestAnalyze_ThresholdAndCostInvariants(t *testing.T) {
	a := New(WithSimilarityThreshold(0.6))
	report := analyzeFiles(t, a, map[string]string{
		"billing/invoice.go": invoiceA,
		"billing/receipt.go": invoiceB,
		"users/validate.go":  validatorCode,
		"orders/validate.go": validatorCode,
	})

	for _, dup := range report.Summary.TopDuplicates {
		if dup.Similarity < 0.6 {
			t.Errorf("similarity %.3f below threshold 0.6", dup.Similarity)
		}
		if dup.TokenCost < 0 {
			t.Errorf("tokenCost %d is negative", dup.TokenCost)
		}
	}
}

func TestAnalyze_CancelledContextReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	contents := map[string][]byte{
		"billing/invoice.go": []byte(invoiceA),
		"billing/receipt.go": []byte(invoiceB),
	}

	a := New()
	report, err := a.Analyze(ctx, []string{"billing/invoice.go", "billing/receipt.go"}, source.NewMemory(contents))
	if err != nil {
		t.Fatalf("Analyze() error = %v, want partial report", err)
	}

	if !report.Partial {
		t.Error("Partial = false, want true for a cancelled scan")
	}
	if report.Summary.TotalPatterns != 0 {
		t.Errorf("TotalPatterns = %d, want 0 when no batch completed", report.Summary.TotalPatterns)
	}
}

func TestAnalyzeWithProgress_Callbacks(t *testing.T) {
	contents := map[string][]byte{
		"users/validate.go":  []byte(validatorCode),
		"orders/validate.go": []byte(validatorCode),
	}

	stages := make(map[string]bool)
	var streamed []PartialMatch

	a := New()
	report, err := a.AnalyzeWithProgress(context.Background(),
		[]string{"users/validate.go", "orders/validate.go"},
		source.NewMemory(contents),
		func(processed, total int, stage string) {
			stages[stage] = true
			if processed > total {
				t.Errorf("progress %d exceeds total %d", processed, total)
			}
		},
		func(matches []PartialMatch) {
			streamed = append(streamed, matches...)
		},
	)
	if err != nil {
		t.Fatalf("AnalyzeWithProgress() error = %v", err)
	}

	if !stages[StageExtract] || !stages[StageScore] {
		t.Errorf("stages seen = %v, want both %q and %q", stages, StageExtract, StageScore)
	}
	if len(streamed) == 0 {
		t.Error("no matches streamed for a corpus with duplicates")
	}
	if report.Summary.TotalPatterns != 1 {
		t.Errorf("TotalPatterns = %d, want 1", report.Summary.TotalPatterns)
	}
}
