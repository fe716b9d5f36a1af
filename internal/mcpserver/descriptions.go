package mcpserver

func describeDetectPatterns() string {
	return `Detects near-duplicate code patterns (functions, methods, components)
across the codebase and clusters them into duplicate groups.

USE WHEN:
- Finding copy-paste code that should be refactored
- Identifying candidates for shared utilities or abstractions
- Measuring how much redundant code an AI assistant must wade through
- Preparing for DRY (Don't Repeat Yourself) improvements

INTERPRETING RESULTS:
- Similarity: 0.0-1.0 token-level Jaccard, higher means more similar
- critical (> 0.95): near-identical copies, refactor first
- major (> 0.90): minor variations, likely copy-paste
- minor: related logic, consider abstraction
- tokenCost: redundant tokens a group adds beyond one canonical copy

METRICS RETURNED:
- summary: block/pattern counts, token cost, similarity stats
- topDuplicates: highest-cost groups with member locations
- results: per-file issues with severity and suggestion

Larger min_lines reduces noise from trivial duplicates.`
}

func describeEstimateContext() string {
	return `Estimates the token footprint of source files for LLM context
budgeting, using a chars-per-token heuristic tuned for code.

USE WHEN:
- Deciding whether a directory fits in a model context window
- Ranking files by context cost before assembling a prompt

INTERPRETING RESULTS:
- Estimates assume roughly 4 characters per token, typical for code
- Actual tokenizer counts vary by model; treat values as budgets, not exact

METRICS RETURNED:
- Per-file estimated tokens, sorted largest first
- Total estimated tokens across all scanned files`
}
