// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/caopengau/aiready/pkg/parser"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects per-file errors across workers.
type ProcessingErrors struct {
	mu     sync.Mutex
	errors []ProcessingError
}

// Add appends an error to the collection. Safe for concurrent use.
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.errors = append(e.errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// All returns the collected errors.
func (e *ProcessingErrors) All() []ProcessingError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ProcessingError(nil), e.errors...)
}

// HasErrors reports whether any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.errors) == 0 {
		return "no errors"
	}
	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.errors), e.errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker
// count. 2x suits the mixed I/O and CGO parsing workload.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// ErrorFunc is called when a file fails processing. If nil, the failure is
// silently skipped.
type ErrorFunc func(path string, err error)

// MapFiles processes files in parallel, calling fn for each file with a
// dedicated parser. Results come back in arbitrary order.
func MapFiles[T any](files []string, fn func(*parser.Parser, string) (T, error)) []T {
	return MapFilesN(files, 0, fn, nil, nil)
}

// MapFilesN processes files with configurable worker count and callbacks.
// maxWorkers <= 0 defaults to 2x NumCPU. Each task gets its own parser;
// tree-sitter parsers are not safe for concurrent use.
func MapFilesN[T any](files []string, maxWorkers int, fn func(*parser.Parser, string) (T, error), onProgress ProgressFunc, onError ErrorFunc) []T {
	if len(files) == 0 {
		return nil
	}

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	results := make([]T, 0, len(files))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for _, path := range files {
		p.Go(func() {
			psr := parser.New()
			defer psr.Close()

			result, err := fn(psr, path)
			if onProgress != nil {
				onProgress()
			}
			if err != nil {
				if onError != nil {
					onError(path, err)
				}
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}
