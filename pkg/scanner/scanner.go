package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/caopengau/aiready/pkg/config"
	"github.com/caopengau/aiready/pkg/parser"
)

// ErrNoFiles is returned when a scan finds nothing to analyze.
var ErrNoFiles = fmt.Errorf("no source files found")

// Scanner finds source files in a directory.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from both config and .gitignore files.
// Config patterns are parsed as gitignore patterns and combined with .gitignore files.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	for _, dir := range s.config.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(dir+"/", nil))
	}

	// ReadPatterns recursively collects every .gitignore in the tree.
	if s.config.Exclude.Gitignore {
		gitRoot := findGitRoot(root)
		if gitRoot != "" {
			gitFS := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(gitFS, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// isExcluded checks if a path matches any exclusion pattern.
func (s *Scanner) isExcluded(relPath string, isDir bool) bool {
	if !isDir {
		ext := filepath.Ext(relPath)
		for _, excludeExt := range s.config.Exclude.Extensions {
			if ext == excludeExt {
				return true
			}
		}
	}

	if len(s.matchers) > 0 {
		pathParts := strings.Split(relPath, string(filepath.Separator))
		for _, m := range s.matchers {
			if m.Match(pathParts, isDir) {
				return true
			}
		}
	}

	if isDir {
		return false
	}
	return !s.matchesPatternGlobs(relPath)
}

// matchesPatternGlobs applies the patterns.include / patterns.exclude
// globs from the config. An empty include list admits everything.
func (s *Scanner) matchesPatternGlobs(relPath string) bool {
	base := filepath.Base(relPath)
	for _, glob := range s.config.Patterns.Exclude {
		if matched, _ := filepath.Match(glob, base); matched {
			return false
		}
		if matched, _ := filepath.Match(glob, relPath); matched {
			return false
		}
	}
	if len(s.config.Patterns.Include) == 0 {
		return true
	}
	for _, glob := range s.config.Patterns.Include {
		if matched, _ := filepath.Match(glob, base); matched {
			return true
		}
		if matched, _ := filepath.Match(glob, relPath); matched {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for source files in a supported
// language. Uses filepath.WalkDir for better performance (avoids stat
// calls) and validates that symlinked paths stay within the root.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if !info.IsDir() {
		ok, err := s.ScanFile(root)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoFiles
		}
		return []string{root}, nil
	}

	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if path != root && s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) {
			return nil
		}
		if parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, path)
		}

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	return files, nil
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}

	return true
}

// ScanFile checks if a single file should be analyzed.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	if info.IsDir() {
		return false, nil
	}

	if len(s.matchers) == 0 {
		s.loadExcludePatterns(filepath.Dir(path))
	}

	if s.isExcluded(filepath.Base(path), false) {
		return false, nil
	}

	return parser.DetectLanguage(path) != parser.LangUnknown, nil
}
