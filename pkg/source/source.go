// Package source abstracts where file content is read from, so analyzers
// can run against the filesystem or in-memory trees interchangeably.
package source

import (
	"fmt"
	"os"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MemorySource serves content from an in-memory map, keyed by path.
// Useful for tests and for scanning content that never touches disk.
type MemorySource struct {
	files map[string][]byte
}

// NewMemory creates a source backed by the given path -> content map.
func NewMemory(files map[string][]byte) *MemorySource {
	return &MemorySource{files: files}
}

// Read implements ContentSource.
func (m *MemorySource) Read(path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return content, nil
}
