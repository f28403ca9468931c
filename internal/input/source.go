// Package input opens raw genotype exports, transparently decompressing
// gzip inputs.
package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrNotFound is returned when the input path does not exist or cannot be read.
var ErrNotFound = errors.New("input not found")

// Source is a re-openable input stream. Each call to Open starts reading from
// the beginning of the decompressed content.
type Source interface {
	// Name returns the display name of the input (base file name).
	Name() string
	// Open returns a fresh reader over the decompressed content.
	Open() (io.ReadCloser, error)
}

// FileSource reads from a file on disk.
type FileSource struct {
	path       string
	compressed bool
}

// NewSource verifies that path is a readable regular file and detects gzip
// compression by ".gz" suffix or magic bytes.
func NewSource(path string) (*FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	defer file.Close()

	// Check for gzip magic number (0x1f, 0x8b)
	buf := make([]byte, 2)
	n, _ := io.ReadFull(file, buf)
	magic := n == 2 && buf[0] == 0x1f && buf[1] == 0x8b

	return &FileSource{
		path:       path,
		compressed: magic || strings.HasSuffix(strings.ToLower(path), ".gz"),
	}, nil
}

// Path returns the file path.
func (s *FileSource) Path() string { return s.path }

// Compressed reports whether the input is gzip-compressed.
func (s *FileSource) Compressed() bool { return s.compressed }

// Name returns the base file name.
func (s *FileSource) Name() string { return filepath.Base(s.path) }

// Stem returns the base file name without compression and format extensions.
func (s *FileSource) Stem() string {
	name := s.Name()
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		name = name[:len(name)-3]
	}
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	return name
}

// Open opens the file, wrapping it in a gzip reader when compressed.
func (s *FileSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, s.path, err)
	}
	if !s.compressed {
		return file, nil
	}

	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	return &gzipReadCloser{Reader: gz, file: file}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Close() error {
	g.Reader.Close()
	return g.file.Close()
}

// BytesSource serves in-memory content.
type BytesSource struct {
	name string
	data []byte
}

// NewBytesSource creates a source over data.
func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{name: name, data: data}
}

// Name returns the source name.
func (s *BytesSource) Name() string { return s.name }

// Open returns a reader over the buffered content.
func (s *BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}
