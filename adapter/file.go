package adapter

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrInvalidPath is returned by Open when no usable output path was resolved
var ErrInvalidPath = errors.New("invalid printer file path")

// FileAdapter writes printer output to a file on disk, standing in for a
// physical printer. Existing content is never truncated.
type FileAdapter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewFileAdapter creates a file sink for the given path. The file is not
// touched until Open.
func NewFileAdapter(path string) *FileAdapter {
	return &FileAdapter{path: path}
}

// Path returns the output path
func (a *FileAdapter) Path() string {
	return a.path
}

// Open opens the file in append mode, creating it if absent
func (a *FileAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file != nil {
		return ErrAlreadyOpen
	}

	// a one character path is what an unset configuration entry degrades to
	if len(strings.TrimSpace(a.path)) <= 1 {
		return fmt.Errorf("%w: %q", ErrInvalidPath, a.path)
	}

	f, err := os.OpenFile(a.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open printer file: %w", err)
	}

	a.file = f
	return nil
}

// Write appends data to the file
func (a *FileAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return 0, ErrNotOpen
	}

	n, err := a.file.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}

	return n, nil
}

// Close closes the file. Closing an already closed adapter is a no-op.
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}

	err := a.file.Close()
	a.file = nil
	if err != nil {
		return fmt.Errorf("failed to close printer file: %w", err)
	}

	return nil
}

// IsOpen returns whether the file is open
func (a *FileAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file != nil
}
