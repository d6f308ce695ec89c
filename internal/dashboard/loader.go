package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader reads the dashboard document from disk.
type Loader struct {
	filePath    string
	examplePath string
}

// NewLoader creates a loader for filePath. examplePath may be empty.
func NewLoader(filePath, examplePath string) *Loader {
	return &Loader{
		filePath:    filePath,
		examplePath: examplePath,
	}
}

// Path returns the runtime document path.
func (l *Loader) Path() string { return l.filePath }

// EnsureFile makes sure the runtime document exists. When it is missing and the
// bundled example exists, the example is copied into place (directory created).
// It reports whether a copy happened.
func (l *Loader) EnsureFile() (bool, error) {
	if _, err := os.Stat(l.filePath); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if l.examplePath == "" {
		return false, fmt.Errorf("config file %s not found and no example configured", l.filePath)
	}

	data, err := os.ReadFile(l.examplePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("neither config file %s nor example %s exist", l.filePath, l.examplePath)
		}
		return false, fmt.Errorf("failed to read example config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.filePath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(l.filePath, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to copy example config: %w", err)
	}
	return true, nil
}

// Load reads and parses the document.
func (l *Loader) Load() (Document, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	return doc, nil
}
