// Package loader reads keyline configuration sources into generic maps:
// TOML files, with @include support, and KEYLINE_ environment variables.
// The maps are merged with DeepMerge before they are decoded.
package loader

import (
	"os"
)

// Loader reads one configuration source.
type Loader interface {
	// Load returns the source's settings, or nil, nil if the source
	// does not exist.
	Load() (map[string]any, error)
}

// FileSystem reads configuration files. Tests substitute fstest.MapFS.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads files from the operating system.
type OSFS struct{}

// ReadFile reads the file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the operating system file system.
func DefaultFS() FileSystem {
	return OSFS{}
}
