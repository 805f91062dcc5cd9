// Package manifest answers questions about the npm package a file belongs
// to.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const manifestName = "package.json"

// Package is the subset of package.json the optimizer cares about.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Typings string `json:"typings"`
	Types   string `json:"types"`

	// Dir is the directory holding the manifest.
	Dir string `json:"-"`
}

// HasTypings reports whether the package advertises type declarations.
func (p *Package) HasTypings() bool {
	return p != nil && (p.Typings != "" || p.Types != "")
}

// Lookup finds the nearest package.json of a file. Results are cached per
// directory and safe for concurrent use.
type Lookup struct {
	fs    afero.Fs
	mu    sync.Mutex
	cache map[string]*Package
}

// NewLookup creates a lookup reading from fs.
func NewLookup(fs afero.Fs) *Lookup {
	return &Lookup{
		fs:    fs,
		cache: make(map[string]*Package),
	}
}

// Nearest returns the package owning path, or nil when no package.json
// exists in any parent directory.
func (l *Lookup) Nearest(path string) (*Package, error) {
	dir := filepath.Dir(filepath.Clean(path))

	l.mu.Lock()
	defer l.mu.Unlock()

	var visited []string
	for {
		if pkg, ok := l.cache[dir]; ok {
			l.remember(visited, pkg)
			return pkg, nil
		}
		visited = append(visited, dir)

		pkg, err := l.read(dir)
		if err != nil {
			return nil, err
		}
		if pkg != nil {
			l.remember(visited, pkg)
			return pkg, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			l.remember(visited, nil)
			return nil, nil
		}
		dir = parent
	}
}

// HasTypings reports whether path belongs to a package with type
// declarations. Unreadable manifests count as no.
func (l *Lookup) HasTypings(path string) bool {
	pkg, err := l.Nearest(path)
	if err != nil {
		slog.Debug("failed to read package manifest", "file", path, "error", err)
		return false
	}
	return pkg.HasTypings()
}

func (l *Lookup) remember(dirs []string, pkg *Package) {
	for _, dir := range dirs {
		l.cache[dir] = pkg
	}
}

func (l *Lookup) read(dir string) (*Package, error) {
	path := filepath.Join(dir, manifestName)
	data, err := afero.ReadFile(l.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	pkg.Dir = dir

	return &pkg, nil
}
