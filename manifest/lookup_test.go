package manifest

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, filepath.FromSlash(path), []byte(content), 0o644))
}

func TestNearest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/app/package.json", `{"name": "app", "version": "1.0.0"}`)
	writeFile(t, fs, "/app/node_modules/@disco3/core/package.json",
		`{"name": "@disco3/core", "version": "9.1.0", "typings": "./core.d.ts"}`)

	lookup := NewLookup(fs)

	pkg, err := lookup.Nearest(filepath.FromSlash("/app/node_modules/@disco3/core/fesm2015/core.js"))
	require.NoError(t, err)
	require.NotNil(t, pkg)
	assert.Equal(t, "@disco3/core", pkg.Name)
	assert.Equal(t, "9.1.0", pkg.Version)
	assert.Equal(t, filepath.FromSlash("/app/node_modules/@disco3/core"), pkg.Dir)

	pkg, err = lookup.Nearest(filepath.FromSlash("/app/src/main.js"))
	require.NoError(t, err)
	assert.Equal(t, "app", pkg.Name)

	pkg, err = lookup.Nearest(filepath.FromSlash("/elsewhere/main.js"))
	require.NoError(t, err)
	assert.Nil(t, pkg)
}

func TestHasTypings(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/nm/typed/package.json", `{"name": "typed", "typings": "index.d.ts"}`)
	writeFile(t, fs, "/nm/types/package.json", `{"name": "types", "types": "index.d.ts"}`)
	writeFile(t, fs, "/nm/plain/package.json", `{"name": "plain"}`)
	writeFile(t, fs, "/nm/broken/package.json", `{"name": `)

	lookup := NewLookup(fs)

	assert.True(t, lookup.HasTypings(filepath.FromSlash("/nm/typed/index.js")))
	assert.True(t, lookup.HasTypings(filepath.FromSlash("/nm/types/lib/deep/index.js")))
	assert.False(t, lookup.HasTypings(filepath.FromSlash("/nm/plain/index.js")))
	assert.False(t, lookup.HasTypings(filepath.FromSlash("/nm/broken/index.js")))
	assert.False(t, lookup.HasTypings(filepath.FromSlash("/nowhere/index.js")))

	_, err := lookup.Nearest(filepath.FromSlash("/nm/broken/index.js"))
	assert.Error(t, err)
}

func TestNearestCachesByDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/pkg/package.json", `{"name": "pkg", "types": "a.d.ts"}`)

	lookup := NewLookup(fs)
	pkg, err := lookup.Nearest(filepath.FromSlash("/pkg/a/b/c.js"))
	require.NoError(t, err)
	require.NotNil(t, pkg)

	require.NoError(t, fs.Remove(filepath.FromSlash("/pkg/package.json")))

	cached, err := lookup.Nearest(filepath.FromSlash("/pkg/a/other.js"))
	require.NoError(t, err)
	assert.Same(t, pkg, cached)
}

func TestLookupIsSafeForConcurrentUse(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/pkg/package.json", `{"name": "pkg", "types": "a.d.ts"}`)
	lookup := NewLookup(fs)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, lookup.HasTypings(filepath.FromSlash("/pkg/src/index.js")))
		}()
	}
	wg.Wait()
}
