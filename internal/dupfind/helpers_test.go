package dupfind

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// writeFile creates root/rel with content, including parent directories.
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// countingFs counts Open calls.
type countingFs struct {
	afero.Fs

	opens atomic.Int64
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.opens.Add(1)

	return c.Fs.Open(name)
}

// failingFs fails Open for selected paths.
type failingFs struct {
	afero.Fs

	mu   sync.Mutex
	fail map[string]error
}

func (f *failingFs) Open(name string) (afero.File, error) {
	f.mu.Lock()
	err, ok := f.fail[name]
	f.mu.Unlock()

	if ok {
		return nil, err
	}

	return f.Fs.Open(name)
}

func groupPaths(g DuplicateGroup) []string {
	paths := make([]string, 0, len(g.Files))
	for _, f := range g.Files {
		paths = append(paths, f.Path)
	}

	return paths
}
