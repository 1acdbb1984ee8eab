package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func collect(t *testing.T, opts Options) []string {
	t.Helper()
	s := New()
	results, err := s.Scan(context.Background(), opts)
	require.NoError(t, err)

	var paths []string
	for r := range results {
		require.NoError(t, r.Err)
		paths = append(paths, r.File.Path)
	}
	sort.Strings(paths)
	return paths
}

func TestScanSkipsDefaultExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), []byte("package main\n"))
	writeFile(t, filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main\n"))
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), []byte("module.exports = {}\n"))

	paths := collect(t, Options{RootDir: root})
	assert.Equal(t, []string{"main.go"}, paths)
}

func TestScanSkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "text.go"), []byte("package main\n"))
	writeFile(t, filepath.Join(root, "blob.bin"), []byte{0x00, 0x01, 0x02, 0x03})

	// No NUL byte, but mostly control bytes: caught by the
	// non-printable-ratio check rather than the NUL check.
	controlHeavy := make([]byte, 20)
	for i := range controlHeavy {
		controlHeavy[i] = 0x01
	}
	writeFile(t, filepath.Join(root, "control.dat"), controlHeavy)

	paths := collect(t, Options{RootDir: root})
	assert.Equal(t, []string{"text.go"}, paths)
}

func TestIsBinaryDetectsNulByte(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	writeFile(t, path, []byte{'a', 'b', 0x00, 'c'})

	binary, err := isBinary(path)
	require.NoError(t, err)
	assert.True(t, binary)
}

func TestIsBinaryDetectsHighNonPrintableRatioWithoutNul(t *testing.T) {
	path := filepath.Join(t.TempDir(), "control.dat")
	content := append([]byte{0x01, 0x02, 0x03, 0x04}, []byte("ok")...)
	writeFile(t, path, content)

	binary, err := isBinary(path)
	require.NoError(t, err)
	assert.True(t, binary)
}

func TestIsBinaryAllowsTabsAndNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.go")
	writeFile(t, path, []byte("package main\n\nfunc main() {\n\treturn\n}\n"))

	binary, err := isBinary(path)
	require.NoError(t, err)
	assert.False(t, binary)
}

func TestScanSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.go"), []byte("package main\n"))
	writeFile(t, filepath.Join(root, "big.go"), make([]byte, 100))

	paths := collect(t, Options{RootDir: root, MaxFileSize: 50})
	assert.Equal(t, []string{"small.go"}, paths)
}

func TestScanRespectsExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), []byte("package main\n"))
	writeFile(t, filepath.Join(root, "main_test.go"), []byte("package main\n"))

	paths := collect(t, Options{RootDir: root, ExcludeGlobs: []string{"*_test.go"}})
	assert.Equal(t, []string{"main.go"}, paths)
}

func TestScanRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), []byte("package main\n"))
	writeFile(t, filepath.Join(root, "dist", "bundle.js"), []byte("console.log(1)\n"))
	writeFile(t, filepath.Join(root, ".gitignore"), []byte("dist/\n"))

	paths := collect(t, Options{RootDir: root, RespectGitignore: true})
	assert.Equal(t, []string{".gitignore", "main.go"}, paths)
}

func TestScanDetectsLanguageByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib.rs"), []byte("fn main() {}\n"))

	s := New()
	results, err := s.Scan(context.Background(), Options{RootDir: root})
	require.NoError(t, err)

	var found bool
	for r := range results {
		require.NoError(t, r.Err)
		if r.File.Path == "lib.rs" {
			found = true
			assert.Equal(t, "rust", r.File.Language)
		}
	}
	assert.True(t, found)
}
