package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestProject creates a small Go source file under dir so the
// index command has something real to chunk and embed. The default
// embeddings provider is "static" (offline, deterministic), so these
// tests never touch the network.
func writeTestProject(t *testing.T, dir string) {
	t.Helper()
	src := `package mathutil

func AddNumbers(a, b int) int {
	return a + b
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math.go"), []byte(src), 0o644))
}
