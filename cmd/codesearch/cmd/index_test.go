package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-dev/codesearch/internal/config"
)

func TestIndexCmd_CreatesIndexDirectory(t *testing.T) {
	testDir := t.TempDir()
	writeTestProject(t, testDir)

	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"index", testDir})

	require.NoError(t, root.Execute())
	assert.FileExists(t, filepath.Join(testDir, config.IndexDirName, "metadata.db"))
	assert.FileExists(t, filepath.Join(testDir, config.IndexDirName, "vectors.dat"))
}

func TestIndexCmd_JSONOutputReportsFilesProcessed(t *testing.T) {
	testDir := t.TempDir()
	writeTestProject(t, testDir)

	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"--json", "index", testDir})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), `"files_processed"`)
}

func TestIndexCmd_ForceRebuildsFromScratch(t *testing.T) {
	testDir := t.TempDir()
	writeTestProject(t, testDir)

	first := NewRootCmd()
	first.SetOut(&bytes.Buffer{})
	first.SetArgs([]string{"index", testDir})
	require.NoError(t, first.Execute())

	second := NewRootCmd()
	buf := &bytes.Buffer{}
	second.SetOut(buf)
	second.SetArgs([]string{"index", "--force", testDir})
	require.NoError(t, second.Execute())
}
