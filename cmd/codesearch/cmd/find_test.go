package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCmd_ExactMatchReturnsSymbol(t *testing.T) {
	testDir := t.TempDir()
	writeTestProject(t, testDir)
	chdir(t, testDir)

	indexCmd := NewRootCmd()
	indexCmd.SetOut(&bytes.Buffer{})
	indexCmd.SetArgs([]string{"index", "."})
	require.NoError(t, indexCmd.Execute())

	findCmd := NewRootCmd()
	buf := &bytes.Buffer{}
	findCmd.SetOut(buf)
	findCmd.SetArgs([]string{"--json", "find", "AddNumbers", "--exact"})
	require.NoError(t, findCmd.Execute())
	assert.Contains(t, buf.String(), "AddNumbers")
}

func TestFindCmd_RequiresSymbolArgument(t *testing.T) {
	findCmd := NewRootCmd()
	findCmd.SetOut(&bytes.Buffer{})
	findCmd.SetErr(&bytes.Buffer{})
	findCmd.SetArgs([]string{"find"})
	assert.Error(t, findCmd.Execute())
}
