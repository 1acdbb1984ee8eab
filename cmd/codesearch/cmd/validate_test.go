package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCmd_PlatformChecksPass(t *testing.T) {
	testDir := t.TempDir()

	validateCmd := NewRootCmd()
	buf := &bytes.Buffer{}
	validateCmd.SetOut(buf)
	validateCmd.SetArgs([]string{"validate", "--validation-type", "platform", testDir})

	require.NoError(t, validateCmd.Execute())
	assert.Contains(t, buf.String(), "[ok]")
}

func TestValidateCmd_RejectsUnknownType(t *testing.T) {
	testDir := t.TempDir()

	validateCmd := NewRootCmd()
	validateCmd.SetOut(&bytes.Buffer{})
	validateCmd.SetErr(&bytes.Buffer{})
	validateCmd.SetArgs([]string{"validate", "--validation-type", "bogus", testDir})

	assert.Error(t, validateCmd.Execute())
}
