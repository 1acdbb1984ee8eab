package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RegistersAllSubcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"index", "search", "find", "status", "validate", "serve", "version"} {
		found, _, err := root.Find([]string{name})
		require.NoError(t, err, "expected %q to resolve", name)
		assert.Equal(t, name, found.Name())
	}
}

func TestRootCmd_HasPersistentFlags(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"json", "quiet", "limit", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "expected persistent flag %q", name)
	}
}

func TestRootCmd_VersionFlag(t *testing.T) {
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "codesearch version")
}
