package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringIncludesVersion(t *testing.T) {
	assert.Contains(t, String(), Version)
}

func TestGetInfoReflectsPackageVars(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
}
