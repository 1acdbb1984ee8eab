package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-dev/codesearch/internal/indexmgr"
)

func TestIsTTYFalseForBuffer(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTTY(&buf))
}

func TestNewRendererReturnsPlainForNonTTY(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestNewRendererHonorsForcePlain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true)
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestPlainRendererReportsProgressAndErrors(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(&buf)
	require.NoError(t, r.Start())
	r.Update(indexmgr.Progress{TotalFiles: 2, ProcessedFiles: 1})
	require.NoError(t, r.Stop(indexmgr.Progress{
		TotalFiles:     2,
		ProcessedFiles: 2,
		Errors:         []indexmgr.FileError{{Path: "a.go", Err: assertError{}}},
	}))

	out := buf.String()
	assert.Contains(t, out, "indexing...")
	assert.Contains(t, out, "1/2 processed")
	assert.Contains(t, out, "done: 2/2 files, 1 error(s)")
	assert.Contains(t, out, "a.go")
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
