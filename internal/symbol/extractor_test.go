package symbol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractGoFunctions(t *testing.T) {
	src := []byte(`package main

func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}
`)

	e := NewExtractor()
	defer e.Close()

	symbols, err := e.Extract(context.Background(), src, "go")
	require.NoError(t, err)
	require.Len(t, symbols, 2)
	assert.Equal(t, "Add", symbols[0].Name)
	assert.Equal(t, "Sub", symbols[1].Name)
	for _, s := range symbols {
		assert.Greater(t, s.EndByte, s.StartByte)
		assert.GreaterOrEqual(t, s.EndLine, s.StartLine)
	}
}

func TestExtractUnsupportedLanguageReturnsNoSymbols(t *testing.T) {
	e := NewExtractor()
	defer e.Close()

	symbols, err := e.Extract(context.Background(), []byte("whatever"), "cobol")
	require.NoError(t, err)
	assert.Nil(t, symbols)
}

func TestLanguageForPath(t *testing.T) {
	registry := DefaultRegistry()

	lang, ok := LanguageForPath(registry, "src/utils.rs")
	require.True(t, ok)
	assert.Equal(t, "rust", lang)

	_, ok = LanguageForPath(registry, "README")
	assert.False(t, ok)
}
