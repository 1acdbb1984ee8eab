package indexerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage("STORE_WRITE", "failed to append vector", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, KindStorage, err.Kind)
	assert.True(t, IsFatal(err))
	assert.False(t, IsRetryable(err))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Model("EMBED_TIMEOUT", "embedding provider timed out", nil)
	sentinel := &Error{Code: "EMBED_TIMEOUT"}

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, IsRetryable(err))

	other := &Error{Code: "SOMETHING_ELSE"}
	assert.False(t, errors.Is(err, other))
}

func TestParseErrorsAreWarnings(t *testing.T) {
	err := Parse("PARSE_SYNTAX", "unexpected token", nil)
	assert.Equal(t, SeverityWarning, err.Severity)
	assert.False(t, IsFatal(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSearch, KindOf(Search("SEARCH_NOT_INDEXED", "project not indexed", nil)))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain error")))
}
