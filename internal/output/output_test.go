package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-dev/codesearch/internal/search"
)

func TestWriteSearchJSONMatchesContract(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)

	results := []search.Result{
		{FilePath: "math.py", StartLine: 1, EndLine: 3, Score: 0.91, MatchType: search.SemanticMatch, SymbolName: "fibonacci"},
	}
	require.NoError(t, f.WriteSearch("fibonacci function", results))

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "fibonacci function", resp.Query)
	assert.Equal(t, 1, resp.TotalResults)
	assert.Equal(t, "math.py", resp.Results[0].FilePath)
	assert.Equal(t, "SemanticMatch", resp.Results[0].ResultType)
}

func TestWriteFindJSONMatchesContract(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, true)

	results := []search.Result{
		{FilePath: "engine.go", StartLine: 10, EndLine: 20, Score: 1.0, MatchType: search.ExactSymbolMatch, SymbolName: "SearchEngine"},
	}
	require.NoError(t, f.WriteFind("SearchEngine", results))

	var resp FindResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "SearchEngine", resp.Symbol)
	assert.Equal(t, "ExactSymbolMatch", resp.Results[0].ResultType)
}

func TestWriteSearchTextReportsNoResults(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)
	require.NoError(t, f.WriteSearch("nothing", nil))
	assert.Contains(t, buf.String(), "no results")
}

func TestWriteSearchTextIncludesSnippet(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, false)
	results := []search.Result{
		{FilePath: "a.go", StartLine: 1, EndLine: 1, Score: 0.5, MatchType: search.KeywordMatch, Snippet: "func main() {}"},
	}
	require.NoError(t, f.WriteSearch("main", results))
	assert.Contains(t, buf.String(), "func main() {}")
}
