// Package output renders search and find results as either
// human-readable text or the stable JSON contract CLI consumers depend
// on. The MCP server uses its own result types.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/codesearch-dev/codesearch/internal/search"
)

// ResultJSON is one scored hit in the JSON response shape.
type ResultJSON struct {
	FilePath    string  `json:"file_path"`
	StartLine   int     `json:"start_line"`
	EndLine     int     `json:"end_line"`
	Score       float64 `json:"score"`
	ResultType  string  `json:"result_type"`
	CodeSnippet string  `json:"code_snippet,omitempty"`
	Symbols     string  `json:"symbols,omitempty"`
	ChunkType   string  `json:"chunk_type,omitempty"`
}

// SearchResponse is the JSON envelope for `search`.
type SearchResponse struct {
	Query        string       `json:"query"`
	TotalResults int          `json:"total_results"`
	Results      []ResultJSON `json:"results"`
}

// FindResponse is the JSON envelope for `find`.
type FindResponse struct {
	Symbol       string       `json:"symbol"`
	TotalResults int          `json:"total_results"`
	Results      []ResultJSON `json:"results"`
}

// Formatter writes result sets to w in one of two modes.
type Formatter struct {
	w    io.Writer
	json bool
}

// New creates a Formatter. When asJSON is false, results are rendered
// as aligned human-readable text; otherwise as the stable JSON
// contract.
func New(w io.Writer, asJSON bool) *Formatter {
	return &Formatter{w: w, json: asJSON}
}

func toResultJSON(r search.Result) ResultJSON {
	return ResultJSON{
		FilePath:    r.FilePath,
		StartLine:   r.StartLine,
		EndLine:     r.EndLine,
		Score:       r.Score,
		ResultType:  string(r.MatchType),
		CodeSnippet: r.Snippet,
		Symbols:     r.SymbolName,
		ChunkType:   string(r.ChunkType),
	}
}

// WriteSearch renders the results of a search query.
func (f *Formatter) WriteSearch(query string, results []search.Result) error {
	rows := make([]ResultJSON, len(results))
	for i, r := range results {
		rows[i] = toResultJSON(r)
	}
	if f.json {
		return f.encode(SearchResponse{Query: query, TotalResults: len(rows), Results: rows})
	}
	return f.writeText(fmt.Sprintf("search %q", query), rows)
}

// WriteFind renders the results of a symbol find.
func (f *Formatter) WriteFind(symbol string, results []search.Result) error {
	rows := make([]ResultJSON, len(results))
	for i, r := range results {
		rows[i] = toResultJSON(r)
	}
	if f.json {
		return f.encode(FindResponse{Symbol: symbol, TotalResults: len(rows), Results: rows})
	}
	return f.writeText(fmt.Sprintf("find %q", symbol), rows)
}

func (f *Formatter) encode(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *Formatter) writeText(header string, rows []ResultJSON) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintf(f.w, "%s: no results\n", header)
		return err
	}
	if _, err := fmt.Fprintf(f.w, "%s: %d result(s)\n", header, len(rows)); err != nil {
		return err
	}
	for _, r := range rows {
		loc := fmt.Sprintf("%s:%d-%d", r.FilePath, r.StartLine, r.EndLine)
		if _, err := fmt.Fprintf(f.w, "  [%.3f] %-12s %s", r.Score, r.ResultType, loc); err != nil {
			return err
		}
		if r.Symbols != "" {
			if _, err := fmt.Fprintf(f.w, "  (%s)", r.Symbols); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(f.w); err != nil {
			return err
		}
		if r.CodeSnippet != "" {
			for _, line := range strings.Split(r.CodeSnippet, "\n") {
				if _, err := fmt.Fprintf(f.w, "      %s\n", line); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
