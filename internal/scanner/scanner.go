package scanner

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/codesearch-dev/codesearch/internal/config"
	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

// sniffSize is how many leading bytes are inspected to decide whether a
// file is binary.
const sniffSize = 512

// Scanner discovers indexable files under a project root.
type Scanner struct{}

// New creates a Scanner.
func New() *Scanner {
	return &Scanner{}
}

// Scan walks opts.RootDir and streams one Result per candidate file.
// The returned channel is closed once the walk completes or ctx is
// canceled. Directories that are excluded are pruned entirely rather
// than merely having their contents skipped.
func (s *Scanner) Scan(ctx context.Context, opts Options) (<-chan Result, error) {
	absRoot, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, indexerr.IO("SCAN_ABS_PATH", "failed to resolve project root", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, indexerr.IO("SCAN_ROOT_STAT", "failed to stat project root", err)
	}
	if !info.IsDir() {
		return nil, indexerr.Config("SCAN_ROOT_NOT_DIR", "project root is not a directory", nil)
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	out := make(chan Result, 64)
	go func() {
		defer close(out)
		matcher := newGitignoreMatcher()
		s.walk(ctx, absRoot, absRoot, opts, matcher, maxSize, out)
	}()
	return out, nil
}

func (s *Scanner) walk(ctx context.Context, root, dir string, opts Options, matcher *gitignoreMatcher, maxSize int64, out chan<- Result) {
	if opts.RespectGitignore {
		relDir := relSlash(root, dir)
		_ = matcher.loadFile(filepath.Join(dir, ".gitignore"), relDir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		select {
		case out <- Result{Err: indexerr.IO("SCAN_READDIR", "failed to read directory "+dir, err)}:
		case <-ctx.Done():
		}
		return
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		absPath := filepath.Join(dir, entry.Name())
		relPath := relSlash(root, absPath)

		if entry.IsDir() {
			if isDefaultExcludedDir(entry.Name()) || matchesAnyGlob(opts.ExcludeGlobs, relPath, entry.Name()) {
				continue
			}
			if opts.RespectGitignore && matcher.match(relPath, true) {
				continue
			}
			s.walk(ctx, root, absPath, opts, matcher, maxSize, out)
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}
		if matchesAnyGlob(opts.ExcludeGlobs, relPath, entry.Name()) {
			continue
		}
		if opts.RespectGitignore && matcher.match(relPath, false) {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			select {
			case out <- Result{Err: indexerr.IO("SCAN_STAT_FILE", "failed to stat "+relPath, err)}:
			case <-ctx.Done():
			}
			continue
		}
		if fi.Size() > maxSize || fi.Size() == 0 {
			continue
		}

		binary, err := isBinary(absPath)
		if err != nil {
			select {
			case out <- Result{Err: indexerr.IO("SCAN_SNIFF_FILE", "failed to inspect "+relPath, err)}:
			case <-ctx.Done():
			}
			continue
		}
		if binary {
			continue
		}

		ext := filepath.Ext(entry.Name())
		result := Result{File: &FileInfo{
			Path:     relPath,
			AbsPath:  absPath,
			Size:     fi.Size(),
			ModTime:  fi.ModTime(),
			Language: LanguageForExt(ext),
		}}
		select {
		case out <- result:
		case <-ctx.Done():
			return
		}
	}
}

// nonPrintableRatioThreshold is the fraction of non-printable bytes in
// the sniffed prefix above which a file is treated as binary.
const nonPrintableRatioThreshold = 0.3

// isBinary reports whether the file's leading bytes contain a NUL byte
// or more than nonPrintableRatioThreshold of control bytes other than
// tab, CR, and LF.
func isBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, sniffSize)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	sniffed := buf[:n]
	if bytes.IndexByte(sniffed, 0) != -1 {
		return true, nil
	}

	nonPrintable := 0
	for _, b := range sniffed {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			nonPrintable++
		}
	}
	ratio := float64(nonPrintable) / float64(len(sniffed))
	return ratio > nonPrintableRatioThreshold, nil
}

func isDefaultExcludedDir(name string) bool {
	for _, d := range config.DefaultExcludeDirs {
		if d == name {
			return true
		}
	}
	return false
}

func matchesAnyGlob(globs []string, relPath, base string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, base); ok {
			return true
		}
		if ok, _ := filepath.Match(g, relPath); ok {
			return true
		}
	}
	return false
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}
