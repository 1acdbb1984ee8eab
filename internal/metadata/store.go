package metadata

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	hash TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	path TEXT NOT NULL,
	hash TEXT NOT NULL,
	size INTEGER NOT NULL,
	language TEXT NOT NULL,
	indexed_at TIMESTAMP NOT NULL,
	last_modified TIMESTAMP NOT NULL,
	UNIQUE(project_id, path)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_files_project_path ON files(project_id, path);

CREATE TABLE IF NOT EXISTS symbols (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	start_byte INTEGER NOT NULL,
	end_byte INTEGER NOT NULL,
	parent_symbol_id INTEGER REFERENCES symbols(id)
);
CREATE INDEX IF NOT EXISTS idx_symbols_file_name ON symbols(file_id, name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);

CREATE TABLE IF NOT EXISTS chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	chunk_type TEXT NOT NULL,
	symbol_name TEXT NOT NULL DEFAULT '',
	vector_offset INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_file_start ON chunks(file_id, start_line);
CREATE INDEX IF NOT EXISTS idx_chunks_symbol_name ON chunks(symbol_name);

CREATE TABLE IF NOT EXISTS index_metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store wraps a single project's SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the metadata database at path and
// applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, indexerr.Storage("META_OPEN", "failed to open metadata database", err)
	}
	// A single writer per project means a single physical connection
	// is simplest and avoids SQLITE_BUSY under concurrent readers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, indexerr.Storage("META_SCHEMA", "failed to apply metadata schema", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return indexerr.Storage("META_CLOSE", "failed to close metadata database", err)
	}
	return nil
}

// UpsertProject inserts or updates the project row for path, returning
// its id. The update-then-insert-if-zero-rows pattern avoids relying
// on SQLite's UPSERT dialect so the same logic works if the driver is
// ever swapped.
func (s *Store) UpsertProject(path, hash string) (int64, error) {
	now := time.Now().UTC()

	res, err := s.db.Exec(`UPDATE projects SET hash = ?, updated_at = ? WHERE path = ?`, hash, now, path)
	if err != nil {
		return 0, indexerr.Storage("META_UPSERT_PROJECT", "failed to update project row", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		var id int64
		if err := s.db.QueryRow(`SELECT id FROM projects WHERE path = ?`, path).Scan(&id); err != nil {
			return 0, indexerr.Storage("META_UPSERT_PROJECT", "failed to read updated project id", err)
		}
		return id, nil
	}

	res, err = s.db.Exec(`INSERT INTO projects (path, hash, created_at, updated_at) VALUES (?, ?, ?, ?)`, path, hash, now, now)
	if err != nil {
		return 0, indexerr.Storage("META_UPSERT_PROJECT", "failed to insert project row", err)
	}
	return res.LastInsertId()
}

// GetProjectByPath returns the project row for path, or nil if none
// exists.
func (s *Store) GetProjectByPath(path string) (*Project, error) {
	var p Project
	err := s.db.QueryRow(`SELECT id, path, hash, created_at, updated_at FROM projects WHERE path = ?`, path).
		Scan(&p.ID, &p.Path, &p.Hash, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, indexerr.Storage("META_GET_PROJECT", "failed to query project", err)
	}
	return &p, nil
}

// UpsertFile inserts or updates the file row identified by
// (projectID, path), returning its id.
func (s *Store) UpsertFile(f File) (int64, error) {
	res, err := s.db.Exec(
		`UPDATE files SET hash = ?, size = ?, language = ?, indexed_at = ?, last_modified = ? WHERE project_id = ? AND path = ?`,
		f.Hash, f.Size, f.Language, f.IndexedAt, f.LastModified, f.ProjectID, f.Path,
	)
	if err != nil {
		return 0, indexerr.Storage("META_UPSERT_FILE", "failed to update file row", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		var id int64
		if err := s.db.QueryRow(`SELECT id FROM files WHERE project_id = ? AND path = ?`, f.ProjectID, f.Path).Scan(&id); err != nil {
			return 0, indexerr.Storage("META_UPSERT_FILE", "failed to read updated file id", err)
		}
		return id, nil
	}

	res, err = s.db.Exec(
		`INSERT INTO files (project_id, path, hash, size, language, indexed_at, last_modified) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ProjectID, f.Path, f.Hash, f.Size, f.Language, f.IndexedAt, f.LastModified,
	)
	if err != nil {
		return 0, indexerr.Storage("META_UPSERT_FILE", "failed to insert file row", err)
	}
	return res.LastInsertId()
}

// GetFileByPath returns the file row for (projectID, path), or nil.
func (s *Store) GetFileByPath(projectID int64, path string) (*File, error) {
	var f File
	err := s.db.QueryRow(
		`SELECT id, project_id, path, hash, size, language, indexed_at, last_modified FROM files WHERE project_id = ? AND path = ?`,
		projectID, path,
	).Scan(&f.ID, &f.ProjectID, &f.Path, &f.Hash, &f.Size, &f.Language, &f.IndexedAt, &f.LastModified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, indexerr.Storage("META_GET_FILE", "failed to query file", err)
	}
	return &f, nil
}

// ListFiles returns every indexed file for a project.
func (s *Store) ListFiles(projectID int64) ([]File, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, path, hash, size, language, indexed_at, last_modified FROM files WHERE project_id = ? ORDER BY path`,
		projectID,
	)
	if err != nil {
		return nil, indexerr.Storage("META_LIST_FILES", "failed to list files", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Path, &f.Hash, &f.Size, &f.Language, &f.IndexedAt, &f.LastModified); err != nil {
			return nil, indexerr.Storage("META_LIST_FILES", "failed to scan file row", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFile removes a file row; cascading deletes remove its symbols
// and chunks.
func (s *Store) DeleteFile(fileID int64) error {
	if _, err := s.db.Exec(`DELETE FROM files WHERE id = ?`, fileID); err != nil {
		return indexerr.Storage("META_DELETE_FILE", "failed to delete file", err)
	}
	return nil
}

// ReplaceSymbols atomically replaces all symbols for fileID.
func (s *Store) ReplaceSymbols(fileID int64, symbols []Symbol) error {
	tx, err := s.db.Begin()
	if err != nil {
		return indexerr.Storage("META_REPLACE_SYMBOLS", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return indexerr.Storage("META_REPLACE_SYMBOLS", "failed to clear existing symbols", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO symbols (file_id, name, kind, start_line, end_line, start_byte, end_byte, parent_symbol_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return indexerr.Storage("META_REPLACE_SYMBOLS", "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, sym := range symbols {
		if _, err := stmt.Exec(fileID, sym.Name, string(sym.Kind), sym.StartLine, sym.EndLine, sym.StartByte, sym.EndByte, sym.ParentSymbolID); err != nil {
			return indexerr.Storage("META_REPLACE_SYMBOLS", "failed to insert symbol", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return indexerr.Storage("META_REPLACE_SYMBOLS", "failed to commit transaction", err)
	}
	return nil
}

// ReplaceChunks atomically replaces all chunks for fileID. Vector
// offsets are assigned sequentially starting at startOffset, matching
// the order vectors were appended to the vector store for this file.
func (s *Store) ReplaceChunks(fileID int64, chunks []Chunk, startOffset uint32) error {
	tx, err := s.db.Begin()
	if err != nil {
		return indexerr.Storage("META_REPLACE_CHUNKS", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chunks WHERE file_id = ?`, fileID); err != nil {
		return indexerr.Storage("META_REPLACE_CHUNKS", "failed to clear existing chunks", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO chunks (file_id, start_line, end_line, chunk_type, symbol_name, vector_offset, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return indexerr.Storage("META_REPLACE_CHUNKS", "failed to prepare insert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, c := range chunks {
		offset := startOffset + uint32(i)
		if _, err := stmt.Exec(fileID, c.StartLine, c.EndLine, string(c.ChunkType), c.SymbolName, offset, now); err != nil {
			return indexerr.Storage("META_REPLACE_CHUNKS", "failed to insert chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return indexerr.Storage("META_REPLACE_CHUNKS", "failed to commit transaction", err)
	}
	return nil
}

// ReplaceFileContents upserts the file row and atomically replaces its
// symbols and chunks in one transaction, as the Index Manager requires
// so a crash never leaves dangling metadata pointers into the vector
// store: vectors must already be appended by the time this is called.
func (s *Store) ReplaceFileContents(f File, symbols []Symbol, chunks []Chunk, startOffset uint32) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, indexerr.Storage("META_REPLACE_FILE", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	fileID, err := upsertFileTx(tx, f)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return 0, indexerr.Storage("META_REPLACE_FILE", "failed to clear symbols", err)
	}
	symStmt, err := tx.Prepare(`INSERT INTO symbols (file_id, name, kind, start_line, end_line, start_byte, end_byte, parent_symbol_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, indexerr.Storage("META_REPLACE_FILE", "failed to prepare symbol insert", err)
	}
	for _, sym := range symbols {
		if _, err := symStmt.Exec(fileID, sym.Name, string(sym.Kind), sym.StartLine, sym.EndLine, sym.StartByte, sym.EndByte, sym.ParentSymbolID); err != nil {
			symStmt.Close()
			return 0, indexerr.Storage("META_REPLACE_FILE", "failed to insert symbol", err)
		}
	}
	symStmt.Close()

	if _, err := tx.Exec(`DELETE FROM chunks WHERE file_id = ?`, fileID); err != nil {
		return 0, indexerr.Storage("META_REPLACE_FILE", "failed to clear chunks", err)
	}
	chunkStmt, err := tx.Prepare(`INSERT INTO chunks (file_id, start_line, end_line, chunk_type, symbol_name, vector_offset, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, indexerr.Storage("META_REPLACE_FILE", "failed to prepare chunk insert", err)
	}
	now := time.Now().UTC()
	for i, c := range chunks {
		offset := startOffset + uint32(i)
		if _, err := chunkStmt.Exec(fileID, c.StartLine, c.EndLine, string(c.ChunkType), c.SymbolName, offset, now); err != nil {
			chunkStmt.Close()
			return 0, indexerr.Storage("META_REPLACE_FILE", "failed to insert chunk", err)
		}
	}
	chunkStmt.Close()

	if err := tx.Commit(); err != nil {
		return 0, indexerr.Storage("META_REPLACE_FILE", "failed to commit transaction", err)
	}
	return fileID, nil
}

func upsertFileTx(tx *sql.Tx, f File) (int64, error) {
	res, err := tx.Exec(
		`UPDATE files SET hash = ?, size = ?, language = ?, indexed_at = ?, last_modified = ? WHERE project_id = ? AND path = ?`,
		f.Hash, f.Size, f.Language, f.IndexedAt, f.LastModified, f.ProjectID, f.Path,
	)
	if err != nil {
		return 0, indexerr.Storage("META_UPSERT_FILE", "failed to update file row", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		var id int64
		if err := tx.QueryRow(`SELECT id FROM files WHERE project_id = ? AND path = ?`, f.ProjectID, f.Path).Scan(&id); err != nil {
			return 0, indexerr.Storage("META_UPSERT_FILE", "failed to read updated file id", err)
		}
		return id, nil
	}
	res, err = tx.Exec(
		`INSERT INTO files (project_id, path, hash, size, language, indexed_at, last_modified) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ProjectID, f.Path, f.Hash, f.Size, f.Language, f.IndexedAt, f.LastModified,
	)
	if err != nil {
		return 0, indexerr.Storage("META_UPSERT_FILE", "failed to insert file row", err)
	}
	return res.LastInsertId()
}

// FindSymbolsBySubstring performs a case-insensitive substring search
// over symbol names for a project, ordered by name.
func (s *Store) FindSymbolsBySubstring(projectID int64, substring string) ([]SymbolMatch, error) {
	rows, err := s.db.Query(`
		SELECT s.name, f.path, s.start_line, s.end_line
		FROM symbols s
		JOIN files f ON f.id = s.file_id
		WHERE f.project_id = ? AND s.name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY s.name
	`, projectID, substring)
	if err != nil {
		return nil, indexerr.Storage("META_FIND_SYMBOLS", "failed to query symbols", err)
	}
	defer rows.Close()

	var out []SymbolMatch
	for rows.Next() {
		var m SymbolMatch
		if err := rows.Scan(&m.SymbolName, &m.FilePath, &m.StartLine, &m.EndLine); err != nil {
			return nil, indexerr.Storage("META_FIND_SYMBOLS", "failed to scan symbol row", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// EnumerateChunks returns every chunk for a project as search
// candidates, ordered by chunk id.
func (s *Store) EnumerateChunks(projectID int64) ([]SearchCandidate, error) {
	rows, err := s.db.Query(`
		SELECT c.id, f.path, c.start_line, c.end_line, c.chunk_type, c.symbol_name, c.vector_offset
		FROM chunks c
		JOIN files f ON f.id = c.file_id
		WHERE f.project_id = ?
		ORDER BY c.id
	`, projectID)
	if err != nil {
		return nil, indexerr.Storage("META_ENUMERATE_CHUNKS", "failed to query chunks", err)
	}
	defer rows.Close()

	var out []SearchCandidate
	for rows.Next() {
		var c SearchCandidate
		var chunkType string
		if err := rows.Scan(&c.ChunkID, &c.FilePath, &c.StartLine, &c.EndLine, &chunkType, &c.SymbolName, &c.VectorOffset); err != nil {
			return nil, indexerr.Storage("META_ENUMERATE_CHUNKS", "failed to scan chunk row", err)
		}
		c.ChunkType = ChunkType(chunkType)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetStatistics summarizes a project's indexed state.
func (s *Store) GetStatistics(projectID int64) (Statistics, error) {
	var stats Statistics
	var lastIndexed sql.NullTime

	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size), 0), MAX(indexed_at) FROM files WHERE project_id = ?`, projectID)
	if err := row.Scan(&stats.TotalFiles, &stats.TotalSize, &lastIndexed); err != nil {
		return Statistics{}, indexerr.Storage("META_STATS", "failed to query file statistics", err)
	}
	if lastIndexed.Valid {
		stats.LastIndexed = lastIndexed.Time
	}

	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM symbols s JOIN files f ON f.id = s.file_id WHERE f.project_id = ?
	`, projectID).Scan(&stats.TotalSymbols)
	if err != nil {
		return Statistics{}, indexerr.Storage("META_STATS", "failed to query symbol statistics", err)
	}

	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM chunks c JOIN files f ON f.id = c.file_id WHERE f.project_id = ?
	`, projectID).Scan(&stats.TotalChunks)
	if err != nil {
		return Statistics{}, indexerr.Storage("META_STATS", "failed to query chunk statistics", err)
	}

	return stats, nil
}

// SetMeta stores an opaque key/value pair in index_metadata.
func (s *Store) SetMeta(key, value string) error {
	if _, err := s.db.Exec(`INSERT INTO index_metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return indexerr.Storage("META_SET", fmt.Sprintf("failed to set metadata key %q", key), err)
	}
	return nil
}

// GetMeta reads a previously stored key, returning ("", false) if
// unset.
func (s *Store) GetMeta(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM index_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, indexerr.Storage("META_GET", fmt.Sprintf("failed to get metadata key %q", key), err)
	}
	return value, true, nil
}
