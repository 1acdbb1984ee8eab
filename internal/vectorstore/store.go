// Package vectorstore implements the flat-file embedding store: a
// fixed-size header followed by a dense, packed array of fixed-width
// float32 vectors. Vectors are identified by their integer offset in
// the file, not by a generated ID, so the metadata store can reference
// them directly as foreign keys.
package vectorstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/codesearch-dev/codesearch/internal/indexerr"
)

const (
	magic         = "CSV\x00"
	headerVersion = uint32(1)
	headerSize    = 24 // magic(4) + version(4) + count(4) + dimension(4) + checksum(8)
)

// ErrDimensionMismatch is returned when a caller appends or updates a
// vector whose length does not match the store's configured dimension.
var ErrDimensionMismatch = fmt.Errorf("vectorstore: dimension mismatch")

type header struct {
	magic     [4]byte
	version   uint32
	count     uint32
	dimension uint32
	checksum  uint64 // reserved, unused by the current format
}

// Store is a single open vector file. It is safe for concurrent
// readers but assumes a single writer, per the module's concurrency
// model: callers serialize writes externally (e.g. via an advisory
// project lock).
type Store struct {
	mu   sync.RWMutex
	file *os.File
	hdr  header
	path string
}

// Create initializes a new, empty vector store file at path with the
// given dimension. It fails if the file already exists.
func Create(path string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, indexerr.Storage("VEC_BAD_DIMENSION", "dimension must be positive", nil)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, indexerr.Storage("VEC_CREATE", "failed to create vector store file", err)
	}

	s := &Store{
		file: f,
		path: path,
		hdr: header{
			version:   headerVersion,
			count:     0,
			dimension: uint32(dimension),
		},
	}
	copy(s.hdr.magic[:], magic)

	if err := s.writeHeader(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	return s, nil
}

// Open opens an existing vector store file, validating its header and
// recovering from a crash-truncated tail if necessary.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, indexerr.Storage("VEC_OPEN", "failed to open vector store file", err)
	}

	s := &Store{file: f, path: path}
	if err := s.readHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := s.recover(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// OpenOrCreate opens path if it exists, otherwise creates a new store
// with the given dimension.
func OpenOrCreate(path string, dimension int) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Create(path, dimension)
	}
	return Open(path)
}

func (s *Store) writeHeader() error {
	buf := make([]byte, headerSize)
	copy(buf[0:4], s.hdr.magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], s.hdr.version)
	binary.LittleEndian.PutUint32(buf[8:12], s.hdr.count)
	binary.LittleEndian.PutUint32(buf[12:16], s.hdr.dimension)
	binary.LittleEndian.PutUint64(buf[16:24], s.hdr.checksum)

	if _, err := s.file.WriteAt(buf, 0); err != nil {
		return indexerr.Storage("VEC_WRITE_HEADER", "failed to write vector store header", err)
	}
	return nil
}

func (s *Store) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(s.file, buf); err != nil {
		return indexerr.Storage("VEC_READ_HEADER", "failed to read vector store header", err)
	}
	copy(s.hdr.magic[:], buf[0:4])
	if string(s.hdr.magic[:]) != magic {
		return indexerr.Storage("VEC_BAD_MAGIC", "vector store file has invalid magic bytes", nil)
	}
	s.hdr.version = binary.LittleEndian.Uint32(buf[4:8])
	if s.hdr.version != headerVersion {
		return indexerr.Storage("VEC_BAD_VERSION", fmt.Sprintf("vector store file has unsupported version %d, expected %d", s.hdr.version, headerVersion), nil)
	}
	s.hdr.count = binary.LittleEndian.Uint32(buf[8:12])
	s.hdr.dimension = binary.LittleEndian.Uint32(buf[12:16])
	s.hdr.checksum = binary.LittleEndian.Uint64(buf[16:24])
	return nil
}

// recover truncates a vector store whose tail was only partially
// written (a crash mid-append) to the largest complete prefix, and
// rejects a file that is smaller than its header claims as corrupt.
func (s *Store) recover() error {
	info, err := s.file.Stat()
	if err != nil {
		return indexerr.Storage("VEC_STAT", "failed to stat vector store file", err)
	}

	expected := s.expectedSize()
	actual := info.Size()

	switch {
	case actual == expected:
		return nil
	case actual > expected:
		// Partial trailing vector from an interrupted append; whole
		// vectors before that point are still valid.
		consistent := int64(headerSize) + (actual-headerSize)/s.recordSize()*s.recordSize()
		if consistent < expected {
			consistent = expected
		}
		if err := s.file.Truncate(consistent); err != nil {
			return indexerr.Storage("VEC_TRUNCATE", "failed to truncate vector store file to a consistent length", err)
		}
		return nil
	default:
		return indexerr.Storage("VEC_CORRUPT",
			fmt.Sprintf("vector store file is shorter than its header claims (have %d bytes, want %d); re-run with --force to rebuild", actual, expected), nil)
	}
}

func (s *Store) recordSize() int64 {
	return int64(s.hdr.dimension) * 4
}

func (s *Store) expectedSize() int64 {
	return int64(headerSize) + int64(s.hdr.count)*s.recordSize()
}

func (s *Store) offsetFor(index uint32) int64 {
	return int64(headerSize) + int64(index)*s.recordSize()
}

// Dimension returns the fixed vector width for this store.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.hdr.dimension)
}

// Count returns the number of vectors currently stored.
func (s *Store) Count() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hdr.count
}

// Append writes vec at the end of the store and returns the offset it
// was written at (the store's count before the append).
func (s *Store) Append(vec []float32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(vec)
}

func (s *Store) appendLocked(vec []float32) (uint32, error) {
	if uint32(len(vec)) != s.hdr.dimension {
		return 0, ErrDimensionMismatch
	}

	offset := s.hdr.count
	buf := encodeVector(vec)
	if _, err := s.file.WriteAt(buf, s.offsetFor(offset)); err != nil {
		return 0, indexerr.Storage("VEC_APPEND", "failed to append vector", err)
	}

	s.hdr.count++
	if err := s.writeHeader(); err != nil {
		return 0, err
	}
	return offset, nil
}

// AppendBatch appends vectors in order and returns the offset of the
// first one; offsets for the rest are consecutive.
func (s *Store) AppendBatch(vectors [][]float32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(vectors) == 0 {
		return s.hdr.count, nil
	}

	first := s.hdr.count
	for _, vec := range vectors {
		if _, err := s.appendLocked(vec); err != nil {
			return 0, err
		}
	}
	return first, nil
}

// Get reads the vector stored at offset.
func (s *Store) Get(offset uint32) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset >= s.hdr.count {
		return nil, indexerr.Storage("VEC_OUT_OF_RANGE", fmt.Sprintf("offset %d is out of range (count=%d)", offset, s.hdr.count), nil)
	}

	buf := make([]byte, s.recordSize())
	if _, err := s.file.ReadAt(buf, s.offsetFor(offset)); err != nil {
		return nil, indexerr.Storage("VEC_READ", "failed to read vector", err)
	}
	return decodeVector(buf, int(s.hdr.dimension)), nil
}

// GetBatch reads multiple vectors by offset.
func (s *Store) GetBatch(offsets []uint32) ([][]float32, error) {
	out := make([][]float32, len(offsets))
	for i, off := range offsets {
		v, err := s.Get(off)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Update overwrites the vector at offset in place. It does not change
// the store's count.
func (s *Store) Update(offset uint32, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uint32(len(vec)) != s.hdr.dimension {
		return ErrDimensionMismatch
	}
	if offset >= s.hdr.count {
		return indexerr.Storage("VEC_OUT_OF_RANGE", fmt.Sprintf("offset %d is out of range (count=%d)", offset, s.hdr.count), nil)
	}

	buf := encodeVector(vec)
	if _, err := s.file.WriteAt(buf, s.offsetFor(offset)); err != nil {
		return indexerr.Storage("VEC_UPDATE", "failed to update vector", err)
	}
	return nil
}

// Verify checks that the file's actual size matches what the header
// claims and that the magic bytes are intact.
func (s *Store) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if string(s.hdr.magic[:]) != magic {
		return indexerr.Storage("VEC_BAD_MAGIC", "vector store file has invalid magic bytes", nil)
	}
	info, err := s.file.Stat()
	if err != nil {
		return indexerr.Storage("VEC_STAT", "failed to stat vector store file", err)
	}
	if info.Size() != s.expectedSize() {
		return indexerr.Storage("VEC_SIZE_MISMATCH",
			fmt.Sprintf("file size %d does not match expected size %d for count=%d dimension=%d",
				info.Size(), s.expectedSize(), s.hdr.count, s.hdr.dimension), nil)
	}
	return nil
}

// Sync flushes buffered writes to disk.
func (s *Store) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.file.Sync(); err != nil {
		return indexerr.Storage("VEC_SYNC", "failed to sync vector store file", err)
	}
	return nil
}

// Close syncs and closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.file.Sync()
	if err := s.file.Close(); err != nil {
		return indexerr.Storage("VEC_CLOSE", "failed to close vector store file", err)
	}
	return nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte, dimension int) []float32 {
	out := make([]float32, dimension)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
