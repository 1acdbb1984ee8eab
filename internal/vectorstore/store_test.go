package vectorstore

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendMonotonicOffsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 4)
	require.NoError(t, err)
	defer s.Close()

	var offsets []uint32
	for i := 0; i < 5; i++ {
		off, err := s.Append([]float32{float32(i), 0, 0, 0})
		require.NoError(t, err)
		offsets = append(offsets, off)
	}
	assert.Equal(t, []uint32{0, 1, 2, 3, 4}, offsets)
	assert.Equal(t, uint32(5), s.Count())
}

func TestGetRoundTripsExactBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 3)
	require.NoError(t, err)
	defer s.Close()

	vec := []float32{0.1, -2.5, 3.1415926}
	off, err := s.Append(vec)
	require.NoError(t, err)

	got, err := s.Get(off)
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestUpdateDoesNotChangeCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 2)
	require.NoError(t, err)
	defer s.Close()

	off, err := s.Append([]float32{1, 2})
	require.NoError(t, err)
	require.NoError(t, s.Update(off, []float32{9, 9}))

	assert.Equal(t, uint32(1), s.Count())
	got, err := s.Get(off)
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 9}, got)
}

func TestDimensionMismatchRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 4)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Append([]float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestGetOutOfRangeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 2)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(0)
	assert.Error(t, err)
}

func TestOpenRoundTripIsBitwiseIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 4)
	require.NoError(t, err)

	want := [][]float32{{1, 2, 3, 4}, {-1, -2, -3, -4}, {0, 0, 0, 0}}
	for _, v := range want {
		_, err := s.Append(v)
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, uint32(len(want)), reopened.Count())
	for i, v := range want {
		got, err := reopened.Get(uint32(i))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestHeaderConsistency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 8)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 10; i++ {
		_, err := s.Append(make([]float32, 8))
		require.NoError(t, err)
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(headerSize)+10*8*4, info.Size())
	require.NoError(t, s.Verify())
}

func TestRecoverTruncatesPartialTrailingWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 4)
	require.NoError(t, err)
	_, err = s.Append([]float32{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Simulate a crash mid-append: part of a second vector's payload
	// made it to disk before its header count was bumped.
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt(make([]byte, 2), headerSize+16) // 2 stray bytes past the one complete vector
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, uint32(1), reopened.Count())
	require.NoError(t, reopened.Verify())
}

func TestRecoverRejectsTruncatedFileBelowHeaderClaim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 4)
	require.NoError(t, err)
	_, err = s.Append([]float32{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = s.Append([]float32{5, 6, 7, 8})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Truncate away the second vector's bytes while the header still
	// claims count=2.
	require.NoError(t, os.Truncate(path, headerSize+16))

	_, err = Open(path)
	assert.Error(t, err)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 4)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("XXXX"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path)
	assert.Error(t, err)
}

func TestOpenRejectsFutureVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s, err := Create(path, 4)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	versionBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(versionBytes, headerVersion+1)
	_, err = f.WriteAt(versionBytes, 4)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path)
	assert.Error(t, err)
}

func TestOpenOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.dat")
	s1, err := OpenOrCreate(path, 4)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := OpenOrCreate(path, 4)
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, 4, s2.Dimension())
}
