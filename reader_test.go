package img

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryReaderReadsFullRange(t *testing.T) {
	t.Parallel()

	a, _ := newSingle(t)
	content := make([]byte, 5000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	_, err := a.Add("song.wav", content)
	require.NoError(t, err)

	r, err := a.Open("SONG.WAV")
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "song.wav", r.Name())
	assert.Equal(t, int64(3*BlockSize), r.Size(), "the reader spans the allocated range")

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Len(t, got, 3*BlockSize)
	assert.Equal(t, content, got[:5000])
	assert.Equal(t, make([]byte, len(got)-5000), got[5000:])

	// At the end every read reports EOF.
	n, err := r.Read(make([]byte, 10))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestEntryReaderSeek(t *testing.T) {
	t.Parallel()

	a, _ := newSingle(t)
	content := bytes.Repeat([]byte("0123456789"), 100)
	_, err := a.Add("digits.txt", content)
	require.NoError(t, err)

	r, err := a.Open("digits.txt")
	require.NoError(t, err)

	pos, err := r.Seek(500, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(500), pos)

	buf := make([]byte, 10)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), buf)

	pos, err = r.Seek(-10, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(500), pos)

	pos, err = r.Seek(-BlockSize, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos, "1000 bytes round up to one block")

	// The full range boundary itself is a legal position.
	_, err = r.Seek(0, io.SeekEnd)
	require.NoError(t, err)

	_, err = r.Seek(-1, io.SeekStart)
	assert.Error(t, err)
	_, err = r.Seek(1, io.SeekEnd)
	assert.Error(t, err)
	_, err = r.Seek(0, 42)
	assert.Error(t, err)

	// Failed seeks leave the position alone.
	pos, err = r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, r.Size(), pos)
}

func TestEntryReaderSurvivesInterleavedOperations(t *testing.T) {
	t.Parallel()

	a, _ := newSingle(t)
	first := bytes.Repeat([]byte{0xAA}, 4000)
	second := bytes.Repeat([]byte{0xBB}, 4000)
	_, err := a.Add("first.bin", first)
	require.NoError(t, err)
	_, err = a.Add("second.bin", second)
	require.NoError(t, err)

	r, err := a.Open("first.bin")
	require.NoError(t, err)

	half := make([]byte, 2000)
	_, err = io.ReadFull(r, half)
	require.NoError(t, err)
	assert.Equal(t, first[:2000], half)

	// Another operation moves the shared store cursor in between.
	other, err := a.ReadFile("second.bin")
	require.NoError(t, err)
	assert.Equal(t, second, other[:4000])

	// The reader reseeks and carries on from its own position.
	_, err = io.ReadFull(r, half)
	require.NoError(t, err)
	assert.Equal(t, first[2000:4000], half)
}

func TestOpenMissingEntry(t *testing.T) {
	t.Parallel()

	a, _ := newSingle(t)
	_, err := a.Open("ghost.dat")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.ReadFile("ghost.dat")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntryReaderOnClosedArchive(t *testing.T) {
	t.Parallel()

	a, _ := newSingle(t)
	_, err := a.Add("a.txt", []byte("x"))
	require.NoError(t, err)

	r, err := a.Open("a.txt")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	_, err = r.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrClosed)
}
