package dirtab

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTable(t *testing.T, records ...Record) *Table {
	t.Helper()
	tab := New()
	for _, rec := range records {
		require.NoError(t, tab.Insert(rec))
	}
	return tab
}

func TestMarshalVER2Layout(t *testing.T) {
	t.Parallel()

	tab := buildTable(t,
		Record{Offset: 1, Size: 2, Name: "a.txt"},
		Record{Offset: 3, Size: 1, Name: "b.txt"},
	)
	buf := tab.Marshal(VER2)

	require.Len(t, buf, HeaderLen+2*RecordSize)
	assert.Equal(t, []byte("VER2"), buf[0:4])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[4:8]))

	rec := buf[HeaderLen : HeaderLen+RecordSize]
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(rec[0:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(rec[4:8]))
	assert.Equal(t, byte('a'), rec[8])
	assert.Equal(t, byte(0), rec[8+5], "name field is null-padded")
	assert.Equal(t, byte(0), rec[RecordSize-1])
}

func TestMarshalVER1HasNoHeader(t *testing.T) {
	t.Parallel()

	tab := buildTable(t, Record{Offset: 1, Size: 1, Name: "only.dat"})
	buf := tab.Marshal(VER1)

	require.Len(t, buf, RecordSize)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[0:4]))
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	for _, version := range []Version{VER1, VER2} {
		tab := buildTable(t,
			Record{Offset: 1, Size: 2, Name: "First.DFF"},
			Record{Offset: 3, Size: 1, Name: "second.txd"},
			Record{Offset: 4, Size: 5, Name: "third.col"},
		)

		loaded, got, err := Load(bytes.NewReader(tab.Marshal(version)))
		require.NoError(t, err)
		assert.Equal(t, version, got)
		require.Equal(t, tab.Len(), loaded.Len())
		for i := 0; i < tab.Len(); i++ {
			assert.Equal(t, tab.At(i), loaded.At(i))
		}
	}
}

func TestLoadEmptyStreamIsEmptyVER1(t *testing.T) {
	t.Parallel()

	tab, version, err := Load(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, VER1, version)
	assert.Equal(t, 0, tab.Len())
}

func TestLoadVER1ToleratesTrailingFragment(t *testing.T) {
	t.Parallel()

	full := buildTable(t,
		Record{Offset: 1, Size: 1, Name: "a"},
		Record{Offset: 2, Size: 1, Name: "b"},
	).Marshal(VER1)

	// Stale garbage shorter than one record at the true end of stream.
	stream := append(full, 0xde, 0xad, 0xbe)

	tab, version, err := Load(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, VER1, version)
	assert.Equal(t, 2, tab.Len())
}

func TestLoadVER1FragmentOnlyStream(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 3, 4, 31} {
		tab, version, err := Load(bytes.NewReader(make([]byte, n)))
		require.NoError(t, err, "fragment of %d bytes", n)
		assert.Equal(t, VER1, version)
		assert.Equal(t, 0, tab.Len())
	}
}

func TestLoadVER2TruncatedIsFormatError(t *testing.T) {
	t.Parallel()

	tab := buildTable(t,
		Record{Offset: 1, Size: 1, Name: "a"},
		Record{Offset: 2, Size: 1, Name: "b"},
	)
	buf := tab.Marshal(VER2)

	// Count says two records but the stream ends inside the second.
	_, _, err := Load(bytes.NewReader(buf[:len(buf)-10]))
	assert.ErrorIs(t, err, ErrFormat)

	// Count with no records at all.
	_, _, err = Load(bytes.NewReader(buf[:HeaderLen]))
	assert.ErrorIs(t, err, ErrFormat)

	// Magic with no count.
	_, _, err = Load(bytes.NewReader(buf[:6]))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestLoadVER2HugeDeclaredCount(t *testing.T) {
	t.Parallel()

	// A hostile header declaring 4 billion records backed by one byte of
	// stream must fail cleanly, not allocate for the declared count.
	stream := []byte{'V', 'E', 'R', '2', 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	_, _, err := Load(bytes.NewReader(stream))
	assert.ErrorIs(t, err, ErrFormat)

	// Same declared count with no record bytes at all.
	_, _, err = Load(bytes.NewReader(stream[:HeaderLen]))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestLoadSortsMisorderedRecords(t *testing.T) {
	t.Parallel()

	var buf []byte
	buf = appendRecord(buf, Record{Offset: 7, Size: 1, Name: "late"})
	buf = appendRecord(buf, Record{Offset: 1, Size: 2, Name: "early"})

	tab, version, err := Load(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, VER1, version)
	require.Equal(t, 2, tab.Len())
	assert.Equal(t, "early", tab.At(0).Name)
	assert.Equal(t, "late", tab.At(1).Name)
}

func TestLoadMaxLengthName(t *testing.T) {
	t.Parallel()

	name := "abcdefghijklmnopqrstuvw" // 23 bytes, fills the field
	require.Len(t, name, MaxNameLen)

	tab := buildTable(t, Record{Offset: 1, Size: 1, Name: name})
	loaded, _, err := Load(bytes.NewReader(tab.Marshal(VER1)))
	require.NoError(t, err)

	rec, ok := loaded.Find(name)
	require.True(t, ok)
	assert.Equal(t, name, rec.Name)
}

func TestEncodedLen(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), EncodedLen(0, VER1))
	assert.Equal(t, int64(8), EncodedLen(0, VER2))
	assert.Equal(t, int64(64), EncodedLen(2, VER1))
	assert.Equal(t, int64(72), EncodedLen(2, VER2))
}
