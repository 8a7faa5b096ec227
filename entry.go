package img

import (
	"github.com/sagmar/img/internal/dirtab"
	"github.com/sagmar/img/internal/geom"
)

// BlockSize is the fixed 2048-byte allocation unit. All persisted offsets
// and sizes count blocks of this size.
const BlockSize = geom.BlockSize

// MaxNameLen is the longest permitted entry name in bytes.
const MaxNameLen = dirtab.MaxNameLen

// Entry describes one named blob in the archive. Offset and Size are
// block counts from the start of the data-bearing stream; the exact byte
// length of the content is not recorded by the format, only the
// allocated range Size*BlockSize.
type Entry struct {
	Name   string
	Offset uint32
	Size   uint32
}

// ByteOffset returns the entry's absolute byte position in the data stream.
func (e Entry) ByteOffset() int64 {
	return geom.BlocksToBytes(e.Offset)
}

// ByteSize returns the entry's allocated length in bytes.
func (e Entry) ByteSize() int64 {
	return geom.BlocksToBytes(e.Size)
}

func entryFromRecord(rec dirtab.Record) Entry {
	return Entry{Name: rec.Name, Offset: rec.Offset, Size: rec.Size}
}
