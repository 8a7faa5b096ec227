package dirtab

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// magic is the VER2 signature at the start of a single-file archive.
var magic = [4]byte{'V', 'E', 'R', '2'}

// Load parses a directory from the start of the header-bearing stream:
// the .dir stream for VER1, the archive file itself for VER2.
//
// The first four bytes decide the generation: the VER2 magic introduces a
// little-endian record count followed by that many records; anything else
// is read as VER1 records from offset zero until end of stream. An empty
// stream is an empty VER1 directory. A trailing fragment shorter than one
// record is tolerated only at the true end of a VER1 stream.
func Load(r io.Reader) (*Table, Version, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if err == io.EOF {
			return New(), VER1, nil
		}
		if err == io.ErrUnexpectedEOF {
			// Fewer than four bytes total: a fragment at end of stream.
			return New(), VER1, nil
		}
		return nil, 0, err
	}

	if head == magic {
		t, err := loadVER2(r)
		return t, VER2, err
	}
	t, err := loadVER1(r, head)
	return t, VER1, err
}

func loadVER2(r io.Reader) (*Table, error) {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated entry count", ErrFormat)
	}
	count := binary.LittleEndian.Uint32(countBuf[:])

	// The count is untrusted input: cap the preallocation and let append
	// grow the slice, so a hostile header cannot force a huge allocation
	// before the short stream is detected.
	records := make([]Record, 0, min(count, 1024))
	buf := make([]byte, RecordSize)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: directory ends after %d of %d records", ErrFormat, i, count)
			}
			return nil, err
		}
		records = append(records, parseRecord(buf))
	}
	return fromRecords(records)
}

func loadVER1(r io.Reader, head [4]byte) (*Table, error) {
	var records []Record
	buf := make([]byte, RecordSize)
	copy(buf, head[:])
	if _, err := io.ReadFull(r, buf[len(head):]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// The whole stream is shorter than one record.
			return New(), nil
		}
		return nil, err
	}
	records = append(records, parseRecord(buf))

	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, parseRecord(buf))
	}
	return fromRecords(records)
}

// Marshal encodes the directory in table order: for VER2, the magic and
// little-endian count precede the records; VER1 is records only.
func (t *Table) Marshal(v Version) []byte {
	size := len(t.records) * RecordSize
	if v == VER2 {
		size += HeaderLen
	}
	buf := make([]byte, 0, size)

	if v == VER2 {
		buf = append(buf, magic[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.records)))
	}
	for _, rec := range t.records {
		buf = appendRecord(buf, rec)
	}
	return buf
}

// EncodedLen returns the byte length of a directory with n entries.
func EncodedLen(n int, v Version) int64 {
	size := int64(n) * RecordSize
	if v == VER2 {
		size += HeaderLen
	}
	return size
}

func appendRecord(buf []byte, rec Record) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, rec.Offset)
	buf = binary.LittleEndian.AppendUint32(buf, rec.Size)
	var name [NameFieldLen]byte
	copy(name[:], rec.Name)
	return append(buf, name[:]...)
}

func parseRecord(buf []byte) Record {
	name := buf[8:RecordSize]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	} else {
		name = name[:MaxNameLen]
	}
	return Record{
		Offset: binary.LittleEndian.Uint32(buf[0:4]),
		Size:   binary.LittleEndian.Uint32(buf[4:8]),
		Name:   string(name),
	}
}
