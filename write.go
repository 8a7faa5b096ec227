package img

import (
	"fmt"

	"github.com/sagmar/img/internal/dirtab"
	"github.com/sagmar/img/internal/geom"
)

// Add inserts a new entry with the given content at the current data
// end, zero-padded to the next block boundary. The name must be 1–23
// printable bytes and unique case-insensitively.
func (a *Archive) Add(name string, data []byte) (Entry, error) {
	size, err := geom.BytesToBlocks(int64(len(data)))
	if err != nil {
		return Entry{}, err
	}
	rec, err := a.appendRecord(name, size)
	if err != nil {
		return Entry{}, err
	}
	if err := a.writeBlocks(rec.Offset, rec.Size, data); err != nil {
		return Entry{}, err
	}
	return entryFromRecord(rec), nil
}

// Allocate inserts a new entry of the given block size without writing
// content: the data stream is zero-extended to cover the allocation.
// Content is supplied later with Overwrite.
func (a *Archive) Allocate(name string, blocks uint32) (Entry, error) {
	rec, err := a.appendRecord(name, blocks)
	if err != nil {
		return Entry{}, err
	}
	end := geom.BlocksToBytes(rec.End())
	cur, err := storeSize(a.data)
	if err != nil {
		return Entry{}, err
	}
	if cur < end {
		if err := a.data.Truncate(end); err != nil {
			return Entry{}, err
		}
	}
	return entryFromRecord(rec), nil
}

// appendRecord validates, reserves header space, and inserts a record at
// the data end. The offset is computed after reservation, since growing
// the header may have relocated entries and moved the end.
func (a *Archive) appendRecord(name string, size uint32) (dirtab.Record, error) {
	if err := a.writable(); err != nil {
		return dirtab.Record{}, err
	}
	if err := dirtab.ValidateName(name); err != nil {
		return dirtab.Record{}, err
	}
	if a.table.Has(name) {
		return dirtab.Record{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if err := a.reserve(a.table.Len() + 1); err != nil {
		return dirtab.Record{}, err
	}
	offset := a.table.DataEnd(a.reserved)
	if uint64(offset)+uint64(size) > 1<<32-1 {
		return dirtab.Record{}, ErrSizeOverflow
	}
	rec := dirtab.Record{Offset: offset, Size: size, Name: name}
	if err := a.table.Insert(rec); err != nil {
		return dirtab.Record{}, err
	}
	return rec, nil
}

// Overwrite replaces an existing entry's content in place. The content
// must fit the entry's allocated block range — capacity is never grown
// on overwrite — and the remainder of the allocation is zero-filled.
func (a *Archive) Overwrite(name string, data []byte) error {
	if err := a.writable(); err != nil {
		return err
	}
	rec, ok := a.table.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	need, err := geom.BytesToBlocks(int64(len(data)))
	if err != nil {
		return err
	}
	if need > rec.Size {
		return fmt.Errorf("%w: %d bytes exceed %d allocated blocks for %q",
			ErrCapacity, len(data), rec.Size, name)
	}
	return a.writeBlocks(rec.Offset, rec.Size, data)
}

// Remove deletes the named entry from the directory. The freed block
// range is not reclaimed — it remains as a hole until Pack.
func (a *Archive) Remove(name string) (bool, error) {
	if err := a.writable(); err != nil {
		return false, err
	}
	return a.table.Remove(name), nil
}

// Rename changes an entry's name. The new name must be 1–23 printable
// bytes and not collide case-insensitively with another entry.
func (a *Archive) Rename(oldName, newName string) error {
	if err := a.writable(); err != nil {
		return err
	}
	return a.table.Rename(oldName, newName)
}
