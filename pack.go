package img

import (
	"github.com/sagmar/img/internal/dirtab"
	"github.com/sagmar/img/internal/geom"
)

// Pack defragments the archive: every entry is rewritten contiguously
// starting at the minimum directory size for the current entry count,
// eliminating holes left by Remove and by header-growth relocation. The
// relative entry order is preserved. Returns the new total archive size
// in blocks; an empty archive is left untouched.
//
// Pack buffers every entry's full content in memory, so peak memory use
// is proportional to the archive's data size.
func (a *Archive) Pack() (uint32, error) {
	if err := a.writable(); err != nil {
		return 0, err
	}
	if a.table.Len() == 0 {
		return a.reserved, nil
	}

	records := a.table.Snapshot()
	contents := make([][]byte, len(records))
	for i, rec := range records {
		content, err := a.readBlocks(rec)
		if err != nil {
			return 0, err
		}
		contents[i] = content
	}

	minReserved, err := geom.BytesToBlocks(dirtab.EncodedLen(len(records), a.version))
	if err != nil {
		return 0, err
	}
	a.reserved = minReserved

	a.table.Clear()
	next := a.reserved
	for i, rec := range records {
		a.log().Debug("packing entry", "name", rec.Name, "from", rec.Offset, "to", next)
		rec.Offset = next
		next += rec.Size
		if err := a.table.Insert(rec); err != nil {
			return 0, err
		}
		if err := a.writeBlocks(rec.Offset, rec.Size, contents[i]); err != nil {
			return 0, err
		}
	}

	if err := a.data.Truncate(geom.BlocksToBytes(next)); err != nil {
		return 0, err
	}
	return next, nil
}
