package img

import (
	"github.com/sagmar/img/internal/dirtab"
	"github.com/sagmar/img/internal/geom"
)

// reserve guarantees the header region can hold a directory of
// numEntries records before a new record is appended.
//
// The directory lives at the front of the data stream in both container
// generations. When it outgrows its reserved blocks, the only safe way
// to grow it is to push colliding entries toward the end: entries carry
// no references to their own offsets outside the table, so relocation is
// purely additive to file size and never touches a non-colliding entry.
func (a *Archive) reserve(numEntries int) error {
	need := dirtab.EncodedLen(numEntries, a.version)
	reservedBytes := geom.BlocksToBytes(a.reserved)

	newReserved, err := geom.BytesToBlocks(need)
	if err != nil {
		return err
	}
	a.reserved = newReserved

	if reservedBytes == 0 || need <= reservedBytes {
		return nil
	}

	// The grown table overlaps entry data. By the ascending-offset
	// invariant the colliding entries are a contiguous prefix.
	var victims []dirtab.Record
	for rec := range a.table.All() {
		if geom.BlocksToBytes(rec.Offset) >= need {
			break
		}
		victims = append(victims, rec)
	}

	for _, rec := range victims {
		content, err := a.readBlocks(rec)
		if err != nil {
			return err
		}
		a.table.Remove(rec.Name)
		newOffset := a.table.DataEnd(a.reserved)
		a.log().Debug("relocating entry for header growth",
			"name", rec.Name, "from", rec.Offset, "to", newOffset, "blocks", rec.Size)
		rec.Offset = newOffset
		if err := a.table.Insert(rec); err != nil {
			return err
		}
		if err := a.writeBlocks(rec.Offset, rec.Size, content); err != nil {
			return err
		}
	}
	return nil
}
