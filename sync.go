package img

import (
	"io"

	"github.com/sagmar/img/internal/dirtab"
)

// Sync persists the directory to the start of the header-bearing stream.
//
// For VER2 this writes the magic, the little-endian entry count, and the
// records. VER1 stores no count — loading reads records to end of
// stream — so after writing, the directory stream is truncated to
// exactly the records' length to drop stale bytes a previously longer
// table may have left behind.
func (a *Archive) Sync() error {
	if err := a.writable(); err != nil {
		return err
	}
	buf := a.table.Marshal(a.version)
	if _, err := a.header.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if len(buf) > 0 {
		if _, err := a.header.Write(buf); err != nil {
			return err
		}
	}
	if a.version == VER1 {
		if err := a.header.Truncate(dirtab.EncodedLen(a.table.Len(), VER1)); err != nil {
			return err
		}
	}
	a.log().Debug("directory synced", "entries", a.table.Len(), "bytes", len(buf))
	return nil
}
