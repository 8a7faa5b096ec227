package img

import (
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/sagmar/img/internal/dirtab"
)

// Version identifies the container generation.
type Version = dirtab.Version

// Supported container generations.
const (
	// VER1 archives are a cooperating pair of streams: a directory
	// stream holding only entry records and a data stream holding only
	// entry content.
	VER1 = dirtab.VER1

	// VER2 archives are a single stream whose first bytes are the
	// "VER2" magic and a little-endian entry count, followed by the
	// records and then the data region.
	VER2 = dirtab.VER2
)

// Mode controls whether an archive accepts mutations.
type Mode uint8

// Open modes.
const (
	ReadOnly Mode = iota
	ReadWrite
)

// Archive is a block-addressed container of named binary entries.
//
// All operations are synchronous and share the underlying store cursors;
// the archive performs no internal locking. Only one in-flight
// EntryReader (or other pending operation) may be advanced at a time
// against one archive — interleaving reads from two readers corrupts
// both, because each silently repositions the shared cursor. Callers
// needing concurrent access must serialize, or open independent stores
// per reader.
type Archive struct {
	version Version
	mode    Mode
	header  Store // directory stream (VER1) or the single file (VER2)
	data    Store // data stream (VER1) or the same store as header (VER2)
	table   *dirtab.Table

	// reserved is the size in blocks of the header/table region at the
	// front of the data stream. Entry data never starts below it.
	reserved uint32

	closed bool
	logger *slog.Logger
}

// Open parses an existing single-file VER2 archive. The store must begin
// with the VER2 magic; a bare VER1 data file carries no directory and
// cannot be opened without its companion stream.
func Open(file Store, mode Mode, opts ...Option) (*Archive, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	table, version, err := dirtab.Load(file)
	if err != nil {
		return nil, err
	}
	if version != VER2 {
		return nil, fmt.Errorf("%w: missing VER2 signature", ErrFormat)
	}
	return newArchive(VER2, mode, file, file, table, opts), nil
}

// OpenPair parses an existing two-file VER1 archive from its directory
// and data streams. An empty directory stream is a valid empty archive.
func OpenPair(dir, data Store, mode Mode, opts ...Option) (*Archive, error) {
	if _, err := dir.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	table, version, err := dirtab.Load(dir)
	if err != nil {
		return nil, err
	}
	if version != VER1 {
		return nil, fmt.Errorf("%w: directory stream carries an embedded VER2 header", ErrFormat)
	}
	return newArchive(VER1, mode, dir, data, table, opts), nil
}

// Create formats the store as a new, empty single-file VER2 archive and
// returns it opened read-write. Any existing content is discarded.
func Create(file Store, opts ...Option) (*Archive, error) {
	if err := file.Truncate(0); err != nil {
		return nil, err
	}
	a := newArchive(VER2, ReadWrite, file, file, dirtab.New(), opts)
	if err := a.Sync(); err != nil {
		return nil, err
	}
	return a, nil
}

// CreatePair formats the two stores as a new, empty VER1 archive and
// returns it opened read-write. Any existing content is discarded.
func CreatePair(dir, data Store, opts ...Option) (*Archive, error) {
	if err := dir.Truncate(0); err != nil {
		return nil, err
	}
	if err := data.Truncate(0); err != nil {
		return nil, err
	}
	a := newArchive(VER1, ReadWrite, dir, data, dirtab.New(), opts)
	if err := a.Sync(); err != nil {
		return nil, err
	}
	return a, nil
}

func newArchive(version Version, mode Mode, header, data Store, table *dirtab.Table, opts []Option) *Archive {
	a := &Archive{
		version: version,
		mode:    mode,
		header:  header,
		data:    data,
		table:   table,
	}
	for _, opt := range opts {
		opt(a)
	}
	if first, ok := table.First(); ok {
		a.reserved = first.Offset
	} else {
		a.reserved = 1
	}
	return a
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

func (a *Archive) alive() error {
	if a.closed {
		return ErrClosed
	}
	return nil
}

func (a *Archive) writable() error {
	if err := a.alive(); err != nil {
		return err
	}
	if a.mode != ReadWrite {
		return ErrReadOnly
	}
	return nil
}

// Version returns the archive's container generation.
func (a *Archive) Version() Version {
	return a.version
}

// Mode returns the mode the archive was opened with.
func (a *Archive) Mode() Mode {
	return a.mode
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return a.table.Len()
}

// Size returns the total archive size in blocks: the reserved header
// region when empty, otherwise the end of the last entry's allocation.
func (a *Archive) Size() uint32 {
	return a.table.DataEnd(a.reserved)
}

// HeaderBlocks returns the size in blocks of the reserved header/table
// region at the front of the data stream.
func (a *Archive) HeaderBlocks() uint32 {
	return a.reserved
}

// Entry returns the named entry, looked up case-insensitively.
func (a *Archive) Entry(name string) (Entry, bool) {
	rec, ok := a.table.Find(name)
	if !ok {
		return Entry{}, false
	}
	return entryFromRecord(rec), true
}

// Exists reports whether an entry with the given name exists.
func (a *Archive) Exists(name string) bool {
	return a.table.Has(name)
}

// Entries returns an iterator over all entries in ascending offset
// order. The order is stable across reads and syncs.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for rec := range a.table.All() {
			if !yield(entryFromRecord(rec)) {
				return
			}
		}
	}
}

// Close releases the archive. On a read-write archive it first attempts
// one final Sync, swallowing any I/O error so that resources are always
// released; callers needing a guaranteed-persisted close must call Sync
// themselves and handle its error before closing.
func (a *Archive) Close() error {
	if a.closed {
		return ErrClosed
	}
	if a.mode == ReadWrite {
		if err := a.Sync(); err != nil {
			a.log().Debug("final sync failed", "error", err)
		}
	}
	return a.release()
}

// CloseWithoutSync releases the archive without saving the directory.
// Mutations since the last Sync are lost.
func (a *Archive) CloseWithoutSync() error {
	if a.closed {
		return ErrClosed
	}
	return a.release()
}

func (a *Archive) release() error {
	a.closed = true
	var firstErr error
	if c, ok := a.header.(io.Closer); ok {
		firstErr = c.Close()
	}
	if a.data != a.header {
		if c, ok := a.data.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
