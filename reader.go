package img

import (
	"fmt"
	"io"

	"github.com/sagmar/img/internal/geom"
)

// EntryReader is a read-only view of one entry's allocated byte range
// with its own logical cursor.
//
// The reader does not own the underlying store: it holds a reference to
// the archive and repositions the shared cursor before every read, so it
// stays correct even when other operations move the cursor in between.
// Only one reader may be advanced at a time per archive; see Archive.
// A reader must not outlive its archive.
type EntryReader struct {
	a      *Archive
	name   string
	start  int64
	length int64
	pos    int64
}

// Interface compliance.
var _ io.ReadSeekCloser = (*EntryReader)(nil)

// Open returns a bounded reader over the named entry's allocated range.
// The shared store is positioned at the entry's start.
func (a *Archive) Open(name string) (*EntryReader, error) {
	if err := a.alive(); err != nil {
		return nil, err
	}
	rec, ok := a.table.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	start := geom.BlocksToBytes(rec.Offset)
	if _, err := a.data.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	return &EntryReader{
		a:      a,
		name:   rec.Name,
		start:  start,
		length: geom.BlocksToBytes(rec.Size),
	}, nil
}

// Name returns the entry name the reader was opened with.
func (r *EntryReader) Name() string { return r.name }

// Size returns the entry's allocated length in bytes.
func (r *EntryReader) Size() int64 { return r.length }

// Read copies up to len(p) bytes from the entry's range at the current
// logical position. It returns io.EOF once the position reaches the end
// of the allocated range.
func (r *EntryReader) Read(p []byte) (int, error) {
	if err := r.a.alive(); err != nil {
		return 0, err
	}
	remaining := r.length - r.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if _, err := r.a.data.Seek(r.start+r.pos, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := r.a.data.Read(p)
	r.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// Seek moves the logical position. Positions outside [0, Size] are
// rejected without moving the cursor.
func (r *EntryReader) Seek(offset int64, whence int) (int64, error) {
	if err := r.a.alive(); err != nil {
		return 0, err
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		target = r.length + offset
	default:
		return 0, fmt.Errorf("img: invalid seek whence %d", whence)
	}
	if target < 0 || target > r.length {
		return 0, fmt.Errorf("img: seek position %d outside [0, %d]", target, r.length)
	}
	r.pos = target
	return target, nil
}

// Close releases nothing: the reader holds no resources of its own. It
// exists so readers can flow through io.ReadCloser plumbing.
func (r *EntryReader) Close() error {
	return nil
}

// ReadFile reads the named entry's entire allocated range, trailing
// block padding included. The format does not record exact content
// lengths; callers that need one must recover it from the content.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if err := a.alive(); err != nil {
		return nil, err
	}
	rec, ok := a.table.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return a.readBlocks(rec)
}
