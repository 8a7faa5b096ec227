package img

import (
	"io"

	"github.com/sagmar/img/internal/dirtab"
	"github.com/sagmar/img/internal/geom"
)

// Store is a cursor-bearing byte store underlying an archive. *os.File
// satisfies it. The archive owns its stores exclusively: every operation
// repositions the shared cursor before acting, so external code must not
// use a store while the archive holds it.
type Store interface {
	io.Reader
	io.Writer
	io.Seeker
	Truncate(size int64) error
}

// storeSize returns the current length of a store.
func storeSize(s Store) (int64, error) {
	return s.Seek(0, io.SeekEnd)
}

// readRange fills buf from the data stream starting at the byte offset.
func (a *Archive) readRange(off int64, buf []byte) error {
	if _, err := a.data.Seek(off, io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(a.data, buf)
	return err
}

// readBlocks reads an entry's entire allocated block range, padding
// included.
func (a *Archive) readBlocks(rec dirtab.Record) ([]byte, error) {
	buf := make([]byte, geom.BlocksToBytes(rec.Size))
	if err := a.readRange(geom.BlocksToBytes(rec.Offset), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeBlocks writes content at the block offset and zero-pads the rest
// of the allocated range up to the next block boundary.
func (a *Archive) writeBlocks(offset, sizeBlocks uint32, content []byte) error {
	if _, err := a.data.Seek(geom.BlocksToBytes(offset), io.SeekStart); err != nil {
		return err
	}
	if len(content) > 0 {
		if _, err := a.data.Write(content); err != nil {
			return err
		}
	}
	return a.zeroFill(geom.BlocksToBytes(sizeBlocks) - int64(len(content)))
}

var zeroBlock [geom.BlockSize]byte

// zeroFill writes n zero bytes at the data stream's current position.
func (a *Archive) zeroFill(n int64) error {
	for n > 0 {
		chunk := int64(len(zeroBlock))
		if n < chunk {
			chunk = n
		}
		if _, err := a.data.Write(zeroBlock[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
