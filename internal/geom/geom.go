// Package geom converts between the archive's block units and byte counts.
//
// Every offset and size persisted in the directory is a count of 2048-byte
// blocks; every in-memory buffer is sized in bytes. These two functions are
// the only conversion points in the module.
package geom

import "errors"

// BlockSize is the fixed allocation unit of the container format.
const BlockSize = 2048

// ErrSizeOverflow is returned when a byte count does not fit the format's
// 32-bit block fields.
var ErrSizeOverflow = errors.New("img: size overflow")

// maxBytes is the largest byte count representable as a uint32 block count.
const maxBytes = int64(1<<32-1) * BlockSize

// BlocksToBytes converts a block count to bytes, widening to int64 so the
// product cannot overflow.
func BlocksToBytes(n uint32) int64 {
	return int64(n) * BlockSize
}

// BytesToBlocks converts a byte count to blocks, rounding up to the next
// whole block. Negative counts and counts beyond the 32-bit block range
// return ErrSizeOverflow.
func BytesToBlocks(n int64) (uint32, error) {
	if n < 0 || n > maxBytes {
		return 0, ErrSizeOverflow
	}
	return uint32((n + BlockSize - 1) / BlockSize), nil
}
