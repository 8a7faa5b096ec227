package img

import (
	"errors"

	"github.com/sagmar/img/internal/dirtab"
	"github.com/sagmar/img/internal/geom"
)

// Errors re-exported from the directory table.
var (
	// ErrFormat is returned when a stream is not a recognizable archive:
	// a VER2 directory shorter than its declared count, a directory
	// record with an unusable name, or a store of the wrong kind for the
	// open call.
	ErrFormat = dirtab.ErrFormat

	// ErrNameTooLong is returned when an entry name exceeds 23 bytes.
	ErrNameTooLong = dirtab.ErrNameTooLong

	// ErrDuplicateName is returned when an add or rename would collide
	// with an existing name, compared case-insensitively.
	ErrDuplicateName = dirtab.ErrDuplicateName

	// ErrNotFound is returned by mutating operations on absent names.
	ErrNotFound = dirtab.ErrNotFound
)

// ErrSizeOverflow is returned when byte counts exceed the format's 32-bit
// block fields.
var ErrSizeOverflow = geom.ErrSizeOverflow

// Errors specific to the archive facade.
var (
	// ErrCapacity is returned when an overwrite's content is longer than
	// the entry's allocated block range. Capacity is never grown on
	// overwrite; remove and re-add the entry instead.
	ErrCapacity = errors.New("img: content exceeds entry capacity")

	// ErrReadOnly is returned by mutating calls on an archive opened
	// without write permission.
	ErrReadOnly = errors.New("img: archive is read-only")

	// ErrClosed is returned by any call after Close.
	ErrClosed = errors.New("img: archive is closed")
)
