// Package testutil provides in-memory stores for archive tests.
package testutil

import (
	"errors"
	"io"
)

// MemStore is an in-memory, seekable, truncatable byte store. Writes
// past the end zero-extend the buffer, matching *os.File semantics.
type MemStore struct {
	data []byte
	pos  int64

	// WriteErr, when set, is returned by Write and Truncate. Tests use
	// it to exercise swallowed-error paths.
	WriteErr error

	// Closed records whether Close was called.
	Closed bool
}

// NewMemStore returns a store seeded with the given bytes.
func NewMemStore(data []byte) *MemStore {
	return &MemStore{data: data}
}

// Read reads from the current position.
func (s *MemStore) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

// Write writes at the current position, zero-extending as needed.
func (s *MemStore) Write(p []byte) (int, error) {
	if s.WriteErr != nil {
		return 0, s.WriteErr
	}
	if end := s.pos + int64(len(p)); end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	n := copy(s.data[s.pos:], p)
	s.pos += int64(n)
	return n, nil
}

// Seek moves the cursor.
func (s *MemStore) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = int64(len(s.data)) + offset
	default:
		return 0, errors.New("testutil: invalid whence")
	}
	if target < 0 {
		return 0, errors.New("testutil: negative seek position")
	}
	s.pos = target
	return target, nil
}

// Truncate resizes the buffer, zero-extending when growing.
func (s *MemStore) Truncate(size int64) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	if size < 0 {
		return errors.New("testutil: negative truncate size")
	}
	if size <= int64(len(s.data)) {
		s.data = s.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, s.data)
	s.data = grown
	return nil
}

// Close records the call so tests can assert release behavior.
func (s *MemStore) Close() error {
	s.Closed = true
	return nil
}

// Bytes returns the backing buffer.
func (s *MemStore) Bytes() []byte {
	return s.data
}

// Len returns the store's current length.
func (s *MemStore) Len() int {
	return len(s.data)
}
