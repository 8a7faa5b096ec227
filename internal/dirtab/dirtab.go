// Package dirtab implements the archive directory: an ordered table of
// entry records plus a case-insensitive name index.
//
// The table is always kept sorted by ascending block offset. Insertions
// append at the current data end and relocations re-append at a new data
// end, so the last record always has the highest offset and the data end
// is readable in O(1) from the final record.
package dirtab

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
)

// Format constants for the on-disk directory encoding.
const (
	// RecordSize is the encoded size of one directory record.
	RecordSize = 32

	// NameFieldLen is the fixed width of the null-padded name field.
	NameFieldLen = 24

	// MaxNameLen is the longest permitted entry name; one byte of the
	// name field is always reserved for the terminating null.
	MaxNameLen = NameFieldLen - 1

	// HeaderLen is the size of the VER2 embedded header (magic + count).
	HeaderLen = 8
)

// Sentinel errors surfaced through the public img package.
var (
	ErrFormat        = errors.New("img: malformed archive")
	ErrNameTooLong   = errors.New("img: entry name too long")
	ErrDuplicateName = errors.New("img: duplicate entry name")
	ErrNotFound      = errors.New("img: entry not found")
)

// Version identifies the container generation.
type Version uint8

// Supported container generations.
const (
	// VER1 archives are a cooperating pair: a directory stream holding
	// only records and a data stream holding only entry content.
	VER1 Version = 1

	// VER2 archives are a single stream with an embedded magic + count
	// header ahead of the records.
	VER2 Version = 2
)

// Record describes one entry: where it lives and how much space it owns,
// both in blocks, plus its display name. The name string is the single
// canonical representation; the fixed-width padded field exists only in
// the encoded form.
type Record struct {
	Offset uint32
	Size   uint32
	Name   string
}

// End returns the first block past the record's allocated range.
func (r Record) End() uint32 {
	return r.Offset + r.Size
}

// ValidateName rejects names the 24-byte record field cannot hold:
// empty names, names longer than MaxNameLen bytes, and names containing
// non-printable bytes.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty entry name", ErrFormat)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: %q is %d bytes (max %d)", ErrNameTooLong, name, len(name), MaxNameLen)
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			return fmt.Errorf("%w: name %q contains non-printable byte 0x%02x", ErrFormat, name, name[i])
		}
	}
	return nil
}

// Table is the in-memory directory. Lookups are case-insensitive; the
// displayed name keeps the case it was inserted with.
type Table struct {
	records []Record
	byName  map[string]int
}

// New returns an empty table.
func New() *Table {
	return &Table{byName: make(map[string]int)}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Has reports whether a record with the given name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.byName[strings.ToLower(name)]
	return ok
}

// Find returns the record with the given name, case-insensitively.
func (t *Table) Find(name string) (Record, bool) {
	i, ok := t.byName[strings.ToLower(name)]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// Insert appends a record. The caller is responsible for assigning an
// offset at or past the current data end so the ascending-offset order
// is preserved. Returns ErrDuplicateName if the name is already present.
func (t *Table) Insert(rec Record) error {
	key := strings.ToLower(rec.Name)
	if _, ok := t.byName[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, rec.Name)
	}
	t.byName[key] = len(t.records)
	t.records = append(t.records, rec)
	return nil
}

// Remove deletes the named record. It reports whether a record was
// removed; removing an absent name is not an error.
func (t *Table) Remove(name string) bool {
	key := strings.ToLower(name)
	i, ok := t.byName[key]
	if !ok {
		return false
	}
	delete(t.byName, key)
	t.records = append(t.records[:i], t.records[i+1:]...)
	for k, j := range t.byName {
		if j > i {
			t.byName[k] = j - 1
		}
	}
	return true
}

// Rename changes a record's name in place. The record keeps its offset
// and size, so the table order is unchanged.
func (t *Table) Rename(oldName, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	oldKey := strings.ToLower(oldName)
	newKey := strings.ToLower(newName)
	i, ok := t.byName[oldKey]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, oldName)
	}
	if j, exists := t.byName[newKey]; exists && j != i {
		return fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}
	delete(t.byName, oldKey)
	t.byName[newKey] = i
	t.records[i].Name = newName
	return nil
}

// DataEnd returns the first block not used by any entry: the reserved
// header size when the table is empty, otherwise offset+size of the last
// (highest-offset) record.
func (t *Table) DataEnd(reservedBlocks uint32) uint32 {
	if len(t.records) == 0 {
		return reservedBlocks
	}
	return t.records[len(t.records)-1].End()
}

// First returns the lowest-offset record.
func (t *Table) First() (Record, bool) {
	if len(t.records) == 0 {
		return Record{}, false
	}
	return t.records[0], true
}

// At returns the record at position i in offset order.
func (t *Table) At(i int) Record {
	return t.records[i]
}

// All returns an iterator over the records in ascending offset order.
func (t *Table) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, rec := range t.records {
			if !yield(rec) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the records. Mutation-heavy callers iterate
// the snapshot while rewriting the live table.
func (t *Table) Snapshot() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Clear removes all records.
func (t *Table) Clear() {
	t.records = t.records[:0]
	t.byName = make(map[string]int)
}

// fromRecords builds an indexed table from parsed records, stable-sorting
// by offset first if the persisted order was shuffled.
func fromRecords(records []Record) (*Table, error) {
	sorted := true
	for i := 1; i < len(records); i++ {
		if records[i].Offset < records[i-1].Offset {
			sorted = false
			break
		}
	}
	if !sorted {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Offset < records[j].Offset
		})
	}

	t := New()
	for _, rec := range records {
		if err := t.Insert(rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
	}
	return t, nil
}
