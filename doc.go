// Package img reads and writes block-addressed IMG archives: containers
// that pack many named binary entries into one file (VER2) or a
// directory/data file pair (VER1).
//
// Every persisted offset and size is a count of 2048-byte blocks. The
// directory — a fixed-width record per entry — occupies a reserved
// region at the front of the data stream; when it outgrows that region,
// the engine relocates the colliding entries to the end of the file
// rather than overwriting them. Removal leaves holes; Pack rewrites the
// archive contiguously to reclaim them.
//
// Archives support random-access reads of individual entries without
// loading the whole file, via bounded readers that share the underlying
// store cursor. All operations are synchronous and unsynchronized; see
// Archive for the concurrency contract.
package img
