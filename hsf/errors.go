// Package hsf implements the Hierarchical Shard Format, a small
// single-writer container for dense multi-dimensional numeric arrays.
//
// A container holds a tree of groups; groups hold datasets and typed
// attributes. Datasets are either physical (contiguous, exactly-sized
// storage in the file) or virtual (an ordered mapping table stitching
// ranges of other containers into one logical array along the leading
// axis). Files are written once: Create produces a writable handle whose
// metadata is serialized on Close, and Open produces a read-only handle.
package hsf

import "errors"

// Common errors
var (
	ErrNotContainer = errors.New("not an hsf container")
	ErrVersion      = errors.New("unsupported container version")
	ErrCorrupt      = errors.New("corrupt container metadata")
	ErrNotFound     = errors.New("object not found")
	ErrNotDataset   = errors.New("object is not a dataset")
	ErrNotGroup     = errors.New("object is not a group")
	ErrClosed       = errors.New("file is closed")
	ErrReadOnly     = errors.New("file is read-only")
	ErrExists       = errors.New("object already exists")
	ErrOutOfBounds  = errors.New("slab range out of bounds")
)
