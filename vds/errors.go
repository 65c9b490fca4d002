// Package vds plans the partitioning of a large array along its leading
// axis and assembles the partitions back into one logical view.
//
// A Plan divides a global shape into N contiguous, disjoint frame ranges,
// each backed by either a physical shard container or a zero-copy view
// into an existing container. Plans are persisted as attributes on the
// logical dataset and re-validated on decode; the stored plan, not a
// recomputation, is authoritative.
package vds

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed plan parameters: bad shape, partition
// count below one, unrecognized dtype, or a naming collision. It is
// always raised before any I/O happens.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// SchemaError reports persisted plan metadata that violates a plan
// invariant. Decoding fails rather than trusting stored values, since a
// broken plan would corrupt the logical-to-physical mapping.
type SchemaError struct {
	msg string
}

func (e *SchemaError) Error() string {
	return e.msg
}

func schemaf(format string, args ...any) error {
	return &SchemaError{msg: fmt.Sprintf(format, args...)}
}

// ErrOutOfRange is returned by View.ReadRange and Plan.Find for frame
// ranges outside the logical extent.
var ErrOutOfRange = errors.New("frame range out of bounds")
