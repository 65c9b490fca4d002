package vds

import (
	"fmt"

	"github.com/robert-malhotra/go-vds/hsf"
)

// ViewOption configures view construction.
type ViewOption func(*viewOptions)

type viewOptions struct {
	fill float64
}

// WithFill sets the fill value returned for frames whose backing
// container is absent. Defaults to zero.
func WithFill(v float64) ViewOption {
	return func(o *viewOptions) {
		o.fill = v
	}
}

// View is a read-only logical dataset assembled from a plan's targets.
type View struct {
	plan *Plan
	ds   *hsf.Dataset
}

// BuildView creates the virtual dataset described by plan inside a
// writable container and stores the plan's metadata alongside it.
// Zero-length partitions contribute no mapping entries.
func BuildView(f *hsf.File, plan *Plan, opts ...ViewOption) (*View, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	options := &viewOptions{}
	for _, opt := range opts {
		opt(options)
	}

	entries := make([]hsf.VirtualEntry, 0, len(plan.Partitions))
	for _, part := range plan.Partitions {
		if part.Frames() == 0 {
			continue
		}
		entries = append(entries, hsf.VirtualEntry{
			Start:         part.Start,
			End:           part.End,
			SourceFile:    part.Target.Path,
			SourceDataset: plan.Spec.Dataset,
			SourceStart:   part.Target.Start,
		})
	}

	ds, err := f.Root().CreateVirtualDataset(plan.Spec.Dataset, plan.Spec.Shape, plan.Spec.Dtype, entries,
		hsf.WithFillValue(options.fill))
	if err != nil {
		return nil, err
	}
	if err := WritePlan(f, ds, plan); err != nil {
		return nil, err
	}
	return &View{plan: plan, ds: ds}, nil
}

// OpenView loads the plan and virtual dataset from an existing logical
// container. An empty dataset name uses the container's default.
func OpenView(f *hsf.File, datasetName string) (*View, error) {
	plan, ds, err := ReadPlan(f, datasetName)
	if err != nil {
		return nil, err
	}
	if !ds.IsVirtual() {
		return nil, schemaf("dataset %q is not virtual", ds.Path())
	}
	return &View{plan: plan, ds: ds}, nil
}

// Plan returns the plan backing the view.
func (v *View) Plan() *Plan {
	return v.plan
}

// Dataset returns the underlying virtual dataset.
func (v *View) Dataset() *hsf.Dataset {
	return v.ds
}

// Shape returns the logical shape.
func (v *View) Shape() []int64 {
	return v.ds.Shape()
}

// Dtype returns the element type.
func (v *View) Dtype() hsf.Dtype {
	return v.ds.Dtype()
}

// Frames returns the logical extent of the leading axis.
func (v *View) Frames() int64 {
	return v.ds.Frames()
}

// ReadRange reads frames [start, end), routing each sub-range to its
// backing container. Absent containers yield the fill value.
func (v *View) ReadRange(start, end int64) ([]byte, error) {
	if start < 0 || end < start || end > v.Frames() {
		return nil, fmt.Errorf("range [%d,%d) of %d frames: %w", start, end, v.Frames(), ErrOutOfRange)
	}
	return v.ds.ReadSlab(start, end)
}

// ReadFrame reads a single frame.
func (v *View) ReadFrame(frame int64) ([]byte, error) {
	return v.ReadRange(frame, frame+1)
}
