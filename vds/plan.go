package vds

import (
	"fmt"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-vds/hsf"
)

// Spec describes the global array being partitioned. It is immutable
// once a plan is built; changing shape or partition count always means
// building a new plan.
type Spec struct {
	Shape   []int64   // first dimension is the partition axis
	Dtype   hsf.Dtype // fixed-width element type
	Dataset string    // dataset name inside each container
}

// Frames returns the extent of the partition axis.
func (s Spec) Frames() int64 {
	return s.Shape[0]
}

// FrameSize returns the byte size of one frame.
func (s Spec) FrameSize() int64 {
	size := s.Dtype.Size()
	for _, d := range s.Shape[1:] {
		size *= d
	}
	return size
}

func (s Spec) validate() error {
	if len(s.Shape) == 0 {
		return validationf("shape must have at least one dimension")
	}
	if s.Shape[0] < 0 {
		return validationf("leading dimension cannot be negative: %d", s.Shape[0])
	}
	for _, d := range s.Shape[1:] {
		if d < 1 {
			return validationf("trailing dimensions must be positive: %v", s.Shape)
		}
	}
	if !s.Dtype.Valid() {
		return validationf("unrecognized dtype")
	}
	if s.Dataset == "" {
		return validationf("dataset name cannot be empty")
	}
	return nil
}

// TargetKind discriminates what backs a partition.
type TargetKind uint8

const (
	// KindShard is a fully independent container holding a copy of the
	// partition's data.
	KindShard TargetKind = iota
	// KindView is a zero-copy reference into an existing, unmodified
	// container.
	KindView
)

// String returns the kind token used in persisted metadata.
func (k TargetKind) String() string {
	switch k {
	case KindShard:
		return "shard"
	case KindView:
		return "view"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// parseTargetKind resolves a persisted kind token.
func parseTargetKind(token string) (TargetKind, error) {
	switch token {
	case "shard":
		return KindShard, nil
	case "view":
		return KindView, nil
	default:
		return 0, fmt.Errorf("unknown target kind %q", token)
	}
}

// Target names the container backing one partition. Path is relative to
// the logical container's directory unless absolute. Start and End give
// the frame range inside the target: [0, frames) for shards, the mapped
// source range for views.
type Target struct {
	Kind  TargetKind
	Path  string
	Start int64
	End   int64
}

// Partition is one contiguous range [Start, End) of the partition axis,
// mapped to a single target.
type Partition struct {
	Index  int
	Start  int64
	End    int64
	Target Target
}

// Frames returns the partition's extent along the leading axis.
func (p Partition) Frames() int64 {
	return p.End - p.Start
}

// Plan is an ordered, immutable set of partitions covering a Spec.
type Plan struct {
	Spec       Spec
	Pattern    string // naming pattern persisted as vds_source_pattern
	Partitions []Partition
	// OriginalFile names the container the plan was derived from, when
	// it was built by dividing an existing file. Empty otherwise.
	OriginalFile string
}

// NamingFunc produces the target container identifier for a partition
// index. It must be collision-free across the plan.
type NamingFunc func(index int) string

// ExpandPattern formats a naming pattern for an index. Patterns use
// printf-style verbs ("run_%03d.hsf"); a pattern without a verb gets an
// index suffix appended.
func ExpandPattern(pattern string, index int) string {
	if strings.Contains(pattern, "%") {
		return fmt.Sprintf(pattern, index)
	}
	return fmt.Sprintf("%s_%03d.hsf", pattern, index)
}

// PatternNamer returns a NamingFunc that expands pattern per index.
func PatternNamer(pattern string) NamingFunc {
	return func(index int) string {
		return ExpandPattern(pattern, index)
	}
}

// DefaultPattern is the naming pattern used when none is given, matching
// the shard files the companion tooling expects next to a logical
// container named <stem>.
func DefaultPattern(stem string) string {
	return stem + "_source_%03d.hsf"
}

// PlanOption configures plan construction.
type PlanOption func(*planOptions)

type planOptions struct {
	pattern     string
	namer       NamingFunc
	viewSource  string
	rejectEmpty bool
}

// WithPattern sets the shard naming pattern (printf-style).
func WithPattern(pattern string) PlanOption {
	return func(o *planOptions) {
		o.pattern = pattern
	}
}

// WithNamer injects a custom naming function. The pattern set with
// WithPattern is still persisted for provenance.
func WithNamer(fn NamingFunc) PlanOption {
	return func(o *planOptions) {
		o.namer = fn
	}
}

// WithViewInto builds the plan with zero-copy view targets into the
// given existing container instead of physical shards.
func WithViewInto(sourcePath string) PlanOption {
	return func(o *planOptions) {
		o.viewSource = sourcePath
	}
}

// RejectEmpty makes plan construction fail with a ValidationError when
// n exceeds the total extent, instead of producing trailing zero-length
// partitions.
func RejectEmpty() PlanOption {
	return func(o *planOptions) {
		o.rejectEmpty = true
	}
}

// NewPlan divides spec's leading extent into n partitions. Partition
// sizes come from Divide; offsets are their prefix sums.
func NewPlan(spec Spec, n int, opts ...PlanOption) (*Plan, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	options := &planOptions{pattern: DefaultPattern("data")}
	for _, opt := range opts {
		opt(options)
	}

	sizes, err := Divide(spec.Frames(), n)
	if err != nil {
		return nil, err
	}
	if options.rejectEmpty {
		for i, size := range sizes {
			if size == 0 {
				return nil, validationf("partition %d would be empty: %d partitions exceed extent %d", i, n, spec.Frames())
			}
		}
	}

	namer := options.namer
	if namer == nil {
		namer = PatternNamer(options.pattern)
	}

	plan := &Plan{
		Spec:         spec,
		Pattern:      options.pattern,
		Partitions:   make([]Partition, n),
		OriginalFile: options.viewSource,
	}

	seen := make(map[string]int, n)
	offset := int64(0)
	for i := range plan.Partitions {
		start, end := offset, offset+sizes[i]
		offset = end

		var target Target
		if options.viewSource != "" {
			target = Target{Kind: KindView, Path: options.viewSource, Start: start, End: end}
		} else {
			name := namer(i)
			if prev, dup := seen[name]; dup {
				return nil, validationf("naming collision: partitions %d and %d both map to %q", prev, i, name)
			}
			seen[name] = i
			target = Target{Kind: KindShard, Path: name, Start: 0, End: end - start}
		}

		plan.Partitions[i] = Partition{Index: i, Start: start, End: end, Target: target}
	}

	return plan, nil
}

// PartitionShape returns the container shape for a partition: its frame
// count followed by the spec's trailing dimensions.
func (p *Plan) PartitionShape(part Partition) []int64 {
	shape := make([]int64, len(p.Spec.Shape))
	shape[0] = part.Frames()
	copy(shape[1:], p.Spec.Shape[1:])
	return shape
}

// SourceFiles returns the target container paths in partition order.
func (p *Plan) SourceFiles() []string {
	files := make([]string, len(p.Partitions))
	for i, part := range p.Partitions {
		files[i] = part.Target.Path
	}
	return files
}

// Find returns the index of the partition containing the given frame,
// located by binary search over the partition ends.
func (p *Plan) Find(frame int64) (int, error) {
	if frame < 0 || frame >= p.Spec.Frames() {
		return 0, fmt.Errorf("frame %d of %d: %w", frame, p.Spec.Frames(), ErrOutOfRange)
	}
	i := sort.Search(len(p.Partitions), func(i int) bool {
		return p.Partitions[i].End > frame
	})
	return i, nil
}

// Validate checks every plan invariant: ordering, zero origin,
// contiguity, coverage of the full extent, the remainder distribution,
// and target consistency. Any violation is reported as a SchemaError.
func (p *Plan) Validate() error {
	if err := p.Spec.validate(); err != nil {
		return schemaf("plan spec: %v", err)
	}
	return p.validatePartitions()
}

// validatePartitions checks the partition layout alone, independent of
// the dataset name. Decoding uses it before the name is known.
func (p *Plan) validatePartitions() error {
	n := len(p.Partitions)
	if n == 0 {
		return schemaf("plan has no partitions")
	}

	total := p.Spec.Frames()
	base := total / int64(n)
	remainder := total % int64(n)

	offset := int64(0)
	for i, part := range p.Partitions {
		if part.Index != i {
			return schemaf("partition %d has index %d", i, part.Index)
		}
		if part.Start != offset {
			return schemaf("partition %d starts at %d, want %d (plan is not contiguous)", i, part.Start, offset)
		}
		if part.End < part.Start {
			return schemaf("partition %d has negative extent [%d,%d)", i, part.Start, part.End)
		}

		want := base
		if int64(i) < remainder {
			want++
		}
		if part.Frames() != want {
			return schemaf("partition %d has %d frames, want %d (remainder distribution violated)", i, part.Frames(), want)
		}

		switch part.Target.Kind {
		case KindShard:
			if part.Target.Start != 0 || part.Target.End != part.Frames() {
				return schemaf("partition %d shard range [%d,%d) does not cover its %d frames", i, part.Target.Start, part.Target.End, part.Frames())
			}
		case KindView:
			if part.Target.End-part.Target.Start != part.Frames() {
				return schemaf("partition %d view range [%d,%d) does not match its %d frames", i, part.Target.Start, part.Target.End, part.Frames())
			}
			if part.Target.Start < 0 {
				return schemaf("partition %d has negative view offset %d", i, part.Target.Start)
			}
		default:
			return schemaf("partition %d has unknown target kind %d", i, part.Target.Kind)
		}
		if part.Target.Path == "" {
			return schemaf("partition %d has no target path", i)
		}

		offset = part.End
	}
	if offset != total {
		return schemaf("partitions cover %d frames, want %d", offset, total)
	}
	return nil
}
