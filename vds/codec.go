package vds

import (
	"fmt"

	"github.com/robert-malhotra/go-vds/hsf"
)

// Metadata keys describing a partitioned dataset. File-level keys carry
// the global spec; dataset-level keys carry the per-partition mapping.
const (
	attrShape         = "vds_shape"
	attrDtype         = "vds_dtype"
	attrNumSources    = "vds_num_sources"
	attrSourcePattern = "vds_source_pattern"
	attrOriginalFile  = "vds_original_file"

	attrSourceFiles   = "source_files"
	attrFramesPerFile = "frames_per_file"
)

func sourceKey(i int, field string) string {
	return fmt.Sprintf("source_%d_%s", i, field)
}

// PlanAttrs holds a plan encoded as ordered attribute lists, split by
// where each attribute is attached.
type PlanAttrs struct {
	File    []hsf.Attr
	Dataset []hsf.Attr
}

// EncodePlan renders a plan as container metadata. The layout is stable:
// decoding the result yields an equivalent plan.
func EncodePlan(plan *Plan) (*PlanAttrs, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	attrs := &PlanAttrs{}
	attrs.File = append(attrs.File,
		hsf.Attr{Name: attrShape, Value: append([]int64(nil), plan.Spec.Shape...)},
		hsf.Attr{Name: attrDtype, Value: plan.Spec.Dtype.String()},
		hsf.Attr{Name: attrNumSources, Value: int64(len(plan.Partitions))},
		hsf.Attr{Name: attrSourcePattern, Value: plan.Pattern},
	)
	if plan.OriginalFile != "" {
		attrs.File = append(attrs.File, hsf.Attr{Name: attrOriginalFile, Value: plan.OriginalFile})
	}

	attrs.Dataset = append(attrs.Dataset,
		hsf.Attr{Name: attrSourceFiles, Value: plan.SourceFiles()},
	)
	if frames := uniformFrames(plan); frames >= 0 {
		attrs.Dataset = append(attrs.Dataset, hsf.Attr{Name: attrFramesPerFile, Value: frames})
	}
	for _, part := range plan.Partitions {
		attrs.Dataset = append(attrs.Dataset,
			hsf.Attr{Name: sourceKey(part.Index, "file"), Value: part.Target.Path},
			hsf.Attr{Name: sourceKey(part.Index, "start"), Value: part.Start},
			hsf.Attr{Name: sourceKey(part.Index, "end"), Value: part.End},
			hsf.Attr{Name: sourceKey(part.Index, "frames"), Value: part.Frames()},
			hsf.Attr{Name: sourceKey(part.Index, "kind"), Value: part.Target.Kind.String()},
		)
	}
	return attrs, nil
}

// uniformFrames returns the leading partition size when it is advisory
// for the whole plan, or -1 when there is no sensible single value.
func uniformFrames(plan *Plan) int64 {
	if len(plan.Partitions) == 0 {
		return -1
	}
	return plan.Partitions[0].Frames()
}

// DecodePlan reconstructs a plan from container metadata. Missing or
// inconsistent keys are reported as SchemaErrors. Plans written by older
// tooling that only carried the file-level spec are accepted: the
// partition layout is derived from the frame count and re-validated.
func DecodePlan(attrs *PlanAttrs) (*Plan, error) {
	shape, err := attrInt64Slice(attrs.File, attrShape)
	if err != nil {
		return nil, err
	}
	dtypeToken, err := attrString(attrs.File, attrDtype)
	if err != nil {
		return nil, err
	}
	dtype, err := hsf.ParseDtype(dtypeToken)
	if err != nil {
		return nil, schemaf("%s: %v", attrDtype, err)
	}
	numSources, err := attrInt64(attrs.File, attrNumSources)
	if err != nil {
		return nil, err
	}
	if numSources < 1 {
		return nil, schemaf("%s must be positive, got %d", attrNumSources, numSources)
	}
	pattern, err := attrString(attrs.File, attrSourcePattern)
	if err != nil {
		return nil, err
	}
	originalFile, _ := lookupString(attrs.File, attrOriginalFile)

	files, err := attrStringSlice(attrs.Dataset, attrSourceFiles)
	if err != nil {
		return nil, err
	}
	if int64(len(files)) != numSources {
		return nil, schemaf("%s lists %d files but %s is %d", attrSourceFiles, len(files), attrNumSources, numSources)
	}

	plan := &Plan{
		Spec: Spec{
			Shape:   shape,
			Dtype:   dtype,
			Dataset: "", // filled by the caller from the dataset it read
		},
		Pattern:      pattern,
		OriginalFile: originalFile,
		Partitions:   make([]Partition, numSources),
	}

	if err := checkDecodedShape(shape); err != nil {
		return nil, err
	}

	if _, ok := lookupInt64(attrs.Dataset, sourceKey(0, "start")); ok {
		if err := decodePartitionAttrs(plan, attrs.Dataset, files); err != nil {
			return nil, err
		}
	} else {
		// Older layout: only the file list survives. The remainder rule
		// pins the partition boundaries, so rebuild them.
		if err := derivePartitions(plan, files); err != nil {
			return nil, err
		}
	}

	if err := plan.validatePartitions(); err != nil {
		return nil, err
	}
	return plan, nil
}

func checkDecodedShape(shape []int64) error {
	if len(shape) == 0 {
		return schemaf("%s is empty", attrShape)
	}
	if shape[0] < 0 {
		return schemaf("%s has negative leading dimension: %v", attrShape, shape)
	}
	for _, d := range shape[1:] {
		if d < 1 {
			return schemaf("%s has non-positive trailing dimension: %v", attrShape, shape)
		}
	}
	return nil
}

func decodePartitionAttrs(plan *Plan, attrs []hsf.Attr, files []string) error {
	for i := range plan.Partitions {
		file, err := attrString(attrs, sourceKey(i, "file"))
		if err != nil {
			return err
		}
		if file != files[i] {
			return schemaf("%s is %q but %s[%d] is %q", sourceKey(i, "file"), file, attrSourceFiles, i, files[i])
		}
		start, err := attrInt64(attrs, sourceKey(i, "start"))
		if err != nil {
			return err
		}
		end, err := attrInt64(attrs, sourceKey(i, "end"))
		if err != nil {
			return err
		}
		frames, err := attrInt64(attrs, sourceKey(i, "frames"))
		if err != nil {
			return err
		}
		if end-start != frames {
			return schemaf("%s range [%d,%d) disagrees with frame count %d", sourceKey(i, "file"), start, end, frames)
		}

		kind := KindShard
		if token, ok := lookupString(attrs, sourceKey(i, "kind")); ok {
			kind, err = parseTargetKind(token)
			if err != nil {
				return schemaf("%s: %v", sourceKey(i, "kind"), err)
			}
		}

		target := Target{Kind: kind, Path: file}
		switch kind {
		case KindShard:
			target.Start, target.End = 0, frames
		case KindView:
			target.Start, target.End = start, end
		}
		plan.Partitions[i] = Partition{Index: i, Start: start, End: end, Target: target}
	}
	return nil
}

func derivePartitions(plan *Plan, files []string) error {
	sizes, err := Divide(plan.Spec.Frames(), len(files))
	if err != nil {
		return schemaf("deriving partitions: %v", err)
	}
	offset := int64(0)
	for i, size := range sizes {
		start, end := offset, offset+size
		offset = end
		plan.Partitions[i] = Partition{
			Index: i,
			Start: start,
			End:   end,
			Target: Target{
				Kind:  KindShard,
				Path:  files[i],
				Start: 0,
				End:   size,
			},
		}
	}
	return nil
}

// WritePlan stores a plan's metadata on a container and one of its
// datasets. The dataset must already exist.
func WritePlan(f *hsf.File, ds *hsf.Dataset, plan *Plan) error {
	attrs, err := EncodePlan(plan)
	if err != nil {
		return err
	}
	for _, a := range attrs.File {
		if err := f.SetAttr(a.Name, a.Value); err != nil {
			return fmt.Errorf("writing %s: %w", a.Name, err)
		}
	}
	for _, a := range attrs.Dataset {
		if err := ds.SetAttr(a.Name, a.Value); err != nil {
			return fmt.Errorf("writing %s: %w", a.Name, err)
		}
	}
	return nil
}

// ReadPlan loads and validates a plan from a container. An empty dataset
// name selects "data" when present, otherwise the first dataset in the
// root group. The decoded spec is cross-checked against the dataset it
// was read from.
func ReadPlan(f *hsf.File, datasetName string) (*Plan, *hsf.Dataset, error) {
	if datasetName == "" {
		name, err := defaultDatasetName(f)
		if err != nil {
			return nil, nil, err
		}
		datasetName = name
	}
	ds, err := f.OpenDataset(datasetName)
	if err != nil {
		return nil, nil, err
	}

	plan, err := DecodePlan(&PlanAttrs{File: f.Attrs(), Dataset: ds.Attrs()})
	if err != nil {
		return nil, nil, err
	}
	plan.Spec.Dataset = ds.Name()

	if !int64SlicesEqual(plan.Spec.Shape, ds.Shape()) {
		return nil, nil, schemaf("%s %v disagrees with dataset shape %v", attrShape, plan.Spec.Shape, ds.Shape())
	}
	if plan.Spec.Dtype != ds.Dtype() {
		return nil, nil, schemaf("%s %q disagrees with dataset dtype %q", attrDtype, plan.Spec.Dtype, ds.Dtype())
	}
	if err := plan.Validate(); err != nil {
		return nil, nil, err
	}
	return plan, ds, nil
}

func defaultDatasetName(f *hsf.File) (string, error) {
	names, err := f.Root().Datasets()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", schemaf("container has no datasets")
	}
	for _, name := range names {
		if name == "data" {
			return name, nil
		}
	}
	return names[0], nil
}

func int64SlicesEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Attribute lookup helpers. The strict variants report missing or
// mistyped keys as SchemaErrors.

func lookupValue(attrs []hsf.Attr, name string) (any, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

func lookupString(attrs []hsf.Attr, name string) (string, bool) {
	v, ok := lookupValue(attrs, name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func lookupInt64(attrs []hsf.Attr, name string) (int64, bool) {
	v, ok := lookupValue(attrs, name)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

func attrString(attrs []hsf.Attr, name string) (string, error) {
	v, ok := lookupValue(attrs, name)
	if !ok {
		return "", schemaf("missing attribute %s", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", schemaf("attribute %s has type %T, want string", name, v)
	}
	return s, nil
}

func attrInt64(attrs []hsf.Attr, name string) (int64, error) {
	v, ok := lookupValue(attrs, name)
	if !ok {
		return 0, schemaf("missing attribute %s", name)
	}
	n, ok := v.(int64)
	if !ok {
		return 0, schemaf("attribute %s has type %T, want int64", name, v)
	}
	return n, nil
}

func attrInt64Slice(attrs []hsf.Attr, name string) ([]int64, error) {
	v, ok := lookupValue(attrs, name)
	if !ok {
		return nil, schemaf("missing attribute %s", name)
	}
	s, ok := v.([]int64)
	if !ok {
		return nil, schemaf("attribute %s has type %T, want []int64", name, v)
	}
	return s, nil
}

func attrStringSlice(attrs []hsf.Attr, name string) ([]string, error) {
	v, ok := lookupValue(attrs, name)
	if !ok {
		return nil, schemaf("missing attribute %s", name)
	}
	s, ok := v.([]string)
	if !ok {
		return nil, schemaf("attribute %s has type %T, want []string", name, v)
	}
	return s, nil
}
