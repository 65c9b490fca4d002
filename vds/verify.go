package vds

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/robert-malhotra/go-vds/hsf"
)

// GroundTruth supplies the expected bytes for a frame range.
type GroundTruth interface {
	ReadFrames(start, end int64) ([]byte, error)
	Close() error
}

// OriginalTruth reads expected frames out of the container the plan was
// derived from. The container is opened lazily on first read.
type OriginalTruth struct {
	Path    string
	Dataset string

	file *hsf.File
	ds   *hsf.Dataset
}

func (t *OriginalTruth) open() error {
	if t.ds != nil {
		return nil
	}
	f, err := hsf.Open(t.Path)
	if err != nil {
		return err
	}
	ds, err := f.OpenDataset(t.Dataset)
	if err != nil {
		f.Close()
		return err
	}
	t.file, t.ds = f, ds
	return nil
}

func (t *OriginalTruth) ReadFrames(start, end int64) ([]byte, error) {
	if err := t.open(); err != nil {
		return nil, err
	}
	return t.ds.ReadSlab(start, end)
}

func (t *OriginalTruth) Close() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file, t.ds = nil, nil
	return err
}

// ShardTruth reads expected frames straight from the shard files,
// bypassing the virtual layer. Shards open lazily and stay cached until
// Close.
type ShardTruth struct {
	Plan *Plan
	Dir  string

	files map[int]*hsf.File
}

func (t *ShardTruth) shard(part Partition) (*hsf.Dataset, error) {
	if t.files == nil {
		t.files = make(map[int]*hsf.File)
	}
	f, ok := t.files[part.Index]
	if !ok {
		path := part.Target.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(t.Dir, path)
		}
		var err error
		f, err = hsf.Open(path)
		if err != nil {
			return nil, err
		}
		t.files[part.Index] = f
	}
	return f.OpenDataset(t.Plan.Spec.Dataset)
}

func (t *ShardTruth) ReadFrames(start, end int64) ([]byte, error) {
	if start < 0 || end < start || end > t.Plan.Spec.Frames() {
		return nil, fmt.Errorf("range [%d,%d) of %d frames: %w", start, end, t.Plan.Spec.Frames(), ErrOutOfRange)
	}
	out := make([]byte, 0, (end-start)*t.Plan.Spec.FrameSize())
	pos := start
	for pos < end {
		idx, err := t.Plan.Find(pos)
		if err != nil {
			return nil, err
		}
		part := t.Plan.Partitions[idx]
		ds, err := t.shard(part)
		if err != nil {
			return nil, err
		}
		stop := min(end, part.End)
		buf, err := ds.ReadSlab(part.Target.Start+pos-part.Start, part.Target.Start+stop-part.Start)
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)
		pos = stop
	}
	return out, nil
}

func (t *ShardTruth) Close() error {
	var first error
	for _, f := range t.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	t.files = nil
	return first
}

// SyntheticTruth regenerates the expected random stream for a plan
// materialized with SyntheticRandom under the same seed.
type SyntheticTruth struct {
	Plan *Plan
	Seed int64
}

func (t *SyntheticTruth) ReadFrames(start, end int64) ([]byte, error) {
	if start < 0 || end < start || end > t.Plan.Spec.Frames() {
		return nil, fmt.Errorf("range [%d,%d) of %d frames: %w", start, end, t.Plan.Spec.Frames(), ErrOutOfRange)
	}
	src := SyntheticRandom{Seed: t.Seed}
	frameSize := t.Plan.Spec.FrameSize()
	out := make([]byte, 0, (end-start)*frameSize)
	for _, part := range t.Plan.Partitions {
		if part.End <= start || part.Start >= end {
			continue
		}
		buf, err := src.partitionBytes(t.Plan, part)
		if err != nil {
			return nil, err
		}
		lo := max(start, part.Start) - part.Start
		hi := min(end, part.End) - part.Start
		out = append(out, buf[lo*frameSize:hi*frameSize]...)
	}
	return out, nil
}

func (t *SyntheticTruth) Close() error { return nil }

// ConstantTruth expects every element to hold the same value, as after
// materializing with ZeroFill.
type ConstantTruth struct {
	Plan  *Plan
	Value float64
}

func (t *ConstantTruth) ReadFrames(start, end int64) ([]byte, error) {
	if start < 0 || end < start || end > t.Plan.Spec.Frames() {
		return nil, fmt.Errorf("range [%d,%d) of %d frames: %w", start, end, t.Plan.Spec.Frames(), ErrOutOfRange)
	}
	elems := (end - start) * t.Plan.Spec.FrameSize() / t.Plan.Spec.Dtype.Size()
	return t.Plan.Spec.Dtype.FillPattern(t.Value, elems), nil
}

func (t *ConstantTruth) Close() error { return nil }

// partitionBytes regenerates a whole partition's stream. Verification
// reads are frame-granular but the generator is stream-granular, so the
// partition is always produced from its beginning.
func (s SyntheticRandom) partitionBytes(plan *Plan, p Partition) ([]byte, error) {
	rng := newPartitionRNG(s.Seed, p.Index)
	elems := plan.Spec.FrameSize() / plan.Spec.Dtype.Size()
	out := make([]byte, 0, p.Frames()*plan.Spec.FrameSize())
	for offset := int64(0); offset < p.Frames(); offset += copyChunkFrames {
		frames := min(copyChunkFrames, p.Frames()-offset)
		out = append(out, plan.Spec.Dtype.Random(rng, frames*elems)...)
	}
	return out, nil
}

// Mismatch reports one frame whose bytes differ from the ground truth.
type Mismatch struct {
	Frame  int64
	Detail string
}

// Result summarizes a verification run. Mismatches are data, not errors:
// an I/O failure aborts with an error instead.
type Result struct {
	Passed     bool
	Checked    int64
	Mismatches []Mismatch
}

// maxMismatches bounds the report so a totally wrong view does not
// produce one entry per frame.
const maxMismatches = 32

// SampleFrames returns the default spot-check frames for an extent: the
// first, the middle, and the last frame, deduplicated for tiny extents.
func SampleFrames(frames int64) []int64 {
	if frames <= 0 {
		return nil
	}
	candidates := []int64{0, frames / 2, frames - 1}
	out := candidates[:1]
	for _, f := range candidates[1:] {
		if f != out[len(out)-1] {
			out = append(out, f)
		}
	}
	return out
}

// Verify compares the view against the ground truth at the given
// frames. A nil frame list spot-checks the first, middle, and last
// frame.
func Verify(view *View, truth GroundTruth, frames []int64) (*Result, error) {
	if frames == nil {
		frames = SampleFrames(view.Frames())
	}
	res := &Result{Passed: true}
	for _, frame := range frames {
		got, err := view.ReadFrame(frame)
		if err != nil {
			return nil, fmt.Errorf("reading view frame %d: %w", frame, err)
		}
		want, err := truth.ReadFrames(frame, frame+1)
		if err != nil {
			return nil, fmt.Errorf("reading truth frame %d: %w", frame, err)
		}
		res.Checked++
		if !bytes.Equal(got, want) {
			res.Passed = false
			if len(res.Mismatches) < maxMismatches {
				res.Mismatches = append(res.Mismatches, Mismatch{
					Frame:  frame,
					Detail: firstDifference(got, want),
				})
			}
		}
	}
	return res, nil
}

// VerifyFull compares every frame of the view against the ground truth,
// in chunks.
func VerifyFull(view *View, truth GroundTruth) (*Result, error) {
	res := &Result{Passed: true}
	frameSize := view.plan.Spec.FrameSize()
	total := view.Frames()

	for start := int64(0); start < total; start += copyChunkFrames {
		end := min(start+copyChunkFrames, total)
		got, err := view.ReadRange(start, end)
		if err != nil {
			return nil, fmt.Errorf("reading view frames [%d,%d): %w", start, end, err)
		}
		want, err := truth.ReadFrames(start, end)
		if err != nil {
			return nil, fmt.Errorf("reading truth frames [%d,%d): %w", start, end, err)
		}
		for frame := start; frame < end; frame++ {
			lo := (frame - start) * frameSize
			hi := lo + frameSize
			res.Checked++
			if !bytes.Equal(got[lo:hi], want[lo:hi]) {
				res.Passed = false
				if len(res.Mismatches) < maxMismatches {
					res.Mismatches = append(res.Mismatches, Mismatch{
						Frame:  frame,
						Detail: firstDifference(got[lo:hi], want[lo:hi]),
					})
				}
			}
		}
	}
	return res, nil
}

func firstDifference(got, want []byte) string {
	if len(got) != len(want) {
		return fmt.Sprintf("length %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			return fmt.Sprintf("byte %d is 0x%02x, want 0x%02x", i, got[i], want[i])
		}
	}
	return "identical"
}
