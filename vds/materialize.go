package vds

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/go-vds/hsf"
)

// copyChunkFrames bounds the working buffer for bulk writes.
const copyChunkFrames = 4096

// DataSource populates a freshly created shard dataset with the frames
// of one partition.
type DataSource interface {
	Populate(ds *hsf.Dataset, plan *Plan, p Partition) error
}

// ZeroFill leaves every frame at zero. Shard datasets read back as zeros
// without any writes, so Populate is a no-op.
type ZeroFill struct{}

func (ZeroFill) Populate(ds *hsf.Dataset, plan *Plan, p Partition) error {
	return nil
}

// SyntheticRandom fills each partition with reproducible random data.
// The stream is keyed by Seed and the partition index, so shards can be
// rebuilt independently and still match.
type SyntheticRandom struct {
	Seed int64
}

// newPartitionRNG keys the random stream by seed and partition index so
// each shard's content is independent of the others.
func newPartitionRNG(seed int64, index int) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(index)))
}

func (s SyntheticRandom) Populate(ds *hsf.Dataset, plan *Plan, p Partition) error {
	rng := newPartitionRNG(s.Seed, p.Index)
	elems := plan.Spec.FrameSize() / plan.Spec.Dtype.Size()
	for offset := int64(0); offset < p.Frames(); offset += copyChunkFrames {
		frames := min(copyChunkFrames, p.Frames()-offset)
		buf := plan.Spec.Dtype.Random(rng, frames*elems)
		if err := ds.WriteSlab(offset, buf); err != nil {
			return err
		}
	}
	return nil
}

// CopyFrom reads each partition's frames out of an existing container
// and writes them into the shard. Path is the origin container; the
// origin dataset name comes from the plan.
type CopyFrom struct {
	Path string
}

func (c CopyFrom) Populate(ds *hsf.Dataset, plan *Plan, p Partition) error {
	origin, err := hsf.Open(c.Path)
	if err != nil {
		return fmt.Errorf("opening origin: %w", err)
	}
	defer origin.Close()

	src, err := origin.OpenDataset(plan.Spec.Dataset)
	if err != nil {
		return fmt.Errorf("opening origin dataset: %w", err)
	}

	for offset := int64(0); offset < p.Frames(); offset += copyChunkFrames {
		frames := min(copyChunkFrames, p.Frames()-offset)
		buf, err := src.ReadSlab(p.Start+offset, p.Start+offset+frames)
		if err != nil {
			return fmt.Errorf("reading origin frames: %w", err)
		}
		if err := ds.WriteSlab(offset, buf); err != nil {
			return err
		}
	}
	return nil
}

// ExistsPolicy controls what happens when a shard file already exists.
type ExistsPolicy uint8

const (
	// ExistsFail records the partition as failed.
	ExistsFail ExistsPolicy = iota
	// ExistsSkip leaves the file untouched and records a skip.
	ExistsSkip
	// ExistsOverwrite replaces the file.
	ExistsOverwrite
)

// Status classifies a partition's outcome.
type Status uint8

const (
	StatusCreated Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Outcome records what happened to one partition.
type Outcome struct {
	Index  int
	Path   string
	Status Status
	Detail string
	Err    error
}

// Report aggregates per-partition outcomes in partition order.
type Report struct {
	Outcomes []Outcome
}

func (r *Report) count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Created returns the number of shards written.
func (r *Report) Created() int { return r.count(StatusCreated) }

// Skipped returns the number of partitions left untouched.
func (r *Report) Skipped() int { return r.count(StatusSkipped) }

// Failed returns the number of partitions that could not be written.
func (r *Report) Failed() int { return r.count(StatusFailed) }

// Ok reports whether no partition failed.
func (r *Report) Ok() bool { return r.Failed() == 0 }

// Materializer writes the physical shard containers a plan describes.
type Materializer struct {
	dir      string
	policy   ExistsPolicy
	workers  int
	progress ProgressFunc
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithDir sets the directory relative target paths resolve against.
func WithDir(dir string) MaterializerOption {
	return func(m *Materializer) {
		m.dir = dir
	}
}

// WithExistsPolicy sets the behavior for pre-existing shard files.
func WithExistsPolicy(p ExistsPolicy) MaterializerOption {
	return func(m *Materializer) {
		m.policy = p
	}
}

// WithWorkers bounds the number of shards written concurrently.
func WithWorkers(n int) MaterializerOption {
	return func(m *Materializer) {
		m.workers = n
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) MaterializerOption {
	return func(m *Materializer) {
		m.progress = fn
	}
}

// NewMaterializer builds a Materializer with the given options.
func NewMaterializer(opts ...MaterializerOption) *Materializer {
	m := &Materializer{dir: ".", workers: 1}
	for _, opt := range opts {
		opt(m)
	}
	if m.workers < 1 {
		m.workers = 1
	}
	return m
}

func (m *Materializer) emit(e Event) {
	if m.progress != nil {
		m.progress(e)
	}
}

// Materialize writes every shard partition of the plan, populating each
// with src. View partitions need no physical file and are recorded as
// skipped. A failing partition never aborts the run: its outcome carries
// the error and the remaining partitions proceed. The returned error is
// non-nil only when the run itself could not proceed, such as a
// cancelled context.
func (m *Materializer) Materialize(ctx context.Context, plan *Plan, src DataSource) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	report := &Report{Outcomes: make([]Outcome, len(plan.Partitions))}
	var mu sync.Mutex
	record := func(o Outcome) {
		mu.Lock()
		report.Outcomes[o.Index] = o
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for _, part := range plan.Partitions {
		part := part
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				record(Outcome{Index: part.Index, Path: part.Target.Path, Status: StatusFailed, Err: err})
				return nil
			}
			record(m.materializeOne(plan, part, src))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (m *Materializer) materializeOne(plan *Plan, part Partition, src DataSource) Outcome {
	if part.Target.Kind == KindView {
		m.emit(Event{Stage: StageSkipped, Partition: part.Index, Path: part.Target.Path, Frames: part.Frames()})
		return Outcome{Index: part.Index, Path: part.Target.Path, Status: StatusSkipped, Detail: "view target, no file to write"}
	}

	path := part.Target.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.dir, path)
	}

	if _, err := os.Stat(path); err == nil {
		switch m.policy {
		case ExistsSkip:
			m.emit(Event{Stage: StageSkipped, Partition: part.Index, Path: path, Frames: part.Frames()})
			return Outcome{Index: part.Index, Path: path, Status: StatusSkipped, Detail: "file exists"}
		case ExistsFail:
			err := fmt.Errorf("%s: %w", path, fs.ErrExist)
			m.emit(Event{Stage: StageFailed, Partition: part.Index, Path: path, Err: err})
			return Outcome{Index: part.Index, Path: path, Status: StatusFailed, Err: err}
		}
	}

	m.emit(Event{Stage: StageCreating, Partition: part.Index, Path: path, Frames: part.Frames()})

	if err := m.writeShard(path, plan, part, src); err != nil {
		os.Remove(path)
		m.emit(Event{Stage: StageFailed, Partition: part.Index, Path: path, Err: err})
		return Outcome{Index: part.Index, Path: path, Status: StatusFailed, Err: err}
	}

	m.emit(Event{Stage: StageCreated, Partition: part.Index, Path: path, Frames: part.Frames()})
	return Outcome{Index: part.Index, Path: path, Status: StatusCreated}
}

func (m *Materializer) writeShard(path string, plan *Plan, part Partition, src DataSource) error {
	f, err := hsf.Create(path)
	if err != nil {
		return err
	}

	ds, err := f.Root().CreateDataset(plan.Spec.Dataset, plan.PartitionShape(part), plan.Spec.Dtype)
	if err != nil {
		f.Close()
		return err
	}
	if err := ds.SetAttr("global_start", part.Start); err != nil {
		f.Close()
		return err
	}
	if err := ds.SetAttr("global_end", part.End); err != nil {
		f.Close()
		return err
	}

	if err := src.Populate(ds, plan, part); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
