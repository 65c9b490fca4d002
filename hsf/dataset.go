package hsf

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

// layout classes
const (
	layoutContiguous = 0
	layoutVirtual    = 1
)

// VirtualEntry maps the logical frame range [Start, End) of a virtual
// dataset onto frames of a dataset in another container, beginning at
// SourceStart. SourceFile is resolved relative to the referencing
// container's directory unless absolute.
type VirtualEntry struct {
	Start         int64
	End           int64
	SourceFile    string
	SourceDataset string
	SourceStart   int64
}

// Dataset represents a dataset within an hsf container.
type Dataset struct {
	file  *File
	path  string
	shape []int64
	kind  Dtype
	fill  float64
	attrs []Attr

	virtual bool
	// contiguous layout
	dataAddr uint64
	dataSize uint64
	// virtual layout, sorted by Start
	entries []VirtualEntry
}

// openDatasetAt parses a dataset object block.
func (f *File) openDatasetAt(addr uint64, dsPath string) (*Dataset, error) {
	r, err := f.readBlock(addr, sigDataset)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", dsPath, err)
	}

	ds := &Dataset{file: f, path: dsPath}

	kind, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	ds.kind = Dtype(kind)
	if !ds.kind.Valid() {
		return nil, fmt.Errorf("%w: dataset %s has invalid dtype %d", ErrCorrupt, dsPath, kind)
	}

	class, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	rank, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	ds.shape = make([]int64, rank)
	for i := range ds.shape {
		if ds.shape[i], err = r.ReadInt64(); err != nil {
			return nil, err
		}
	}
	if ds.fill, err = r.ReadFloat64(); err != nil {
		return nil, err
	}
	if ds.attrs, err = decodeAttrs(r); err != nil {
		return nil, fmt.Errorf("dataset %s attributes: %w", dsPath, err)
	}

	switch class {
	case layoutContiguous:
		if ds.dataAddr, err = r.ReadUint64(); err != nil {
			return nil, err
		}
		if ds.dataSize, err = r.ReadUint64(); err != nil {
			return nil, err
		}
	case layoutVirtual:
		ds.virtual = true
		count, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		ds.entries = make([]VirtualEntry, count)
		for i := range ds.entries {
			e := &ds.entries[i]
			if e.Start, err = r.ReadInt64(); err != nil {
				return nil, err
			}
			if e.End, err = r.ReadInt64(); err != nil {
				return nil, err
			}
			if e.SourceFile, err = r.ReadString(); err != nil {
				return nil, err
			}
			if e.SourceDataset, err = r.ReadString(); err != nil {
				return nil, err
			}
			if e.SourceStart, err = r.ReadInt64(); err != nil {
				return nil, err
			}
		}
		sortEntries(ds.entries)
		if err := checkEntries(ds.entries, ds.Frames()); err != nil {
			return nil, fmt.Errorf("%w: dataset %s: %v", ErrCorrupt, dsPath, err)
		}
	default:
		return nil, fmt.Errorf("%w: dataset %s has layout class %d", ErrCorrupt, dsPath, class)
	}

	return ds, nil
}

// Name returns the dataset name (last path component).
func (d *Dataset) Name() string {
	return path.Base(d.path)
}

// Path returns the full path of the dataset.
func (d *Dataset) Path() string {
	return d.path
}

// Shape returns the dataset dimensions.
func (d *Dataset) Shape() []int64 {
	out := make([]int64, len(d.shape))
	copy(out, d.shape)
	return out
}

// Dtype returns the element type.
func (d *Dataset) Dtype() Dtype {
	return d.kind
}

// Frames returns the extent of the leading axis.
func (d *Dataset) Frames() int64 {
	return d.shape[0]
}

// FrameSize returns the byte size of one frame: the product of the
// trailing dimensions times the element size.
func (d *Dataset) FrameSize() int64 {
	size := d.kind.Size()
	for _, dim := range d.shape[1:] {
		size *= dim
	}
	return size
}

// FillValue returns the scalar fill value used for unmapped or missing
// regions of virtual datasets.
func (d *Dataset) FillValue() float64 {
	return d.fill
}

// IsVirtual reports whether the dataset uses a virtual layout.
func (d *Dataset) IsVirtual() bool {
	return d.virtual
}

// VirtualEntries returns the mapping table of a virtual dataset, sorted
// by logical start. It is nil for physical datasets.
func (d *Dataset) VirtualEntries() []VirtualEntry {
	if !d.virtual {
		return nil
	}
	out := make([]VirtualEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Attr returns an attribute value by name.
func (d *Dataset) Attr(name string) (any, bool) {
	return lookupAttr(d.attrs, name)
}

// Attrs returns the dataset's attributes in insertion order.
func (d *Dataset) Attrs() []Attr {
	out := make([]Attr, len(d.attrs))
	copy(out, d.attrs)
	return out
}

// ReadSlab reads frames [start, end) of the leading axis and returns
// their raw little-endian bytes.
func (d *Dataset) ReadSlab(start, end int64) ([]byte, error) {
	if d.file.closed {
		return nil, ErrClosed
	}
	if start < 0 || start > end || end > d.Frames() {
		return nil, fmt.Errorf("frames [%d,%d) of %d: %w", start, end, d.Frames(), ErrOutOfBounds)
	}
	if start == end {
		return nil, nil
	}
	if d.virtual {
		return d.readVirtual(start, end)
	}

	buf := make([]byte, (end-start)*d.FrameSize())
	r := d.file.reader.At(int64(d.dataAddr) + start*d.FrameSize())
	if err := r.ReadInto(buf); err != nil {
		return nil, fmt.Errorf("reading %s frames [%d,%d): %w", d.path, start, end, err)
	}
	return buf, nil
}

// ReadAll reads the entire dataset.
func (d *Dataset) ReadAll() ([]byte, error) {
	return d.ReadSlab(0, d.Frames())
}

// readVirtual resolves [start, end) through the mapping table. The
// covering entry for each position is found by binary search over the
// sorted logical starts. Unmapped gaps and missing source files yield
// the fill value.
func (d *Dataset) readVirtual(start, end int64) ([]byte, error) {
	frameSize := d.FrameSize()
	out := make([]byte, (end-start)*frameSize)

	// First entry whose range can still overlap [start, end).
	idx := sort.Search(len(d.entries), func(i int) bool {
		return d.entries[i].End > start
	})

	pos := start
	for pos < end {
		if idx >= len(d.entries) || d.entries[idx].Start >= end {
			d.fillRange(out, pos-start, end-start)
			break
		}
		e := d.entries[idx]

		if pos < e.Start {
			d.fillRange(out, pos-start, e.Start-start)
			pos = e.Start
		}

		stop := e.End
		if stop > end {
			stop = end
		}
		if err := d.readSourceRange(e, pos, stop, out[(pos-start)*frameSize:(stop-start)*frameSize]); err != nil {
			return nil, err
		}
		pos = stop
		idx++
	}
	return out, nil
}

// readSourceRange reads logical frames [pos, stop) covered by entry e
// into dst. A source container that does not exist yet is not an error:
// the region reads back as the fill value.
func (d *Dataset) readSourceRange(e VirtualEntry, pos, stop int64, dst []byte) error {
	src, err := d.file.openSource(e.SourceFile)
	if errors.Is(err, fs.ErrNotExist) {
		copy(dst, d.kind.FillPattern(d.fill, (stop-pos)*d.frameElems()))
		return nil
	}
	if err != nil {
		return err
	}

	sd, err := src.OpenDataset(e.SourceDataset)
	if err != nil {
		return fmt.Errorf("source %q: %w", e.SourceFile, err)
	}
	srcStart := e.SourceStart + (pos - e.Start)
	buf, err := sd.ReadSlab(srcStart, srcStart+(stop-pos))
	if err != nil {
		return fmt.Errorf("source %q: %w", e.SourceFile, err)
	}
	copy(dst, buf)
	return nil
}

// fillRange writes the fill value over frames [from, to) of out, both
// relative to the slab being assembled.
func (d *Dataset) fillRange(out []byte, from, to int64) {
	if d.fill == 0 {
		return // out is zeroed already
	}
	frameSize := d.FrameSize()
	copy(out[from*frameSize:to*frameSize], d.kind.FillPattern(d.fill, (to-from)*d.frameElems()))
}

// frameElems returns the number of elements in one frame.
func (d *Dataset) frameElems() int64 {
	n := int64(1)
	for _, dim := range d.shape[1:] {
		n *= dim
	}
	return n
}

func sortEntries(entries []VirtualEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Start < entries[j].Start
	})
}
