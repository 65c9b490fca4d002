package hsf

import (
	"fmt"

	"github.com/robert-malhotra/go-vds/internal/binary"
)

// CreateGroup creates a child group.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.checkCreate(name); err != nil {
		return nil, err
	}

	child := &Group{file: g.file, path: joinPath(g.path, name), loaded: true}
	g.entries = append(g.entries, groupEntry{name: name, kind: entryGroup, group: child})
	return child, nil
}

// CreateDataset creates a physical dataset with dense, exactly-sized
// storage. shape[0] is the frame count along the leading axis and may be
// zero; trailing dimensions must be positive.
func (g *Group) CreateDataset(name string, shape []int64, kind Dtype, opts ...DatasetOption) (*Dataset, error) {
	if err := g.checkCreate(name); err != nil {
		return nil, err
	}
	if err := checkShape(shape, kind); err != nil {
		return nil, err
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}

	ds := &Dataset{
		file:  g.file,
		path:  joinPath(g.path, name),
		shape: append([]int64(nil), shape...),
		kind:  kind,
		fill:  options.fill,
		attrs: options.attrs,
	}

	size := uint64(ds.Frames() * ds.FrameSize())
	ds.dataSize = size
	if size > 0 {
		ds.dataAddr = g.file.allocator.Alloc(size)
		// Extend the file over the whole data region up front so
		// unwritten frames read back as zeros.
		w := g.file.writer.At(int64(ds.dataAddr+size) - 1)
		if err := w.WriteBytes([]byte{0}); err != nil {
			return nil, fmt.Errorf("reserving data region: %w", err)
		}
	}

	g.entries = append(g.entries, groupEntry{name: name, kind: entryDataset, dataset: ds})
	return ds, nil
}

// CreateVirtualDataset creates a dataset whose frames are mapped onto
// ranges of other containers. Entries must be disjoint and lie within the
// dataset's leading extent; they are kept sorted by logical start. Gaps
// between entries read back as the fill value.
func (g *Group) CreateVirtualDataset(name string, shape []int64, kind Dtype, entries []VirtualEntry, opts ...DatasetOption) (*Dataset, error) {
	if err := g.checkCreate(name); err != nil {
		return nil, err
	}
	if err := checkShape(shape, kind); err != nil {
		return nil, err
	}

	options := defaultDatasetOptions()
	for _, opt := range opts {
		opt(options)
	}

	sorted := append([]VirtualEntry(nil), entries...)
	sortEntries(sorted)
	if err := checkEntries(sorted, shape[0]); err != nil {
		return nil, err
	}

	ds := &Dataset{
		file:    g.file,
		path:    joinPath(g.path, name),
		shape:   append([]int64(nil), shape...),
		kind:    kind,
		fill:    options.fill,
		attrs:   options.attrs,
		virtual: true,
		entries: sorted,
	}

	g.entries = append(g.entries, groupEntry{name: name, kind: entryDataset, dataset: ds})
	return ds, nil
}

// SetAttr sets a group attribute. The file must be writable.
func (g *Group) SetAttr(name string, value any) error {
	if g.file.closed {
		return ErrClosed
	}
	if !g.file.writable {
		return ErrReadOnly
	}
	v, err := normalizeAttrValue(value)
	if err != nil {
		return err
	}
	g.attrs = setAttr(g.attrs, name, v)
	return nil
}

func (g *Group) checkCreate(name string) error {
	if g.file.closed {
		return ErrClosed
	}
	if !g.file.writable {
		return ErrReadOnly
	}
	if name == "" {
		return fmt.Errorf("object name cannot be empty")
	}
	for _, e := range g.entries {
		if e.name == name {
			return fmt.Errorf("%q in %s: %w", name, g.path, ErrExists)
		}
	}
	return nil
}

func checkShape(shape []int64, kind Dtype) error {
	if len(shape) == 0 {
		return fmt.Errorf("dataset shape must have at least one dimension")
	}
	if shape[0] < 0 {
		return fmt.Errorf("leading dimension cannot be negative: %d", shape[0])
	}
	for _, d := range shape[1:] {
		if d < 1 {
			return fmt.Errorf("trailing dimensions must be positive: %v", shape)
		}
	}
	if !kind.Valid() {
		return fmt.Errorf("invalid dtype")
	}
	return nil
}

func checkEntries(entries []VirtualEntry, frames int64) error {
	prevEnd := int64(0)
	for i, e := range entries {
		if e.Start < 0 || e.End < e.Start || e.End > frames {
			return fmt.Errorf("mapping entry %d: range [%d,%d) outside extent %d", i, e.Start, e.End, frames)
		}
		if e.Start < prevEnd {
			return fmt.Errorf("mapping entry %d: overlaps previous entry", i)
		}
		if e.SourceFile == "" || e.SourceDataset == "" {
			return fmt.Errorf("mapping entry %d: missing source reference", i)
		}
		if e.SourceStart < 0 {
			return fmt.Errorf("mapping entry %d: negative source offset", i)
		}
		prevEnd = e.End
	}
	return nil
}

// writeGroupTree serializes a group and its descendants depth-first,
// returning the group's block address.
func (f *File) writeGroupTree(g *Group) (uint64, error) {
	for i := range g.entries {
		e := &g.entries[i]
		var err error
		switch {
		case e.group != nil:
			e.addr, err = f.writeGroupTree(e.group)
		case e.dataset != nil:
			e.addr, err = f.writeDatasetBlock(e.dataset)
		default:
			err = fmt.Errorf("entry %q has no object", e.name)
		}
		if err != nil {
			return 0, err
		}
	}

	buf := &binary.Buffer{}
	w := binary.NewWriter(buf)
	if err := encodeAttrs(w, g.attrs); err != nil {
		return 0, err
	}
	if err := w.WriteUint32(uint32(len(g.entries))); err != nil {
		return 0, err
	}
	for _, e := range g.entries {
		if err := w.WriteString(e.name); err != nil {
			return 0, err
		}
		if err := w.WriteUint8(e.kind); err != nil {
			return 0, err
		}
		if err := w.WriteUint64(e.addr); err != nil {
			return 0, err
		}
	}
	return f.writeBlock(sigGroup, buf.Bytes())
}
