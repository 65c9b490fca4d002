package hsf

import (
	"fmt"
	"strings"
)

// entry kinds within a group block
const (
	entryGroup   = 0
	entryDataset = 1
)

// Group represents a group within an hsf container.
type Group struct {
	file    *File
	path    string
	addr    uint64 // block address; zero for in-memory groups
	loaded  bool
	attrs   []Attr
	entries []groupEntry
}

// groupEntry is one named child. In write mode the object pointer is set;
// in read mode only the block address is known until the child is opened.
type groupEntry struct {
	name    string
	kind    uint8
	addr    uint64
	group   *Group
	dataset *Dataset
}

// load parses the group's block on first access.
func (g *Group) load() error {
	if g.loaded {
		return nil
	}
	r, err := g.file.readBlock(g.addr, sigGroup)
	if err != nil {
		return fmt.Errorf("group %s: %w", g.path, err)
	}

	attrs, err := decodeAttrs(r)
	if err != nil {
		return fmt.Errorf("group %s attributes: %w", g.path, err)
	}
	g.attrs = attrs

	count, err := r.ReadUint32()
	if err != nil {
		return err
	}
	g.entries = make([]groupEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadString()
		if err != nil {
			return err
		}
		kind, err := r.ReadUint8()
		if err != nil {
			return err
		}
		addr, err := r.ReadUint64()
		if err != nil {
			return err
		}
		if kind != entryGroup && kind != entryDataset {
			return fmt.Errorf("%w: group %s entry %q has kind %d", ErrCorrupt, g.path, name, kind)
		}
		g.entries = append(g.entries, groupEntry{name: name, kind: kind, addr: addr})
	}

	g.loaded = true
	return nil
}

// Name returns the group name (last path component).
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	parts := splitPath(g.path)
	return parts[len(parts)-1]
}

// Path returns the full path of the group.
func (g *Group) Path() string {
	return g.path
}

func (g *Group) findEntry(name string) (*groupEntry, error) {
	if err := g.load(); err != nil {
		return nil, err
	}
	for i := range g.entries {
		if g.entries[i].name == name {
			return &g.entries[i], nil
		}
	}
	return nil, fmt.Errorf("%q in %s: %w", name, g.path, ErrNotFound)
}

// OpenGroup opens a child group by name or slash-separated path.
func (g *Group) OpenGroup(path string) (*Group, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return g, nil
	}

	current := g
	for _, name := range parts {
		e, err := current.findEntry(name)
		if err != nil {
			return nil, err
		}
		if e.kind != entryGroup {
			return nil, fmt.Errorf("%s: %w", joinPath(current.path, name), ErrNotGroup)
		}
		child, err := current.openGroupEntry(e)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// OpenDataset opens a dataset by name or slash-separated path.
func (g *Group) OpenDataset(path string) (*Dataset, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty dataset path: %w", ErrNotFound)
	}

	parent := g
	if len(parts) > 1 {
		var err error
		parent, err = g.OpenGroup(strings.Join(parts[:len(parts)-1], "/"))
		if err != nil {
			return nil, err
		}
	}

	name := parts[len(parts)-1]
	e, err := parent.findEntry(name)
	if err != nil {
		return nil, err
	}
	if e.kind != entryDataset {
		return nil, fmt.Errorf("%s: %w", joinPath(parent.path, name), ErrNotDataset)
	}
	return parent.openDatasetEntry(e)
}

func (g *Group) openGroupEntry(e *groupEntry) (*Group, error) {
	if e.group != nil {
		return e.group, nil
	}
	child := &Group{file: g.file, path: joinPath(g.path, e.name), addr: e.addr}
	if err := child.load(); err != nil {
		return nil, err
	}
	e.group = child
	return child, nil
}

func (g *Group) openDatasetEntry(e *groupEntry) (*Dataset, error) {
	if e.dataset != nil {
		return e.dataset, nil
	}
	ds, err := g.file.openDatasetAt(e.addr, joinPath(g.path, e.name))
	if err != nil {
		return nil, err
	}
	e.dataset = ds
	return ds, nil
}

// Datasets returns the names of this group's datasets in creation order.
func (g *Group) Datasets() ([]string, error) {
	if err := g.load(); err != nil {
		return nil, err
	}
	var names []string
	for _, e := range g.entries {
		if e.kind == entryDataset {
			names = append(names, e.name)
		}
	}
	return names, nil
}

// Groups returns the names of this group's subgroups in creation order.
func (g *Group) Groups() ([]string, error) {
	if err := g.load(); err != nil {
		return nil, err
	}
	var names []string
	for _, e := range g.entries {
		if e.kind == entryGroup {
			names = append(names, e.name)
		}
	}
	return names, nil
}

// Attr returns an attribute value by name.
func (g *Group) Attr(name string) (any, bool) {
	if err := g.load(); err != nil {
		return nil, false
	}
	return lookupAttr(g.attrs, name)
}

// Attrs returns the group's attributes in insertion order.
func (g *Group) Attrs() []Attr {
	if err := g.load(); err != nil {
		return nil
	}
	out := make([]Attr, len(g.attrs))
	copy(out, g.attrs)
	return out
}
