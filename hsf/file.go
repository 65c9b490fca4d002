package hsf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robert-malhotra/go-vds/internal/alloc"
	"github.com/robert-malhotra/go-vds/internal/binary"
)

// container header layout: magic(8) version(1) reserved(3) rootAddr(8)
// eofAddr(8) crc(4)
const (
	headerSize    = 32
	formatVersion = 1
)

// magic identifies an hsf container. The non-ASCII lead byte and embedded
// line endings catch files mangled by text-mode transfers.
var magic = []byte{0x89, 'H', 'S', 'F', '\r', '\n', 0x1a, '\n'}

// block signatures
const (
	sigGroup   = "GRPB"
	sigDataset = "DOBJ"
)

// File represents an open hsf container.
type File struct {
	path      string
	file      *os.File
	reader    *binary.Reader
	writer    *binary.Writer // nil when read-only
	allocator *alloc.Allocator
	root      *Group
	writable  bool
	closed    bool
	sources   map[string]*File // cache of opened source containers
}

// Open opens an hsf container for reading.
func Open(path string) (*File, error) {
	osFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}

	f := &File{
		path:   path,
		file:   osFile,
		reader: binary.NewReader(osFile),
	}

	rootAddr, err := f.readHeader()
	if err != nil {
		osFile.Close()
		return nil, err
	}

	f.root = &Group{file: f, path: "/", addr: rootAddr}
	return f, nil
}

// readHeader parses and verifies the fixed container header, returning
// the root group address.
func (f *File) readHeader() (uint64, error) {
	r := f.reader.At(0)
	raw, err := r.ReadBytes(headerSize)
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(raw[:len(magic)], magic) {
		return 0, ErrNotContainer
	}

	hr := binary.NewReader(bytes.NewReader(raw)).At(int64(len(magic)))
	version, _ := hr.ReadUint8()
	if version != formatVersion {
		return 0, fmt.Errorf("%w: %d", ErrVersion, version)
	}
	hr.Skip(3)
	rootAddr, _ := hr.ReadUint64()
	hr.Skip(8) // eofAddr, informational
	crc, _ := hr.ReadUint32()
	if err := binary.VerifyChecksum(raw[:headerSize-4], crc); err != nil {
		return 0, fmt.Errorf("header: %w", ErrCorrupt)
	}
	if rootAddr == 0 {
		return 0, fmt.Errorf("%w: container was never finalized", ErrCorrupt)
	}
	return rootAddr, nil
}

// Close closes the container and any source containers opened through it.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.writable {
		if err := f.closeWritable(); err != nil {
			f.file.Close()
			return err
		}
	}

	for _, src := range f.sources {
		src.Close()
	}
	f.sources = nil

	return f.file.Close()
}

// Root returns the root group of the container.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the container's file path.
func (f *File) Path() string {
	return f.path
}

// IsWritable reports whether the container was opened for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// OpenGroup opens a group by slash-separated path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by slash-separated path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// Attr returns a root-group attribute value.
func (f *File) Attr(name string) (any, bool) {
	if f.closed {
		return nil, false
	}
	return f.root.Attr(name)
}

// Attrs returns the root-group attributes in insertion order.
func (f *File) Attrs() []Attr {
	return f.root.Attrs()
}

// SetAttr sets a root-group attribute. The file must be writable.
func (f *File) SetAttr(name string, value any) error {
	return f.root.SetAttr(name, value)
}

// openSource opens another container referenced by a virtual mapping
// entry. Paths are resolved relative to this container's directory and
// handles are cached for the life of the file.
func (f *File) openSource(name string) (*File, error) {
	if src, ok := f.sources[name]; ok {
		return src, nil
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(f.path), name)
	}
	src, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source container %q: %w", name, err)
	}

	if f.sources == nil {
		f.sources = make(map[string]*File)
	}
	f.sources[name] = src
	return src, nil
}

// readBlock reads a checksummed metadata block at addr and returns a
// reader over its body.
func (f *File) readBlock(addr uint64, sig string) (*binary.Reader, error) {
	r := f.reader.At(int64(addr))
	if err := r.ReadSignature(sig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	bodyLen, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	body, err := r.ReadBytes(int(bodyLen))
	if err != nil {
		return nil, err
	}
	crc, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if err := binary.VerifyChecksum(body, crc); err != nil {
		return nil, fmt.Errorf("block at 0x%x: %w", addr, ErrCorrupt)
	}
	return binary.NewReader(bytes.NewReader(body)), nil
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}
