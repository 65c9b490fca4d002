package hsf

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/go-vds/internal/alloc"
	"github.com/robert-malhotra/go-vds/internal/binary"
)

// Create creates a new hsf container at the given path, truncating any
// existing file. The object tree is held in memory and serialized when
// the file is closed.
func Create(path string) (*File, error) {
	osFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}

	f := &File{
		path:      path,
		file:      osFile,
		reader:    binary.NewReader(osFile),
		writer:    binary.NewWriter(osFile),
		allocator: alloc.New(headerSize),
		writable:  true,
	}
	f.root = &Group{file: f, path: "/", loaded: true}

	// Reserve the header region now so a half-written container is
	// recognizably unfinalized (rootAddr stays zero until Close).
	if err := f.writeHeader(0); err != nil {
		osFile.Close()
		os.Remove(path)
		return nil, err
	}

	return f, nil
}

// writeHeader writes the fixed container header with the given root
// group address.
func (f *File) writeHeader(rootAddr uint64) error {
	buf := &binary.Buffer{}
	w := binary.NewWriter(buf)
	if err := w.WriteBytes(magic); err != nil {
		return err
	}
	if err := w.WriteUint8(formatVersion); err != nil {
		return err
	}
	if err := w.WriteZeros(3); err != nil {
		return err
	}
	if err := w.WriteUint64(rootAddr); err != nil {
		return err
	}
	if err := w.WriteUint64(f.allocator.EOFAddr()); err != nil {
		return err
	}
	body := buf.Bytes()
	if err := w.WriteUint32(binary.Checksum(body)); err != nil {
		return err
	}
	return f.writer.At(0).WriteBytes(buf.Bytes())
}

// closeWritable serializes the in-memory object tree and finalizes the
// header.
func (f *File) closeWritable() error {
	rootAddr, err := f.writeGroupTree(f.root)
	if err != nil {
		return fmt.Errorf("writing object tree: %w", err)
	}
	if err := f.writeHeader(rootAddr); err != nil {
		return fmt.Errorf("finalizing header: %w", err)
	}
	return f.file.Sync()
}

// writeBlock appends a checksummed metadata block and returns its address.
func (f *File) writeBlock(sig string, body []byte) (uint64, error) {
	size := uint64(len(sig) + 4 + len(body) + 4)
	addr := f.allocator.Alloc(size)

	w := f.writer.At(int64(addr))
	if err := w.WriteSignature(sig); err != nil {
		return 0, err
	}
	if err := w.WriteUint32(uint32(len(body))); err != nil {
		return 0, err
	}
	if err := w.WriteBytes(body); err != nil {
		return 0, err
	}
	if err := w.WriteUint32(binary.Checksum(body)); err != nil {
		return 0, err
	}
	return addr, nil
}
