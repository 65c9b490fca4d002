package hsf

import (
	"fmt"

	"github.com/robert-malhotra/go-vds/internal/binary"
)

// WriteSlab writes raw frame data starting at the given frame of the
// leading axis. buf must be a whole number of frames and fit within the
// dataset's extent. Only physical datasets are writable.
func (d *Dataset) WriteSlab(start int64, buf []byte) error {
	if d.file.closed {
		return ErrClosed
	}
	if !d.file.writable {
		return ErrReadOnly
	}
	if d.virtual {
		return fmt.Errorf("dataset %s is virtual: %w", d.path, ErrReadOnly)
	}

	frameSize := d.FrameSize()
	if frameSize == 0 {
		if len(buf) == 0 {
			return nil
		}
		return fmt.Errorf("dataset %s has zero frame size: %w", d.path, ErrOutOfBounds)
	}
	if int64(len(buf))%frameSize != 0 {
		return fmt.Errorf("slab of %d bytes is not a whole number of %d-byte frames", len(buf), frameSize)
	}
	frames := int64(len(buf)) / frameSize
	if start < 0 || start+frames > d.Frames() {
		return fmt.Errorf("frames [%d,%d) of %d: %w", start, start+frames, d.Frames(), ErrOutOfBounds)
	}
	if frames == 0 {
		return nil
	}

	w := d.file.writer.At(int64(d.dataAddr) + start*frameSize)
	if err := w.WriteBytes(buf); err != nil {
		return fmt.Errorf("writing %s frames [%d,%d): %w", d.path, start, start+frames, err)
	}
	return nil
}

// SetAttr sets a dataset attribute. The file must be writable.
func (d *Dataset) SetAttr(name string, value any) error {
	if d.file.closed {
		return ErrClosed
	}
	if !d.file.writable {
		return ErrReadOnly
	}
	v, err := normalizeAttrValue(value)
	if err != nil {
		return err
	}
	d.attrs = setAttr(d.attrs, name, v)
	return nil
}

// writeDatasetBlock serializes a dataset object block and returns its
// address.
func (f *File) writeDatasetBlock(d *Dataset) (uint64, error) {
	buf := &binary.Buffer{}
	w := binary.NewWriter(buf)

	if err := w.WriteUint8(uint8(d.kind)); err != nil {
		return 0, err
	}
	class := uint8(layoutContiguous)
	if d.virtual {
		class = layoutVirtual
	}
	if err := w.WriteUint8(class); err != nil {
		return 0, err
	}
	if err := w.WriteUint8(uint8(len(d.shape))); err != nil {
		return 0, err
	}
	for _, dim := range d.shape {
		if err := w.WriteInt64(dim); err != nil {
			return 0, err
		}
	}
	if err := w.WriteFloat64(d.fill); err != nil {
		return 0, err
	}
	if err := encodeAttrs(w, d.attrs); err != nil {
		return 0, fmt.Errorf("dataset %s attributes: %w", d.path, err)
	}

	if d.virtual {
		if err := w.WriteUint32(uint32(len(d.entries))); err != nil {
			return 0, err
		}
		for _, e := range d.entries {
			if err := w.WriteInt64(e.Start); err != nil {
				return 0, err
			}
			if err := w.WriteInt64(e.End); err != nil {
				return 0, err
			}
			if err := w.WriteString(e.SourceFile); err != nil {
				return 0, err
			}
			if err := w.WriteString(e.SourceDataset); err != nil {
				return 0, err
			}
			if err := w.WriteInt64(e.SourceStart); err != nil {
				return 0, err
			}
		}
	} else {
		if err := w.WriteUint64(d.dataAddr); err != nil {
			return 0, err
		}
		if err := w.WriteUint64(d.dataSize); err != nil {
			return 0, err
		}
	}

	return f.writeBlock(sigDataset, buf.Bytes())
}
