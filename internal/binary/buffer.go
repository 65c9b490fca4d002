package binary

// Buffer is a growable in-memory io.WriterAt, used to assemble metadata
// blocks before they are checksummed and written to the file.
type Buffer struct {
	buf []byte
}

// WriteAt implements io.WriterAt, growing the buffer as needed.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if int64(len(b.buf)) < end {
		grown := make([]byte, end)
		copy(grown, b.buf)
		b.buf = grown
	}
	copy(b.buf[off:], p)
	return len(p), nil
}

// Bytes returns the assembled contents.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the current length in bytes.
func (b *Buffer) Len() int {
	return len(b.buf)
}
