package binary

import (
	"bytes"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	wb := &Buffer{}
	w := NewWriter(wb)

	if err := w.WriteUint8(0xAB); err != nil {
		t.Fatalf("WriteUint8: %v", err)
	}
	if err := w.WriteUint16(0x1234); err != nil {
		t.Fatalf("WriteUint16: %v", err)
	}
	if err := w.WriteUint32(0xDEADBEEF); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	if err := w.WriteUint64(0x0102030405060708); err != nil {
		t.Fatalf("WriteUint64: %v", err)
	}
	if err := w.WriteInt64(-42); err != nil {
		t.Fatalf("WriteInt64: %v", err)
	}
	if err := w.WriteFloat64(3.5); err != nil {
		t.Fatalf("WriteFloat64: %v", err)
	}
	if err := w.WriteString("hello"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}

	r := NewReader(bytes.NewReader(wb.Bytes()))
	if v, _ := r.ReadUint8(); v != 0xAB {
		t.Errorf("ReadUint8: got 0x%x, want 0xAB", v)
	}
	if v, _ := r.ReadUint16(); v != 0x1234 {
		t.Errorf("ReadUint16: got 0x%x, want 0x1234", v)
	}
	if v, _ := r.ReadUint32(); v != 0xDEADBEEF {
		t.Errorf("ReadUint32: got 0x%x, want 0xDEADBEEF", v)
	}
	if v, _ := r.ReadUint64(); v != 0x0102030405060708 {
		t.Errorf("ReadUint64: got 0x%x", v)
	}
	if v, _ := r.ReadInt64(); v != -42 {
		t.Errorf("ReadInt64: got %d, want -42", v)
	}
	if v, _ := r.ReadFloat64(); v != 3.5 {
		t.Errorf("ReadFloat64: got %v, want 3.5", v)
	}
	if v, _ := r.ReadString(); v != "hello" {
		t.Errorf("ReadString: got %q, want %q", v, "hello")
	}
}

func TestLittleEndianLayout(t *testing.T) {
	wb := &Buffer{}
	w := NewWriter(wb)
	if err := w.WriteUint32(0x01020304); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(wb.Bytes(), want) {
		t.Errorf("layout: got % x, want % x", wb.Bytes(), want)
	}
}

func TestReaderAt(t *testing.T) {
	data := []byte{0, 0, 0, 0, 7, 0, 0, 0}
	r := NewReader(bytes.NewReader(data)).At(4)
	v, err := r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32: %v", err)
	}
	if v != 7 {
		t.Errorf("At(4): got %d, want 7", v)
	}
	if r.Pos() != 8 {
		t.Errorf("Pos: got %d, want 8", r.Pos())
	}
}

func TestEmptyString(t *testing.T) {
	wb := &Buffer{}
	w := NewWriter(wb)
	if err := w.WriteString(""); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	r := NewReader(bytes.NewReader(wb.Bytes()))
	s, err := r.ReadString()
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if s != "" {
		t.Errorf("empty string: got %q", s)
	}
}

func TestStringTooLong(t *testing.T) {
	wb := &Buffer{}
	w := NewWriter(wb)
	long := make([]byte, MaxStringLen+1)
	if err := w.WriteString(string(long)); err != ErrStringTooLong {
		t.Errorf("overlong string: got %v, want ErrStringTooLong", err)
	}
}

func TestSignature(t *testing.T) {
	wb := &Buffer{}
	w := NewWriter(wb)
	if err := w.WriteSignature("GRPB"); err != nil {
		t.Fatalf("WriteSignature: %v", err)
	}

	r := NewReader(bytes.NewReader(wb.Bytes()))
	if err := r.ReadSignature("GRPB"); err != nil {
		t.Errorf("matching signature: %v", err)
	}

	r = NewReader(bytes.NewReader(wb.Bytes()))
	if err := r.ReadSignature("DOBJ"); err == nil {
		t.Error("mismatched signature: expected error")
	}
}
