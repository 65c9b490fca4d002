package dtype

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestParseTokens(t *testing.T) {
	cases := []struct {
		token string
		kind  Kind
		size  int64
	}{
		{"float64", Float64, 8},
		{"float32", Float32, 4},
		{"int64", Int64, 8},
		{"int32", Int32, 4},
		{"int16", Int16, 2},
		{"int8", Int8, 1},
		{"uint64", Uint64, 8},
		{"uint32", Uint32, 4},
		{"uint16", Uint16, 2},
		{"uint8", Uint8, 1},
	}

	for _, c := range cases {
		k, err := Parse(c.token)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.token, err)
			continue
		}
		if k != c.kind {
			t.Errorf("Parse(%q): got %v, want %v", c.token, k, c.kind)
		}
		if k.Size() != c.size {
			t.Errorf("%v.Size(): got %d, want %d", k, k.Size(), c.size)
		}
		if k.String() != c.token {
			t.Errorf("%v.String(): got %q, want %q", k, k.String(), c.token)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("complex128"); err == nil {
		t.Error("Parse(complex128): expected error")
	}
	if _, err := Parse(""); err == nil {
		t.Error("Parse(empty): expected error")
	}
}

func TestInvalidKind(t *testing.T) {
	if Invalid.Valid() {
		t.Error("Invalid should not be valid")
	}
	if Kind(200).Valid() {
		t.Error("Kind(200) should not be valid")
	}
	if !Float64.Valid() {
		t.Error("Float64 should be valid")
	}
}

func TestFillPatternZero(t *testing.T) {
	buf := Float64.FillPattern(0, 4)
	if len(buf) != 32 {
		t.Fatalf("length: got %d, want 32", len(buf))
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d: got 0x%x, want 0", i, b)
		}
	}
}

func TestFillPatternRepeats(t *testing.T) {
	buf := Int32.FillPattern(-1, 5)
	if len(buf) != 20 {
		t.Fatalf("length: got %d, want 20", len(buf))
	}
	for i := 0; i < 5; i++ {
		if !bytes.Equal(buf[i*4:i*4+4], buf[:4]) {
			t.Errorf("element %d differs from element 0", i)
		}
	}
	for i, b := range buf {
		if b != 0xFF {
			t.Errorf("byte %d of int32(-1): got 0x%x, want 0xff", i, b)
		}
	}
}

func TestRandomDeterministic(t *testing.T) {
	a := Float64.Random(rand.New(rand.NewSource(7)), 16)
	b := Float64.Random(rand.New(rand.NewSource(7)), 16)
	if !bytes.Equal(a, b) {
		t.Error("same seed produced different data")
	}

	c := Float64.Random(rand.New(rand.NewSource(8)), 16)
	if bytes.Equal(a, c) {
		t.Error("different seeds produced identical data")
	}
}

func TestRandomLength(t *testing.T) {
	for _, k := range []Kind{Float64, Float32, Int64, Int32, Int16, Int8, Uint64, Uint32, Uint16, Uint8} {
		buf := k.Random(rand.New(rand.NewSource(1)), 9)
		if int64(len(buf)) != 9*k.Size() {
			t.Errorf("%v: got %d bytes, want %d", k, len(buf), 9*k.Size())
		}
	}
}
