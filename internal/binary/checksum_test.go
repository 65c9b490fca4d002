package binary

import "testing"

func TestChecksumStable(t *testing.T) {
	data := []byte("partition metadata block")
	c1 := Checksum(data)
	c2 := Checksum(data)
	if c1 != c2 {
		t.Errorf("checksum not stable: 0x%x vs 0x%x", c1, c2)
	}
}

func TestChecksumDetectsFlip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	want := Checksum(data)
	data[3] ^= 0x01
	if err := VerifyChecksum(data, want); err == nil {
		t.Error("bit flip not detected")
	}
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("abc")
	if err := VerifyChecksum(data, Checksum(data)); err != nil {
		t.Errorf("VerifyChecksum: %v", err)
	}
}

func TestChecksumEmpty(t *testing.T) {
	if Checksum(nil) != 0 {
		t.Errorf("empty checksum: got 0x%x, want 0", Checksum(nil))
	}
}
