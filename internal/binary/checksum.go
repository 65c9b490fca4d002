package binary

import (
	"errors"
	"hash/crc32"
)

// ErrChecksum is returned when a block checksum does not match its contents.
var ErrChecksum = errors.New("block checksum mismatch")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the CRC-32C checksum of data. It guards every hsf
// metadata block against torn writes and hand editing.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// VerifyChecksum checks data against an expected checksum value.
func VerifyChecksum(data []byte, want uint32) error {
	if Checksum(data) != want {
		return ErrChecksum
	}
	return nil
}
