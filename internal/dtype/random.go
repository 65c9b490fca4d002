package dtype

import (
	"encoding/binary"
	"math"
	"math/rand"
)

// Random returns n elements of the kind drawn from rng. Float kinds use a
// standard normal distribution, mirroring the synthetic detector data the
// original tooling generated; integer kinds use the full value range.
// Output is deterministic for a given rng state.
func (k Kind) Random(rng *rand.Rand, n int64) []byte {
	buf := make([]byte, k.Size()*n)
	switch k {
	case Float64:
		for i := int64(0); i < n; i++ {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(rng.NormFloat64()))
		}
	case Float32:
		for i := int64(0); i < n; i++ {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(rng.NormFloat64())))
		}
	case Int64, Uint64:
		for i := int64(0); i < n; i++ {
			binary.LittleEndian.PutUint64(buf[i*8:], rng.Uint64())
		}
	case Int32, Uint32:
		for i := int64(0); i < n; i++ {
			binary.LittleEndian.PutUint32(buf[i*4:], rng.Uint32())
		}
	case Int16, Uint16:
		for i := int64(0); i < n; i++ {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(rng.Uint32()))
		}
	case Int8, Uint8:
		rng.Read(buf)
	}
	return buf
}
