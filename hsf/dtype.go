package hsf

import "github.com/robert-malhotra/go-vds/internal/dtype"

// Dtype identifies a dataset's fixed-width numeric element type.
type Dtype = dtype.Kind

// Supported element types.
const (
	Float64 = dtype.Float64
	Float32 = dtype.Float32
	Int64   = dtype.Int64
	Int32   = dtype.Int32
	Int16   = dtype.Int16
	Int8    = dtype.Int8
	Uint64  = dtype.Uint64
	Uint32  = dtype.Uint32
	Uint16  = dtype.Uint16
	Uint8   = dtype.Uint8
)

// ParseDtype resolves a dtype token such as "float64" or "uint16".
func ParseDtype(token string) (Dtype, error) {
	return dtype.Parse(token)
}
