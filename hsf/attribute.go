package hsf

import (
	"fmt"

	"github.com/robert-malhotra/go-vds/internal/binary"
)

// Attr is a named attribute attached to a group or dataset. Values are
// restricted to the types the on-disk encoding supports: int64, float64,
// string, []int64, and []string.
type Attr struct {
	Name  string
	Value any
}

// attribute value type tags
const (
	attrInt64 = iota
	attrFloat64
	attrString
	attrInt64Slice
	attrStringSlice
)

// normalizeAttrValue widens Go integer literals to int64 and rejects
// unsupported value types before they reach the encoder.
func normalizeAttrValue(v any) (any, error) {
	switch x := v.(type) {
	case int64, float64, string, []string:
		return x, nil
	case int:
		return int64(x), nil
	case []int64:
		out := make([]int64, len(x))
		copy(out, x)
		return out, nil
	case []int:
		out := make([]int64, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", v)
	}
}

func encodeAttrs(w *binary.Writer, attrs []Attr) error {
	if err := w.WriteUint32(uint32(len(attrs))); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := w.WriteString(a.Name); err != nil {
			return err
		}
		switch v := a.Value.(type) {
		case int64:
			if err := w.WriteUint8(attrInt64); err != nil {
				return err
			}
			if err := w.WriteInt64(v); err != nil {
				return err
			}
		case float64:
			if err := w.WriteUint8(attrFloat64); err != nil {
				return err
			}
			if err := w.WriteFloat64(v); err != nil {
				return err
			}
		case string:
			if err := w.WriteUint8(attrString); err != nil {
				return err
			}
			if err := w.WriteString(v); err != nil {
				return err
			}
		case []int64:
			if err := w.WriteUint8(attrInt64Slice); err != nil {
				return err
			}
			if err := w.WriteUint32(uint32(len(v))); err != nil {
				return err
			}
			for _, n := range v {
				if err := w.WriteInt64(n); err != nil {
					return err
				}
			}
		case []string:
			if err := w.WriteUint8(attrStringSlice); err != nil {
				return err
			}
			if err := w.WriteUint32(uint32(len(v))); err != nil {
				return err
			}
			for _, s := range v {
				if err := w.WriteString(s); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("attribute %q: unsupported type %T", a.Name, a.Value)
		}
	}
	return nil
}

func decodeAttrs(r *binary.Reader) ([]Attr, error) {
	count, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attr, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		tag, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		var value any
		switch tag {
		case attrInt64:
			value, err = r.ReadInt64()
		case attrFloat64:
			value, err = r.ReadFloat64()
		case attrString:
			value, err = r.ReadString()
		case attrInt64Slice:
			var n uint32
			n, err = r.ReadUint32()
			if err == nil {
				vals := make([]int64, n)
				for j := range vals {
					if vals[j], err = r.ReadInt64(); err != nil {
						break
					}
				}
				value = vals
			}
		case attrStringSlice:
			var n uint32
			n, err = r.ReadUint32()
			if err == nil {
				vals := make([]string, n)
				for j := range vals {
					if vals[j], err = r.ReadString(); err != nil {
						break
					}
				}
				value = vals
			}
		default:
			return nil, fmt.Errorf("%w: attribute %q has unknown type tag %d", ErrCorrupt, name, tag)
		}
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attr{Name: name, Value: value})
	}
	return attrs, nil
}

// lookupAttr returns the value for name from an ordered attribute list.
func lookupAttr(attrs []Attr, name string) (any, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// setAttr replaces or appends a named value in an ordered attribute list.
func setAttr(attrs []Attr, name string, value any) []Attr {
	for i := range attrs {
		if attrs[i].Name == name {
			attrs[i].Value = value
			return attrs
		}
	}
	return append(attrs, Attr{Name: name, Value: value})
}
