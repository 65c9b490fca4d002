package hsf

// DatasetOption configures dataset creation.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	fill  float64
	attrs []Attr
}

func defaultDatasetOptions() *datasetOptions {
	return &datasetOptions{}
}

// WithFillValue sets the scalar fill value returned for unmapped regions
// and missing sources of a virtual dataset. The default is zero.
func WithFillValue(v float64) DatasetOption {
	return func(o *datasetOptions) {
		o.fill = v
	}
}

// WithAttr attaches an attribute at creation time. The value must be an
// int, int64, float64, string, []int, []int64, or []string; anything
// else surfaces as an error when the file is closed.
func WithAttr(name string, value any) DatasetOption {
	return func(o *datasetOptions) {
		if v, err := normalizeAttrValue(value); err == nil {
			o.attrs = setAttr(o.attrs, name, v)
		} else {
			o.attrs = setAttr(o.attrs, name, value)
		}
	}
}
