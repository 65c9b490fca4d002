package hsf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeSource creates a source container holding frames [offset, offset+n)
// of a synthetic ramp, one float64 per frame.
func writeSource(t *testing.T, dir, name, dataset string, offset, n int64) {
	t.Helper()
	f, err := Create(filepath.Join(dir, name))
	require.NoError(t, err)
	ds, err := f.Root().CreateDataset(dataset, []int64{n}, Float64)
	require.NoError(t, err)
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(offset + int64(i))
	}
	require.NoError(t, ds.WriteSlab(0, frameBytes(vals...)))
	require.NoError(t, f.Close())
}

func ramp(from, to int64) []byte {
	vals := make([]float64, to-from)
	for i := range vals {
		vals[i] = float64(from + int64(i))
	}
	return frameBytes(vals...)
}

func TestVirtualReadAcrossBoundary(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "src_000.hsf", "data", 0, 4)
	writeSource(t, dir, "src_001.hsf", "data", 4, 3)

	path := filepath.Join(dir, "view.hsf")
	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateVirtualDataset("data", []int64{7}, Float64, []VirtualEntry{
		{Start: 0, End: 4, SourceFile: "src_000.hsf", SourceDataset: "data"},
		{Start: 4, End: 7, SourceFile: "src_001.hsf", SourceDataset: "data"},
	})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	ds, err := r.OpenDataset("data")
	require.NoError(t, err)
	require.True(t, ds.IsVirtual())

	// Whole extent.
	got, err := ds.ReadAll()
	require.NoError(t, err)
	require.Equal(t, ramp(0, 7), got)

	// Range straddling the source boundary.
	got, err = ds.ReadSlab(2, 6)
	require.NoError(t, err)
	require.Equal(t, ramp(2, 6), got)

	// Range within a single source.
	got, err = ds.ReadSlab(5, 7)
	require.NoError(t, err)
	require.Equal(t, ramp(5, 7), got)
}

func TestVirtualMissingSourceReadsFill(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "have.hsf", "data", 0, 2)

	path := filepath.Join(dir, "view.hsf")
	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateVirtualDataset("data", []int64{4}, Float64, []VirtualEntry{
		{Start: 0, End: 2, SourceFile: "have.hsf", SourceDataset: "data"},
		{Start: 2, End: 4, SourceFile: "missing.hsf", SourceDataset: "data"},
	}, WithFillValue(-1))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	ds, err := r.OpenDataset("data")
	require.NoError(t, err)
	require.Equal(t, float64(-1), ds.FillValue())

	got, err := ds.ReadAll()
	require.NoError(t, err)
	require.Equal(t, frameBytes(0, 1, -1, -1), got)
}

func TestVirtualGapReadsFill(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "src.hsf", "data", 0, 2)

	path := filepath.Join(dir, "view.hsf")
	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateVirtualDataset("data", []int64{5}, Float64, []VirtualEntry{
		{Start: 3, End: 5, SourceFile: "src.hsf", SourceDataset: "data"},
	}, WithFillValue(9))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	ds, err := r.OpenDataset("data")
	require.NoError(t, err)

	got, err := ds.ReadAll()
	require.NoError(t, err)
	require.Equal(t, frameBytes(9, 9, 9, 0, 1), got)
}

func TestVirtualEntriesValidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hsf")
	f, err := Create(path)
	require.NoError(t, err)
	defer f.Close()

	// Overlapping entries.
	_, err = f.Root().CreateVirtualDataset("a", []int64{10}, Float64, []VirtualEntry{
		{Start: 0, End: 6, SourceFile: "x.hsf", SourceDataset: "data"},
		{Start: 5, End: 10, SourceFile: "y.hsf", SourceDataset: "data"},
	})
	require.Error(t, err)

	// Entry outside the extent.
	_, err = f.Root().CreateVirtualDataset("b", []int64{10}, Float64, []VirtualEntry{
		{Start: 0, End: 11, SourceFile: "x.hsf", SourceDataset: "data"},
	})
	require.Error(t, err)

	// Missing source reference.
	_, err = f.Root().CreateVirtualDataset("c", []int64{10}, Float64, []VirtualEntry{
		{Start: 0, End: 10, SourceFile: "", SourceDataset: "data"},
	})
	require.Error(t, err)
}

func TestVirtualEntriesPersisted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "view.hsf")

	entries := []VirtualEntry{
		{Start: 0, End: 3, SourceFile: "s0.hsf", SourceDataset: "data"},
		{Start: 3, End: 5, SourceFile: "s1.hsf", SourceDataset: "data", SourceStart: 7},
	}
	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Root().CreateVirtualDataset("data", []int64{5, 2}, Float32, entries)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	ds, err := r.OpenDataset("data")
	require.NoError(t, err)
	require.Equal(t, entries, ds.VirtualEntries())
	require.ErrorIs(t, ds.WriteSlab(0, nil), ErrReadOnly)
}
