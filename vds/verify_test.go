package vds

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-vds/hsf"
)

func openFixtureView(t *testing.T, path string) (*View, func()) {
	t.Helper()
	f, err := hsf.Open(path)
	require.NoError(t, err)
	view, err := OpenView(f, "")
	require.NoError(t, err)
	return view, func() { f.Close() }
}

func TestVerifyZeroFillFullScan(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Shape: []int64{1003, 2}, Dtype: hsf.Float64, Dataset: "data"}
	path, plan := buildFixture(t, dir, spec, 8, ZeroFill{})

	view, done := openFixtureView(t, path)
	defer done()

	truth := &ConstantTruth{Plan: plan, Value: 0}
	res, err := VerifyFull(view, truth)
	require.NoError(t, err)
	require.True(t, res.Passed)
	require.Equal(t, int64(1003), res.Checked)
	require.Empty(t, res.Mismatches)
}

func TestVerifySyntheticSampled(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Shape: []int64{101, 3}, Dtype: hsf.Float64, Dataset: "data"}
	path, plan := buildFixture(t, dir, spec, 5, SyntheticRandom{Seed: 11})

	view, done := openFixtureView(t, path)
	defer done()

	truth := &SyntheticTruth{Plan: plan, Seed: 11}
	res, err := Verify(view, truth, nil)
	require.NoError(t, err)
	require.True(t, res.Passed)
	require.Equal(t, int64(3), res.Checked) // first, middle, last
}

func TestVerifyAgainstOriginal(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Shape: []int64{1003, 2}, Dtype: hsf.Float64, Dataset: "data"}

	originPlan, err := NewPlan(spec, 1, WithPattern("big.hsf"))
	require.NoError(t, err)
	mat := NewMaterializer(WithDir(dir))
	report, err := mat.Materialize(context.Background(), originPlan, SyntheticRandom{Seed: 21})
	require.NoError(t, err)
	require.True(t, report.Ok())
	originPath := filepath.Join(dir, "big.hsf")

	// Split the origin into shards and assemble the logical view.
	plan, err := NewPlan(spec, 8, WithPattern("part_%03d.hsf"))
	require.NoError(t, err)
	report, err = mat.Materialize(context.Background(), plan, CopyFrom{Path: originPath})
	require.NoError(t, err)
	require.True(t, report.Ok())

	path := filepath.Join(dir, "logical.hsf")
	f, err := hsf.Create(path)
	require.NoError(t, err)
	_, err = BuildView(f, plan)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	view, done := openFixtureView(t, path)
	defer done()

	truth := &OriginalTruth{Path: originPath, Dataset: "data"}
	defer truth.Close()

	res, err := VerifyFull(view, truth)
	require.NoError(t, err)
	require.True(t, res.Passed)
	require.Equal(t, int64(1003), res.Checked)
}

func TestVerifyReportsMismatches(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Shape: []int64{10, 1}, Dtype: hsf.Float64, Dataset: "data"}
	path, plan := buildFixture(t, dir, spec, 2, ZeroFill{})

	view, done := openFixtureView(t, path)
	defer done()

	truth := &ConstantTruth{Plan: plan, Value: 3.5}
	res, err := Verify(view, truth, []int64{0, 4, 9})
	require.NoError(t, err)
	require.False(t, res.Passed)
	require.Equal(t, int64(3), res.Checked)
	require.Len(t, res.Mismatches, 3)
	require.Equal(t, int64(0), res.Mismatches[0].Frame)
	require.NotEmpty(t, res.Mismatches[0].Detail)
}

func TestVerifyMismatchCapBounded(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Shape: []int64{200, 1}, Dtype: hsf.Float64, Dataset: "data"}
	path, plan := buildFixture(t, dir, spec, 4, ZeroFill{})

	view, done := openFixtureView(t, path)
	defer done()

	truth := &ConstantTruth{Plan: plan, Value: 1}
	res, err := VerifyFull(view, truth)
	require.NoError(t, err)
	require.False(t, res.Passed)
	require.Equal(t, int64(200), res.Checked)
	require.Len(t, res.Mismatches, maxMismatches)
}

func TestSampleFrames(t *testing.T) {
	require.Equal(t, []int64{0, 50, 99}, SampleFrames(100))
	require.Equal(t, []int64{0, 1, 2}, SampleFrames(3))
	require.Equal(t, []int64{0}, SampleFrames(1))
	require.Equal(t, []int64{0, 1}, SampleFrames(2))
	require.Nil(t, SampleFrames(0))
}

func TestVerifyAgainstShards(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Shape: []int64{101, 2}, Dtype: hsf.Float64, Dataset: "data"}
	path, plan := buildFixture(t, dir, spec, 8, SyntheticRandom{Seed: 13})

	view, done := openFixtureView(t, path)
	defer done()

	truth := &ShardTruth{Plan: plan, Dir: dir}
	defer truth.Close()

	res, err := VerifyFull(view, truth)
	require.NoError(t, err)
	require.True(t, res.Passed)
	require.Equal(t, int64(101), res.Checked)
}

func TestSyntheticTruthMatchesPopulate(t *testing.T) {
	dir := t.TempDir()
	spec := Spec{Shape: []int64{37, 2}, Dtype: hsf.Int32, Dataset: "data"}
	plan, err := NewPlan(spec, 3, WithPattern("s_%d.hsf"))
	require.NoError(t, err)

	mat := NewMaterializer(WithDir(dir))
	report, err := mat.Materialize(context.Background(), plan, SyntheticRandom{Seed: 42})
	require.NoError(t, err)
	require.True(t, report.Ok())

	truth := &SyntheticTruth{Plan: plan, Seed: 42}
	for _, part := range plan.Partitions {
		f, err := hsf.Open(filepath.Join(dir, part.Target.Path))
		require.NoError(t, err)
		ds, err := f.OpenDataset("data")
		require.NoError(t, err)
		got, err := ds.ReadAll()
		require.NoError(t, err)
		want, err := truth.ReadFrames(part.Start, part.End)
		require.NoError(t, err)
		require.Equal(t, want, got, "partition %d", part.Index)
		require.NoError(t, f.Close())
	}
}
