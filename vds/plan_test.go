package vds

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-vds/hsf"
)

func testSpec(frames int64) Spec {
	return Spec{
		Shape:   []int64{frames, 4, 3},
		Dtype:   hsf.Float64,
		Dataset: "data",
	}
}

func TestNewPlanPartitions(t *testing.T) {
	plan, err := NewPlan(testSpec(1003), 8, WithPattern("run_%03d.hsf"))
	require.NoError(t, err)
	require.Len(t, plan.Partitions, 8)
	require.NoError(t, plan.Validate())

	first := plan.Partitions[0]
	require.Equal(t, int64(0), first.Start)
	require.Equal(t, int64(126), first.End)
	require.Equal(t, "run_000.hsf", first.Target.Path)
	require.Equal(t, KindShard, first.Target.Kind)

	last := plan.Partitions[7]
	require.Equal(t, int64(878), last.Start)
	require.Equal(t, int64(1003), last.End)
	require.Equal(t, "run_007.hsf", last.Target.Path)
}

func TestNewPlanShardTargetRange(t *testing.T) {
	plan, err := NewPlan(testSpec(100), 4)
	require.NoError(t, err)
	for _, part := range plan.Partitions {
		require.Equal(t, int64(0), part.Target.Start)
		require.Equal(t, part.Frames(), part.Target.End)
	}
}

func TestNewPlanViewTargets(t *testing.T) {
	plan, err := NewPlan(testSpec(100), 4, WithViewInto("big.hsf"))
	require.NoError(t, err)
	require.Equal(t, "big.hsf", plan.OriginalFile)
	for _, part := range plan.Partitions {
		require.Equal(t, KindView, part.Target.Kind)
		require.Equal(t, "big.hsf", part.Target.Path)
		require.Equal(t, part.Start, part.Target.Start)
		require.Equal(t, part.End, part.Target.End)
	}
	require.NoError(t, plan.Validate())
}

func TestNewPlanEmptyPartitions(t *testing.T) {
	plan, err := NewPlan(testSpec(5), 8)
	require.NoError(t, err)
	require.NoError(t, plan.Validate())
	require.Equal(t, int64(0), plan.Partitions[7].Frames())

	var verr *ValidationError
	_, err = NewPlan(testSpec(5), 8, RejectEmpty())
	require.ErrorAs(t, err, &verr)
}

func TestNewPlanNamingCollision(t *testing.T) {
	var verr *ValidationError
	_, err := NewPlan(testSpec(100), 4, WithNamer(func(int) string { return "same.hsf" }))
	require.ErrorAs(t, err, &verr)
}

func TestNewPlanInvalidSpec(t *testing.T) {
	var verr *ValidationError

	_, err := NewPlan(Spec{Shape: nil, Dtype: hsf.Float64, Dataset: "data"}, 2)
	require.ErrorAs(t, err, &verr)

	_, err = NewPlan(Spec{Shape: []int64{10, 0}, Dtype: hsf.Float64, Dataset: "data"}, 2)
	require.ErrorAs(t, err, &verr)

	_, err = NewPlan(Spec{Shape: []int64{10}, Dtype: hsf.Float64, Dataset: ""}, 2)
	require.ErrorAs(t, err, &verr)
}

func TestExpandPattern(t *testing.T) {
	require.Equal(t, "run_007.hsf", ExpandPattern("run_%03d.hsf", 7))
	require.Equal(t, "shard_12", ExpandPattern("shard_%d", 12))
	require.Equal(t, "raw_003.hsf", ExpandPattern("raw", 3))
}

func TestPlanFind(t *testing.T) {
	plan, err := NewPlan(testSpec(1003), 8)
	require.NoError(t, err)

	for frame, want := range map[int64]int{0: 0, 125: 0, 126: 1, 377: 2, 378: 3, 1002: 7} {
		got, err := plan.Find(frame)
		require.NoError(t, err, "frame %d", frame)
		require.Equal(t, want, got, "frame %d", frame)
	}

	_, err = plan.Find(-1)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = plan.Find(1003)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestPlanValidateRejects(t *testing.T) {
	base := func() *Plan {
		plan, err := NewPlan(testSpec(1003), 8)
		require.NoError(t, err)
		return plan
	}

	cases := []struct {
		name   string
		mutate func(*Plan)
	}{
		{"gap", func(p *Plan) { p.Partitions[3].Start++ }},
		{"nonzero origin", func(p *Plan) { p.Partitions[0].Start = 1 }},
		{"short coverage", func(p *Plan) { p.Partitions[7].End-- }},
		{"remainder misplaced", func(p *Plan) {
			p.Partitions[0].End--
			for i := 1; i < 7; i++ {
				p.Partitions[i].Start--
				p.Partitions[i].End--
			}
			p.Partitions[7].Start--
		}},
		{"index disorder", func(p *Plan) { p.Partitions[2].Index = 5 }},
		{"missing path", func(p *Plan) { p.Partitions[1].Target.Path = "" }},
		{"shard range mismatch", func(p *Plan) { p.Partitions[1].Target.End++ }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := base()
			tc.mutate(plan)
			var serr *SchemaError
			require.ErrorAs(t, plan.Validate(), &serr)
		})
	}
}

func TestPartitionShape(t *testing.T) {
	plan, err := NewPlan(testSpec(1003), 8)
	require.NoError(t, err)
	require.Equal(t, []int64{126, 4, 3}, plan.PartitionShape(plan.Partitions[0]))
	require.Equal(t, []int64{125, 4, 3}, plan.PartitionShape(plan.Partitions[7]))
}

func TestSourceFilesOrdered(t *testing.T) {
	plan, err := NewPlan(testSpec(40), 4, WithPattern("s_%d.hsf"))
	require.NoError(t, err)
	want := make([]string, 4)
	for i := range want {
		want[i] = fmt.Sprintf("s_%d.hsf", i)
	}
	require.Equal(t, want, plan.SourceFiles())
}
