package vds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDivide(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		n     int
		want  []int64
	}{
		{"even", 1000, 10, []int64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100}},
		{"remainder to leading", 1003, 8, []int64{126, 126, 126, 125, 125, 125, 125, 125}},
		{"more parts than frames", 5, 8, []int64{1, 1, 1, 1, 1, 0, 0, 0}},
		{"single part", 42, 1, []int64{42}},
		{"zero total", 0, 3, []int64{0, 0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Divide(tc.total, tc.n)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)

			sum := int64(0)
			for _, s := range got {
				sum += s
			}
			require.Equal(t, tc.total, sum)
		})
	}
}

func TestDivideSizesNonIncreasing(t *testing.T) {
	sizes, err := Divide(7919, 13)
	require.NoError(t, err)
	for i := 1; i < len(sizes); i++ {
		require.LessOrEqual(t, sizes[i], sizes[i-1])
		require.LessOrEqual(t, sizes[i-1]-sizes[i], int64(1))
	}
}

func TestDivideInvalid(t *testing.T) {
	var verr *ValidationError

	_, err := Divide(100, 0)
	require.ErrorAs(t, err, &verr)

	_, err = Divide(100, -2)
	require.ErrorAs(t, err, &verr)

	_, err = Divide(-1, 4)
	require.ErrorAs(t, err, &verr)
}
