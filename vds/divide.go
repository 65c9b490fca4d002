package vds

// Divide splits total into n near-equal parts. The first total%n parts
// receive one extra unit, so parts are monotonically non-increasing and
// sum exactly to total. When n exceeds total the trailing parts are zero;
// callers must tolerate zero-length partitions.
func Divide(total int64, n int) ([]int64, error) {
	if n < 1 {
		return nil, validationf("partition count must be at least 1, got %d", n)
	}
	if total < 0 {
		return nil, validationf("total extent cannot be negative: %d", total)
	}

	base := total / int64(n)
	remainder := total % int64(n)

	parts := make([]int64, n)
	for i := range parts {
		parts[i] = base
		if int64(i) < remainder {
			parts[i]++
		}
	}
	return parts, nil
}
