// Basic calculation functions
package calc

import "slices"

type Number interface {
	~int | ~int64 | ~uint32 | ~uint64 | ~float64
}

// Mean after dropping trimPercent of values from each end of the sorted input.
// At least one (middle) value always survives the trim.
func TrimmedMean[T Number](values []T, trimPercent float64) (mean float64) {
	if trimPercent < 0 {
		trimPercent = 0
	}

	n := len(values)
	if n == 0 {
		return
	}

	nums := slices.Clone(values)
	slices.Sort(nums)

	// How many values to drop from each end
	trimCount := int(float64(n) * trimPercent)
	if trimCount*2 >= n {
		trimCount = (n - 1) / 2
	}
	kept := nums[trimCount : n-trimCount]

	var sum float64
	for _, v := range kept {
		sum += float64(v)
	}
	mean = sum / float64(len(kept))
	return
}
