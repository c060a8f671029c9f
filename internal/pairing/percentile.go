package pairing

import "sort"

// P80 computes the 80th percentile of values by the nearest-rank method,
// hand-rolled rather than pulled from a statistics library.
func P80(values []int) int {
    if len(values) == 0 {
        return 0
    }

    sorted := make([]int, len(values))
    copy(sorted, values)
    sort.Ints(sorted)

    rank := int(float64(len(sorted))*0.8 + 0.5) // round half up
    if rank < 1 {
        rank = 1
    }
    if rank > len(sorted) {
        rank = len(sorted)
    }

    return sorted[rank-1]
}

// highMedian returns the upper of the two middle values for an even-length
// slice, or the single middle value for an odd-length one. The region-plus-
// median candidate set is built against this, not the conventional
// averaged median.
func highMedian(values []int) int {
    if len(values) == 0 {
        return 0
    }

    sorted := make([]int, len(values))
    copy(sorted, values)
    sort.Ints(sorted)

    return sorted[len(sorted)/2]
}
