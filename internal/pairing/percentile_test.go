package pairing

import "testing"

func TestP80NearestRank(t *testing.T) {
    values := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
    got := P80(values)
    if got != 8 {
        t.Fatalf("expected P80 of 1..10 to be 8, got %d", got)
    }
}

func TestP80Empty(t *testing.T) {
    if got := P80(nil); got != 0 {
        t.Fatalf("expected 0 for empty input, got %d", got)
    }
}

func TestHighMedianEvenLength(t *testing.T) {
    if got := highMedian([]int{1, 2, 3, 4}); got != 3 {
        t.Fatalf("expected high median 3 for [1,2,3,4], got %d", got)
    }
}

func TestHighMedianOddLength(t *testing.T) {
    if got := highMedian([]int{1, 2, 3}); got != 2 {
        t.Fatalf("expected high median 2 for [1,2,3], got %d", got)
    }
}

func TestRegionPlusMedianReturnsAllRegionsWhenCountIsSmall(t *testing.T) {
    sizes := map[int]int{1: 2, 2: 1}
    got := regionPlusMedian(sizes, map[string]int{"a": 5}, 3)
    if len(got) != 2 {
        t.Fatalf("expected both regions for count <= 10, got %v", got)
    }
}

func TestRegionPlusMedianAlwaysIncludesEveryNonEmptyRegion(t *testing.T) {
    // count > 10 and frequency counts so low that only the large region 4
    // qualifies for padding. Every non-empty region must still appear at
    // least once in the candidate set.
    sizes := map[int]int{1: 1, 2: 1, 3: 1, 4: 20}
    frequencyCounts := map[string]int{"a": 0, "b": 0}
    got := regionPlusMedian(sizes, frequencyCounts, 23)

    seen := map[int]bool{}
    for _, idx := range got {
        seen[idx] = true
    }
    for region := range sizes {
        if !seen[region] {
            t.Fatalf("expected region %d to be present in %v", region, got)
        }
    }
}

func TestRegionPlusMedianPadsHighFrequencyRegionsWithoutDroppingOthers(t *testing.T) {
    sizes := map[int]int{1: 1, 2: 20}
    frequencyCounts := map[string]int{"a": 1, "b": 1, "c": 1}
    got := regionPlusMedian(sizes, frequencyCounts, 21)

    counts := map[int]int{}
    for _, idx := range got {
        counts[idx]++
    }
    if counts[1] != 1 {
        t.Fatalf("expected low-size region 1 to appear exactly once, got %d", counts[1])
    }
    if counts[2] < 2 {
        t.Fatalf("expected high-size region 2 to appear padded (>1), got %d", counts[2])
    }
}
