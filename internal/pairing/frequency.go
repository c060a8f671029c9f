package pairing

import (
    "context"

    "github.com/dirflash/fuse-pairing/internal/history"
)

// Frequency holds the Frequency Analyzer's output: per-SE historical
// pairing counts, the derived 80th-percentile threshold, and the resulting
// top_ses cohort used to bias SE1 selection.
type Frequency struct {
    Counts     map[string]int
    Percentile int
    TopSEs     map[string]struct{}
}

// ComputeFrequency recomputes count[alias] = |history(alias)| for every
// attendee, then derives percentile = round(P80(counts)) and
// top_ses = { a | count[a] > percentile }.
func ComputeFrequency(ctx context.Context, histStore history.Store, attendees map[string]struct{}) (Frequency, error) {
    counts := make(map[string]int, len(attendees))
    values := make([]int, 0, len(attendees))

    for alias := range attendees {
        count, err := histStore.MatchCount(ctx, alias)
        if err != nil {
            return Frequency{}, err
        }
        counts[alias] = count
        values = append(values, count)
    }

    percentile := P80(values)

    topSEs := make(map[string]struct{})
    for alias, count := range counts {
        if count > percentile {
            topSEs[alias] = struct{}{}
        }
    }

    return Frequency{Counts: counts, Percentile: percentile, TopSEs: topSEs}, nil
}
