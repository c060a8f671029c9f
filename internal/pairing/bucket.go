// Package pairing implements the hard core of the engine: region bucketing,
// the Frequency Analyzer, the Pairing Selector, and the Reset Controller.
package pairing

import "github.com/dirflash/fuse-pairing/internal/models"

// BuildBuckets partitions attendees into per-region buckets keyed by region
// index. Every alias must already be present in directory — callers
// resolve and auto-provision unknowns via the Directory Store before
// calling this.
func BuildBuckets(directory map[string]models.SE, attendees map[string]struct{}) map[int]*models.RegionBucket {
    buckets := make(map[int]*models.RegionBucket)

    for alias := range attendees {
        se := directory[alias]
        b, ok := buckets[se.RegionIndex]
        if !ok {
            b = &models.RegionBucket{RegionIndex: se.RegionIndex, RegionName: se.RegionName}
            buckets[se.RegionIndex] = b
        }
        b.Aliases = append(b.Aliases, alias)
    }

    return buckets
}
