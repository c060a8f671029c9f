package pairing

import (
    "context"
    "math/rand"
    "testing"

    "github.com/dirflash/fuse-pairing/internal/history"
    "github.com/dirflash/fuse-pairing/internal/models"
)

func se(alias string, region int) models.SE {
    return models.SE{Alias: alias, DisplayName: alias, RegionName: "R", RegionIndex: region}
}

func newSelector(rnd *rand.Rand) (*Selector, *history.FakeStore) {
    hist := history.NewFakeStore()
    return NewSelector(hist, rnd, Config{WaterlineYears: 1, DateLayout: "2006-01-02"}), hist
}

func attendeeSet(aliases ...string) map[string]struct{} {
    out := make(map[string]struct{}, len(aliases))
    for _, a := range aliases {
        out[a] = struct{}{}
    }
    return out
}

// S1: even attendance, two distinct regions, empty history -> two pairs,
// each crossing regions.
func TestSelectorS1EvenDistinctRegions(t *testing.T) {
    sel, _ := newSelector(rand.New(rand.NewSource(1)))
    directory := map[string]models.SE{
        "a1": se("a1", 1), "b1": se("b1", 1),
        "a2": se("a2", 2), "b2": se("b2", 2),
    }
    attendees := attendeeSet("a1", "b1", "a2", "b2")

    pairs, err := sel.Run(context.Background(), directory, attendees, map[string]struct{}{}, map[string]struct{}{}, map[string]int{})
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if len(pairs) != 2 {
        t.Fatalf("expected 2 pairs, got %d", len(pairs))
    }
    for _, p := range pairs {
        if directory[p.SE1].RegionIndex == directory[p.SE2].RegionIndex {
            t.Fatalf("expected cross-region pair, got %+v", p)
        }
    }
}

// S6: VIP priority - the pair containing the VIP is produced first, and the
// VIP's partner is not a leader.
func TestSelectorS6VIPPriority(t *testing.T) {
    sel, _ := newSelector(rand.New(rand.NewSource(7)))
    directory := map[string]models.SE{
        "vip":  se("vip", models.RegionVIP),
        "r1":   se("r1", 1),
        "r2":   se("r2", 2),
        "lead": se("lead", models.RegionSeniorLeadership),
    }
    attendees := attendeeSet("vip", "r1", "r2", "lead")

    pairs, err := sel.Run(context.Background(), directory, attendees, map[string]struct{}{}, map[string]struct{}{}, map[string]int{})
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if len(pairs) != 2 {
        t.Fatalf("expected 2 pairs, got %d", len(pairs))
    }

    first := pairs[0]
    if first.SE1 != "vip" && first.SE2 != "vip" {
        t.Fatalf("expected VIP in the first committed pair, got %+v", first)
    }
    partner := first.SE1
    if partner == "vip" {
        partner = first.SE2
    }
    if partner == "lead" {
        t.Fatalf("expected VIP's partner to not be a leader, got %s", partner)
    }
}

// S3: single region, all four attendees in the same bucket -> infeasible.
func TestSelectorS3SingleRegionInfeasible(t *testing.T) {
    sel, _ := newSelector(rand.New(rand.NewSource(3)))
    directory := map[string]models.SE{
        "a": se("a", 1), "b": se("b", 1), "c": se("c", 1), "d": se("d", 1),
    }
    attendees := attendeeSet("a", "b", "c", "d")

    _, err := sel.Run(context.Background(), directory, attendees, map[string]struct{}{}, map[string]struct{}{}, map[string]int{})
    if err == nil {
        t.Fatalf("expected a kobayashi signal, got success")
    }
}

// S5: a two-attendee run where the only possible pair repeats a historical
// pairing old enough to clear the waterline should be accepted.
func TestSelectorS5WaterlineAdmitsOldRepeat(t *testing.T) {
    sel, hist := newSelector(rand.New(rand.NewSource(5)))
    hist.Seed("a", map[string]string{"2020-01-01": "b"})
    hist.Seed("b", map[string]string{"2020-01-01": "a"})

    directory := map[string]models.SE{
        "a": se("a", 1), "b": se("b", 2),
    }
    attendees := attendeeSet("a", "b")

    pairs, err := sel.Run(context.Background(), directory, attendees, map[string]struct{}{}, map[string]struct{}{}, map[string]int{})
    if err != nil {
        t.Fatalf("expected waterline to admit the repeat, got error: %v", err)
    }
    if len(pairs) != 1 {
        t.Fatalf("expected 1 pair, got %d", len(pairs))
    }
}
