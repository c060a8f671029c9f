package pairing

import (
    "context"
    "math/rand"
    "testing"

    "github.com/dirflash/fuse-pairing/internal/history"
    "github.com/dirflash/fuse-pairing/internal/models"
)

func TestResetControllerSucceedsWithoutReset(t *testing.T) {
    hist := history.NewFakeStore()
    sel := NewSelector(hist, rand.New(rand.NewSource(2)), Config{WaterlineYears: 1, DateLayout: "2006-01-02"})
    rc := NewResetController(sel, hist, "host", 5)

    snapshot := models.SessionSnapshot{
        Attendees: attendeeSet("a1", "b1", "a2", "b2"),
        Directory: map[string]models.SE{
            "a1": se("a1", 1), "b1": se("b1", 1),
            "a2": se("a2", 2), "b2": se("b2", 2),
        },
    }

    pairs, outcome, err := rc.Run(context.Background(), snapshot)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if outcome != models.OutcomeSuccess {
        t.Fatalf("expected OutcomeSuccess, got %v", outcome)
    }
    if len(pairs) != 2 {
        t.Fatalf("expected 2 pairs, got %d", len(pairs))
    }
}

func TestResetControllerExhaustsBudget(t *testing.T) {
    hist := history.NewFakeStore()
    sel := NewSelector(hist, rand.New(rand.NewSource(9)), Config{WaterlineYears: 1, DateLayout: "2006-01-02"})
    rc := NewResetController(sel, hist, "host", 5)

    // All attendees share one region: every attempt signals kobayashi.
    snapshot := models.SessionSnapshot{
        Attendees: attendeeSet("a", "b", "c", "d"),
        Directory: map[string]models.SE{
            "a": se("a", 1), "b": se("b", 1), "c": se("c", 1), "d": se("d", 1),
        },
    }

    _, outcome, err := rc.Run(context.Background(), snapshot)
    if err == nil {
        t.Fatalf("expected an infeasible error after exhausting the reset budget")
    }
    if outcome != models.OutcomeInfeasible {
        t.Fatalf("expected OutcomeInfeasible, got %v", outcome)
    }
}
