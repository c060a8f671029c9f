package history

import (
    "context"
    "testing"
)

func TestRecordPairSymmetry(t *testing.T) {
    store := NewFakeStore()
    ctx := context.Background()

    if err := store.RecordPair(ctx, "2024-06-01", "alice", "bob"); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }

    aliceHist, err := store.History(ctx, "alice")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    bobHist, err := store.History(ctx, "bob")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }

    if aliceHist["2024-06-01"] != "bob" {
        t.Fatalf("expected alice's partner to be bob, got %s", aliceHist["2024-06-01"])
    }
    if bobHist["2024-06-01"] != "alice" {
        t.Fatalf("expected bob's partner to be alice, got %s", bobHist["2024-06-01"])
    }
}

func TestMatchCount(t *testing.T) {
    store := NewFakeStore()
    ctx := context.Background()

    store.Seed("alice", map[string]string{"2023-01-01": "carl", "2023-06-01": "dana"})

    count, err := store.MatchCount(ctx, "alice")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if count != 2 {
        t.Fatalf("expected match count 2, got %d", count)
    }
}
