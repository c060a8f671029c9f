package directory

import (
    "context"
    "testing"

    "github.com/dirflash/fuse-pairing/internal/models"
)

func TestFakeStoreLookup(t *testing.T) {
    store := NewFakeStore(map[string]models.SE{
        "asmith": {Alias: "asmith", RegionName: "EAST", RegionIndex: 3, StableIndex: 1},
    })

    se, err := store.Lookup(context.Background(), "asmith")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if se.RegionName != "EAST" {
        t.Fatalf("expected region EAST, got %s", se.RegionName)
    }
}

func TestFakeStoreRegisterUnknownDefaultsToVIP(t *testing.T) {
    store := NewFakeStore(nil)

    se, err := store.RegisterUnknown(context.Background(), "newbie", "New Person")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !se.IsVIP() {
        t.Fatalf("expected auto-provisioned SE to be VIP, got region index %d", se.RegionIndex)
    }
    if se.StableIndex == 0 {
        t.Fatalf("expected a non-zero stable index")
    }
}

func TestFakeStoreResolveAllAutoProvisions(t *testing.T) {
    store := NewFakeStore(map[string]models.SE{
        "known": {Alias: "known", RegionName: "WEST", RegionIndex: 5, StableIndex: 1},
    })

    resolved, err := store.ResolveAll(context.Background(), []string{"known", "unknown"})
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if len(resolved) != 2 {
        t.Fatalf("expected 2 resolved SEs, got %d", len(resolved))
    }
    if !resolved["unknown"].IsVIP() {
        t.Fatalf("expected unresolved alias to be auto-provisioned as VIP")
    }
}
